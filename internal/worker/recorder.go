package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmehdipour/unit-notifier/internal/kafka"
	"github.com/jmehdipour/unit-notifier/internal/metrics"
	"github.com/jmehdipour/unit-notifier/internal/model"
	"github.com/jmehdipour/unit-notifier/internal/repository"
	"go.uber.org/zap"
)

// Source is the consumer side the recorder reads from.
type Source interface {
	Fetch(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, msgs ...kafka.Message) error
}

// Recorder:
// - fetches delivery events from Kafka,
// - buffers them and flushes on size or time into ClickHouse,
// - commits offsets only after a successful flush (at-least-once).
type Recorder struct {
	Source     Source
	Deliveries repository.DeliveriesRepository
	Log        *zap.Logger

	BatchSize int           // max buffered rows per flush
	BatchWait time.Duration // max time to wait before flush
}

func NewRecorder(src Source, deliveries repository.DeliveriesRepository, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{
		Source:     src,
		Deliveries: deliveries,
		Log:        log.Named("recorder"),
		BatchSize:  200,
		BatchWait:  500 * time.Millisecond,
	}
}

type fetched struct {
	msg kafka.Message
	row *model.Delivery // nil for poison messages
}

// Run blocks until ctx is cancelled, then flushes what it holds.
func (w *Recorder) Run(ctx context.Context) error {
	if w.BatchSize <= 0 {
		w.BatchSize = 200
	}
	if w.BatchWait <= 0 {
		w.BatchWait = 500 * time.Millisecond
	}

	in := make(chan fetched, w.BatchSize*2)
	go w.fetchLoop(ctx, in)

	w.runBatchWriter(ctx, in)
	return nil
}

func (w *Recorder) fetchLoop(ctx context.Context, out chan<- fetched) {
	defer close(out)
	for {
		m, err := w.Source.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.Log.Warn("kafka fetch", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(200 * time.Millisecond):
			}
			continue
		}

		var d model.Delivery
		item := fetched{msg: m}
		if err := json.Unmarshal(m.Value, &d); err != nil || d.ID == "" {
			w.Log.Warn("skipping bad delivery event", zap.Int64("offset", m.Offset), zap.Error(err))
		} else {
			item.row = &d
		}

		select {
		case out <- item:
		case <-ctx.Done():
			return
		}
	}
}

func (w *Recorder) runBatchWriter(ctx context.Context, in <-chan fetched) {
	tick := time.NewTicker(w.BatchWait)
	defer tick.Stop()

	var (
		rows []model.Delivery
		msgs []kafka.Message
	)

	flush := func(fctx context.Context) {
		if len(msgs) == 0 {
			return
		}
		if err := w.Deliveries.InsertBatch(fctx, rows); err != nil {
			// keep the batch; the next tick retries it
			w.Log.Error("clickhouse insert", zap.Int("rows", len(rows)), zap.Error(err))
			return
		}
		if err := w.Source.Commit(fctx, msgs...); err != nil {
			w.Log.Warn("kafka commit", zap.Error(err))
		}
		metrics.RecorderFlushedTotal.Add(float64(len(rows)))
		w.Log.Debug("flushed", zap.Int("rows", len(rows)), zap.Int("messages", len(msgs)))
		rows, msgs = rows[:0], msgs[:0]
	}

	// final flush must outlive the cancelled run context
	final := func() {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		flush(fctx)
	}

	add := func(it fetched) {
		msgs = append(msgs, it.msg)
		if it.row != nil {
			rows = append(rows, *it.row)
		}
	}

	// src is nil while a full batch is stuck, which stops reading and lets
	// the fetch loop block instead of buffering without bound.
	src := in
	for {
		select {
		case <-ctx.Done():
			// take whatever was already fetched
			for drained := false; !drained; {
				select {
				case it, ok := <-in:
					if !ok {
						drained = true
						break
					}
					add(it)
				default:
					drained = true
				}
			}
			final()
			return

		case it, ok := <-src:
			if !ok {
				final()
				return
			}
			add(it)
			if len(msgs) >= w.BatchSize {
				flush(ctx)
			}

		case <-tick.C:
			flush(ctx)
		}

		if len(msgs) >= w.BatchSize {
			src = nil
		} else {
			src = in
		}
	}
}
