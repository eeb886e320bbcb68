package db

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jmehdipour/unit-notifier/internal/config"
	"github.com/stretchr/testify/require"
)

func TestOpenRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb, err := OpenRedis(config.RedisConfig{Addr: mr.Addr(), DialTimeout: time.Second})
	require.NoError(t, err)
	require.NoError(t, rdb.Close())
}

func TestOpenRedis_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := OpenRedis(config.RedisConfig{Addr: addr, DialTimeout: 200 * time.Millisecond})
	require.Error(t, err)
}

func TestOpenMySQL_EmptyDSN(t *testing.T) {
	_, err := OpenMySQL(config.DatabaseConfig{})
	require.ErrorContains(t, err, "empty mysql DSN")
}
