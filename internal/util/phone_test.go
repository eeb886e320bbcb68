package util

import (
	"testing"

	"github.com/jmehdipour/unit-notifier/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct{ in, want string }{
		{"+1 (713) 000-0000", "+17130000000"},
		{"7130000000", "+17130000000"},
		{"17130000000", "+17130000000"},
		{"0044 20 7946 0000", "+442079460000"},
		{"5551234", "5551234"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, NormalizePhone(c.in), c.in)
	}
}

func TestValidE164(t *testing.T) {
	assert.True(t, ValidE164("+17130000000"))
	assert.True(t, ValidE164("+7"))
	assert.False(t, ValidE164("5551234"))
	assert.False(t, ValidE164("+"))
	assert.False(t, ValidE164("+1234567890123456"))
	assert.False(t, ValidE164(""))
}

func TestSplitPhones(t *testing.T) {
	assert.Equal(t, []string{"+17130000000", "+18320000000"}, SplitPhones(" +17130000000, ,+18320000000,"))
	assert.Empty(t, SplitPhones(""))
}

func TestFilterE164(t *testing.T) {
	valid, rejected := FilterE164([]model.Phone{"+17130000000", "5551234", "+18320000000"})
	assert.Equal(t, []model.Phone{"+17130000000", "+18320000000"}, valid)
	assert.Equal(t, []model.Phone{"5551234"}, rejected)
}

func TestNewIDUnique(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 100; i++ {
		id := NewID()
		assert.Len(t, id, 26)
		_, dup := seen[id]
		assert.False(t, dup)
		seen[id] = struct{}{}
	}
}
