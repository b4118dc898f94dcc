package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSession_EffectiveSeconds(t *testing.T) {
	start := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	s := &Session{StartTime: start, EndTime: start.Add(20 * time.Second)}

	assert.Equal(t, 20*time.Second, s.Span())
	assert.Equal(t, 20, s.EffectiveSeconds(), "falls back to span without duration")

	d := 15
	s.Duration = &d
	assert.Equal(t, 15, s.EffectiveSeconds())
	assert.Equal(t, 20*time.Second, s.Span(), "span is unaffected by duration")
}
