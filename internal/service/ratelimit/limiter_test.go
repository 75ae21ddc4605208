package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowBurstThenDeny(t *testing.T) {
	l := New(0.001, 2)
	assert.True(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("1.2.3.4"))
	assert.False(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("5.6.7.8"))
}

func TestSweepDropsIdleKeys(t *testing.T) {
	l := New(10, 1)
	l.idle = time.Millisecond
	l.Allow("a")
	time.Sleep(5 * time.Millisecond)
	l.Allow("b")
	assert.Equal(t, 1, l.Len())
}
