package gateway

import (
	"testing"

	"github.com/42wim/matrixircd/bridge"
	"github.com/stretchr/testify/assert"
)

func TestLedgerUnbounded(t *testing.T) {
	l := NewLedger(0)

	assert.False(t, l.Seen("$a"))
	l.Record("$a")
	assert.True(t, l.Seen("$a"))

	for i := 0; i < 1000; i++ {
		l.Record(bridge.EventID(string(rune('a'+i%26)) + string(rune(i))))
	}

	assert.True(t, l.Seen("$a"))
}

func TestLedgerEmptyID(t *testing.T) {
	for _, size := range []int{0, 2} {
		l := NewLedger(size)
		l.Record("")
		assert.False(t, l.Seen(""))
		assert.Equal(t, 0, l.Len())
	}
}

func TestLedgerBounded(t *testing.T) {
	l := NewLedger(2)

	l.Record("$a")
	l.Record("$b")
	l.Record("$c")

	assert.Equal(t, 2, l.Len())
	assert.False(t, l.Seen("$a"))
	assert.True(t, l.Seen("$b"))
	assert.True(t, l.Seen("$c"))
}
