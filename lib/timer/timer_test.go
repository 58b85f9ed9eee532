package timer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestXTimer(t *testing.T) {
	tm := NewXTimer()
	time.Sleep(time.Millisecond)
	tm.Mark("decode")
	tm.Mark("handle")

	out := tm.Print()
	parts := strings.Split(out, ",")
	assert.Len(t, parts, 3)
	assert.True(t, strings.HasPrefix(parts[0], "decode:"))
	assert.True(t, strings.HasPrefix(parts[1], "handle:"))
	assert.True(t, strings.HasPrefix(parts[2], "total:"))
	assert.True(t, tm.Elapsed() >= time.Millisecond)
}
