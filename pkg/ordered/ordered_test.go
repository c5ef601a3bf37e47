package ordered_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slimchain-go/slimchain/pkg/ordered"
)

func intLess(a, b int) bool { return a < b }
func intNext(a int) int     { return a + 1 }

func TestStream_PushInOrderDeliversImmediately(t *testing.T) {
	s := ordered.New[int, string](0, intLess, intNext)
	out := s.Push(0, "a")
	assert.Equal(t, []string{"a"}, out)
	assert.Equal(t, 0, s.Pending())
}

func TestStream_PushOutOfOrderBuffers(t *testing.T) {
	s := ordered.New[int, string](0, intLess, intNext)
	out := s.Push(2, "c")
	assert.Nil(t, out)
	assert.Equal(t, 1, s.Pending())
}

func TestStream_FillingGapReleasesRun(t *testing.T) {
	s := ordered.New[int, string](0, intLess, intNext)
	assert.Nil(t, s.Push(2, "c"))
	assert.Nil(t, s.Push(1, "b"))
	out := s.Push(0, "a")
	assert.Equal(t, []string{"a", "b", "c"}, out)
	assert.Equal(t, 0, s.Pending())
}

func TestStream_LateItemDroppedNotDelivered(t *testing.T) {
	s := ordered.New[int, string](0, intLess, intNext)
	s.Push(0, "a")
	out := s.Push(0, "a-again")
	assert.Nil(t, out)
}

func TestStream_DrainedOnlyAfterFinishAndEmptyBuffer(t *testing.T) {
	s := ordered.New[int, string](0, intLess, intNext)
	assert.False(t, s.Drained())
	s.Push(1, "b")
	s.Finish()
	assert.False(t, s.Drained())
	s.Push(0, "a")
	assert.True(t, s.Drained())
}
