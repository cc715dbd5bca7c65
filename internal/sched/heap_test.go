package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunHeap_InsertExtractAscending(t *testing.T) {
	h := newRunHeap(8)
	vruntimes := []float64{5, 1, 4, 2, 8, 0, 9, 3}
	for i, vr := range vruntimes {
		task := NewTask(string(rune('a'+i)), 0, "")
		task.Vruntime = vr
		h.Insert(task)
	}

	require.Equal(t, len(vruntimes), h.Len())

	var got []float64
	for !h.IsEmpty() {
		top := h.ExtractMin()
		require.NotNil(t, top)
		got = append(got, top.Vruntime)
		assert.Equal(t, absentIndex, top.HeapIndex())
	}

	assert.Equal(t, []float64{0, 1, 2, 3, 4, 5, 8, 9}, got)
}

func TestRunHeap_ExtractMinEmpty(t *testing.T) {
	h := newRunHeap(0)
	assert.Nil(t, h.ExtractMin())
	assert.Nil(t, h.Peek())
}

func TestRunHeap_UpdateRepositions(t *testing.T) {
	h := newRunHeap(4)
	a := NewTask("a", 0, "")
	a.Vruntime = 1
	b := NewTask("b", 0, "")
	b.Vruntime = 2
	c := NewTask("c", 0, "")
	c.Vruntime = 3
	h.Insert(a)
	h.Insert(b)
	h.Insert(c)

	require.Equal(t, a, h.Peek())

	a.Vruntime = 10
	h.Update(a)
	assert.Equal(t, b, h.Peek())

	b.Vruntime = 0
	h.Update(b)
	assert.Equal(t, b, h.Peek())
}

func TestRunHeap_RemoveMiddle(t *testing.T) {
	h := newRunHeap(4)
	tasks := make([]*Task, 5)
	for i := range tasks {
		tasks[i] = NewTask(string(rune('a'+i)), 0, "")
		tasks[i].Vruntime = float64(i)
		h.Insert(tasks[i])
	}

	h.Remove(tasks[2])
	assert.Equal(t, absentIndex, tasks[2].HeapIndex())
	assert.Equal(t, 4, h.Len())

	var got []float64
	for !h.IsEmpty() {
		got = append(got, h.ExtractMin().Vruntime)
	}
	assert.Equal(t, []float64{0, 1, 3, 4}, got)
}

func TestRunHeap_FindAndClear(t *testing.T) {
	h := newRunHeap(2)
	a := NewTask("a", 0, "")
	b := NewTask("b", 0, "")
	h.Insert(a)
	h.Insert(b)

	assert.Equal(t, a, h.Find("a"))
	assert.Nil(t, h.Find("missing"))

	h.Clear()
	assert.True(t, h.IsEmpty())
	assert.Equal(t, absentIndex, a.HeapIndex())
	assert.Equal(t, absentIndex, b.HeapIndex())
}
