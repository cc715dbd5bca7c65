package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTask_SeedsDefaultState(t *testing.T) {
	tsk := NewTask("t1", 0, "")
	assert.Equal(t, Runnable, tsk.State)
	assert.Equal(t, NoCPU, tsk.CurrentCPU)
	assert.Equal(t, absentIndex, tsk.HeapIndex())
	assert.Equal(t, DefaultGroupID, tsk.GroupID)
	assert.Equal(t, int64(NiceZeroWeight), tsk.Weight)
}

func TestNewTask_NiceClampBoundaries(t *testing.T) {
	low := NewTask("t1", -25, "g")
	assert.Equal(t, -20, low.Nice)

	high := NewTask("t2", 50, "g")
	assert.Equal(t, 19, high.Nice)
}

func TestSetNice_RecomputesWeight(t *testing.T) {
	tsk := NewTask("t1", 0, "")
	tsk.SetNice(-20)
	assert.Equal(t, -20, tsk.Nice)
	assert.Equal(t, int64(88761), tsk.Weight)

	tsk.SetNice(19)
	assert.Equal(t, 19, tsk.Nice)
	assert.Equal(t, int64(15), tsk.Weight)
}

func TestWeightOrdering(t *testing.T) {
	lo := weightForNice(-20)
	mid := weightForNice(0)
	hi := weightForNice(19)
	assert.Greater(t, lo, mid)
	assert.Greater(t, mid, hi)
	assert.EqualValues(t, 88761, lo)
	assert.EqualValues(t, 1024, mid)
	assert.EqualValues(t, 15, hi)
}

func TestAffinity_EmptyMeansAnyCPU(t *testing.T) {
	tsk := NewTask("t1", 0, "")
	assert.True(t, tsk.CanRunOnCPU(0))
	assert.True(t, tsk.CanRunOnCPU(7))

	tsk.SetAffinity([]int{1, 3})
	assert.False(t, tsk.CanRunOnCPU(0))
	assert.True(t, tsk.CanRunOnCPU(1))
	assert.True(t, tsk.CanRunOnCPU(3))

	tsk.SetAffinity(nil)
	assert.True(t, tsk.CanRunOnCPU(0))
}

func TestCalcVruntimeDelta(t *testing.T) {
	assert.InDelta(t, 1.0, calcVruntimeDelta(1, NiceZeroWeight), 1e-9)
	assert.InDelta(t, 2.0, calcVruntimeDelta(1, NiceZeroWeight/2), 1e-9)
	assert.InDelta(t, 0.5, calcVruntimeDelta(1, NiceZeroWeight*2), 1e-9)
}
