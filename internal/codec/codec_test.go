package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja7ad/fairsched/internal/sched"
)

func TestDecodeTimeFrame_TaskCreate(t *testing.T) {
	raw := []byte(`{"vtime":3,"events":[{"action":"TASK_CREATE","taskId":"T1","nice":5}]}`)
	tf, err := DecodeTimeFrame(raw)
	require.NoError(t, err)
	assert.EqualValues(t, 3, tf.Vtime)
	require.Len(t, tf.Events, 1)

	ev := tf.Events[0]
	assert.Equal(t, sched.TaskCreate, ev.Action)
	assert.Equal(t, "T1", ev.TaskID)
	require.NotNil(t, ev.Nice)
	assert.Equal(t, 5, *ev.Nice)
}

func TestDecodeTimeFrame_NiceAndNewNiceAreEquivalent(t *testing.T) {
	raw := []byte(`{"vtime":0,"events":[{"action":"TASK_SETNICE","taskId":"T1","newNice":-10}]}`)
	tf, err := DecodeTimeFrame(raw)
	require.NoError(t, err)
	require.Len(t, tf.Events, 1)
	require.NotNil(t, tf.Events[0].Nice)
	assert.Equal(t, -10, *tf.Events[0].Nice)
}

func TestDecodeTimeFrame_NiceTakesPrecedenceOverNewNice(t *testing.T) {
	raw := []byte(`{"vtime":0,"events":[{"action":"TASK_SETNICE","taskId":"T1","nice":1,"newNice":-10}]}`)
	tf, err := DecodeTimeFrame(raw)
	require.NoError(t, err)
	require.NotNil(t, tf.Events[0].Nice)
	assert.Equal(t, 1, *tf.Events[0].Nice)
}

func TestDecodeTimeFrame_NullQuotaMeansUnlimited(t *testing.T) {
	raw := []byte(`{"vtime":0,"events":[{"action":"CGROUP_CREATE","cgroupId":"g","cpuQuotaUs":null}]}`)
	tf, err := DecodeTimeFrame(raw)
	require.NoError(t, err)
	require.NotNil(t, tf.Events[0].CPUQuotaUs)
	assert.EqualValues(t, sched.UnlimitedQuota, *tf.Events[0].CPUQuotaUs)
}

func TestDecodeTimeFrame_OmittedQuotaStaysNil(t *testing.T) {
	raw := []byte(`{"vtime":0,"events":[{"action":"CGROUP_MODIFY","cgroupId":"g"}]}`)
	tf, err := DecodeTimeFrame(raw)
	require.NoError(t, err)
	assert.Nil(t, tf.Events[0].CPUQuotaUs)
}

func TestDecodeTimeFrame_FiniteQuota(t *testing.T) {
	raw := []byte(`{"vtime":0,"events":[{"action":"CGROUP_CREATE","cgroupId":"g","cpuQuotaUs":50000}]}`)
	tf, err := DecodeTimeFrame(raw)
	require.NoError(t, err)
	require.NotNil(t, tf.Events[0].CPUQuotaUs)
	assert.EqualValues(t, 50000, *tf.Events[0].CPUQuotaUs)
}

func TestDecodeTimeFrame_UnknownActionRejected(t *testing.T) {
	raw := []byte(`{"vtime":0,"events":[{"action":"NOPE"}]}`)
	_, err := DecodeTimeFrame(raw)
	assert.ErrorIs(t, err, sched.ErrInvalidEvent)
}

func TestDecodeTimeFrame_MalformedJSONRejected(t *testing.T) {
	_, err := DecodeTimeFrame([]byte(`{not json`))
	assert.ErrorIs(t, err, sched.ErrInvalidEvent)
}

func TestDecodeTimeFrame_CPUMaskSetDistinguishesAbsentFromPresent(t *testing.T) {
	raw := []byte(`{"vtime":0,"events":[{"action":"TASK_SET_AFFINITY","taskId":"T1","cpuMask":[0,2]}]}`)
	tf, err := DecodeTimeFrame(raw)
	require.NoError(t, err)
	assert.True(t, tf.Events[0].CPUMaskSet)
	assert.Equal(t, []int{0, 2}, tf.Events[0].CPUMask)

	raw2 := []byte(`{"vtime":0,"events":[{"action":"TASK_SET_AFFINITY","taskId":"T1"}]}`)
	tf2, err := DecodeTimeFrame(raw2)
	require.NoError(t, err)
	assert.False(t, tf2.Events[0].CPUMaskSet)
}

func TestEncodeTick_OmitsMetaWhenNotRequested(t *testing.T) {
	res := &sched.TickResult{
		Vtime:    1,
		Schedule: []string{"T1", "idle"},
		Meta: &sched.TickMeta{
			Preemptions: 2,
			Migrations:  1,
		},
	}
	out, err := EncodeTick(res, false)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "meta")
	assert.Contains(t, string(out), `"vtime":1`)
}

func TestEncodeTick_NormalizesNilTaskListsToEmptyArrays(t *testing.T) {
	res := &sched.TickResult{
		Vtime:    2,
		Schedule: []string{"idle"},
		Meta:     &sched.TickMeta{},
	}
	out, err := EncodeTick(res, true)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"runnableTasks":[]`)
	assert.Contains(t, string(out), `"blockedTasks":[]`)
}

func TestEncodeTick_IncludesPopulatedMeta(t *testing.T) {
	res := &sched.TickResult{
		Vtime:    5,
		Schedule: []string{"T1"},
		Meta: &sched.TickMeta{
			Preemptions:   3,
			Migrations:    1,
			RunnableTasks: []string{"T1", "T2"},
			BlockedTasks:  []string{"T3"},
		},
	}
	out, err := EncodeTick(res, true)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"preemptions":3`)
	assert.Contains(t, string(out), `"T3"`)
}
