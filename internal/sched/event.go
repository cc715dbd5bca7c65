package sched

// Action identifies one of the recognized event kinds (§4.4). Events are
// modeled as a tagged variant rather than a class hierarchy (§9).
type Action string

const (
	TaskCreate      Action = "TASK_CREATE"
	TaskExit        Action = "TASK_EXIT"
	TaskBlock       Action = "TASK_BLOCK"
	TaskUnblock     Action = "TASK_UNBLOCK"
	TaskYield       Action = "TASK_YIELD"
	TaskSetNice     Action = "TASK_SETNICE"
	TaskSetAffinity Action = "TASK_SET_AFFINITY"
	CgroupCreate    Action = "CGROUP_CREATE"
	CgroupModify    Action = "CGROUP_MODIFY"
	CgroupDelete    Action = "CGROUP_DELETE"
	TaskMoveCgroup  Action = "TASK_MOVE_CGROUP"
	CPUBurst        Action = "CPU_BURST"
)

// Event is the per-kind payload for one state transition (§6). Optional
// fields use pointers so the event state machine can distinguish "not
// supplied" from "supplied as zero/empty", matching the C reference's
// has_* flags.
type Event struct {
	Action Action

	TaskID      string
	CgroupID    string
	NewCgroupID string

	Nice *int

	CPUMask    []int
	CPUMaskSet bool

	CPUShares  *int64
	CPUQuotaUs *int64 // nil == unset; -1 == unlimited (wire null maps here)
	CPUPeriodUs *int64

	Duration *int
}
