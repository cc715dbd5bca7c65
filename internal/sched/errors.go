package sched

import "errors"

var (
	// ErrInvalidEvent covers an unknown action or a malformed/out-of-range
	// payload (§7).
	ErrInvalidEvent = errors.New("sched: invalid event")

	// ErrTaskCapacity means the task table is at MaxTasks (§3).
	ErrTaskCapacity = errors.New("sched: task capacity reached")

	// ErrGroupCapacity means the group table is at MaxGroups (§3).
	ErrGroupCapacity = errors.New("sched: group capacity reached")

	// ErrDuplicateTask means TASK_CREATE named an id already live (§3,
	// invariant 2).
	ErrDuplicateTask = errors.New("sched: task id already exists")

	// ErrDuplicateGroup means CGROUP_CREATE named an id already live.
	ErrDuplicateGroup = errors.New("sched: group id already exists")
)

// Bounds from §3.
const (
	MaxTasks  = 1024
	MaxGroups = 64
	MaxCPUs   = 128
)
