// Package codec decodes inbound TimeFrame/Event messages and encodes
// outbound SchedulerTick results per the wire shapes of §6. It is the
// external collaborator the core scheduler never imports: callers
// translate between wire JSON and internal/sched types here, at the
// boundary.
package codec

import (
	"encoding/json"
	"fmt"

	"github.com/ja7ad/fairsched/internal/sched"
)

// wireEvent mirrors the JSON shape of one Event (§6). Pointer fields
// distinguish "omitted" from "present with zero value", which the event
// state machine's sentinel handling (shares/quota/period "keep" values)
// depends on.
type wireEvent struct {
	Action      string   `json:"action"`
	TaskID      string   `json:"taskId,omitempty"`
	CgroupID    string   `json:"cgroupId,omitempty"`
	NewCgroupID string   `json:"newCgroupId,omitempty"`
	Nice        *int     `json:"nice,omitempty"`
	NewNice     *int     `json:"newNice,omitempty"`
	CPUMask     []int    `json:"cpuMask,omitempty"`
	CPUShares   *int64   `json:"cpuShares,omitempty"`
	CPUQuotaUs  *json.RawMessage `json:"cpuQuotaUs,omitempty"`
	CPUPeriodUs *int64   `json:"cpuPeriodUs,omitempty"`
	Duration    *int     `json:"duration,omitempty"`
}

// wireTimeFrame mirrors the inbound TimeFrame envelope (§6).
type wireTimeFrame struct {
	Vtime  int64       `json:"vtime"`
	Events []wireEvent `json:"events"`
}

// TimeFrame is the decoded form of one inbound batch: a vtime and the
// ordered list of sched.Event values to apply before ticking at that
// vtime (§5, "Ordering").
type TimeFrame struct {
	Vtime  int64
	Events []*sched.Event
}

// DecodeTimeFrame parses one TimeFrame message. A malformed action or
// numeric field yields an error wrapping sched.ErrInvalidEvent so callers
// can apply the §7 InvalidEvent policy (report and continue).
func DecodeTimeFrame(data []byte) (*TimeFrame, error) {
	var wf wireTimeFrame
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("%w: %v", sched.ErrInvalidEvent, err)
	}

	tf := &TimeFrame{Vtime: wf.Vtime, Events: make([]*sched.Event, 0, len(wf.Events))}
	for i := range wf.Events {
		ev, err := decodeEvent(&wf.Events[i])
		if err != nil {
			return nil, err
		}
		tf.Events = append(tf.Events, ev)
	}
	return tf, nil
}

func decodeEvent(w *wireEvent) (*sched.Event, error) {
	action := sched.Action(w.Action)
	switch action {
	case sched.TaskCreate, sched.TaskExit, sched.TaskBlock, sched.TaskUnblock,
		sched.TaskYield, sched.TaskSetNice, sched.TaskSetAffinity,
		sched.CgroupCreate, sched.CgroupModify, sched.CgroupDelete,
		sched.TaskMoveCgroup, sched.CPUBurst:
		// recognized
	default:
		return nil, fmt.Errorf("%w: unknown action %q", sched.ErrInvalidEvent, w.Action)
	}

	ev := &sched.Event{
		Action:      action,
		TaskID:      w.TaskID,
		CgroupID:    w.CgroupID,
		NewCgroupID: w.NewCgroupID,
		CPUMask:     w.CPUMask,
		CPUMaskSet:  w.CPUMask != nil,
		CPUShares:   w.CPUShares,
		CPUPeriodUs: w.CPUPeriodUs,
		Duration:    w.Duration,
	}

	// "nice" and "newNice" are treated identically (§6).
	if w.Nice != nil {
		ev.Nice = w.Nice
	} else if w.NewNice != nil {
		ev.Nice = w.NewNice
	}

	if w.CPUQuotaUs != nil {
		q, err := decodeQuota(*w.CPUQuotaUs)
		if err != nil {
			return nil, err
		}
		ev.CPUQuotaUs = q
	}

	return ev, nil
}

// decodeQuota turns the raw cpuQuotaUs JSON value into a pointer: JSON
// null maps to -1 (unlimited), any other value must be a whole number
// (§6).
func decodeQuota(raw json.RawMessage) (*int64, error) {
	if string(raw) == "null" {
		v := int64(sched.UnlimitedQuota)
		return &v, nil
	}
	var v int64
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: cpuQuotaUs: %v", sched.ErrInvalidEvent, err)
	}
	return &v, nil
}

// wireTickMeta mirrors the outbound "meta" object (§6).
type wireTickMeta struct {
	Preemptions   int      `json:"preemptions"`
	Migrations    int      `json:"migrations"`
	RunnableTasks []string `json:"runnableTasks"`
	BlockedTasks  []string `json:"blockedTasks"`
}

// wireSchedulerTick mirrors the outbound SchedulerTick message (§6).
type wireSchedulerTick struct {
	Vtime    int64         `json:"vtime"`
	Schedule []string      `json:"schedule"`
	Meta     *wireTickMeta `json:"meta,omitempty"`
}

// EncodeTick renders a tick result as a single JSON object. includeMeta
// controls whether the optional "meta" field is attached, per the
// --metadata CLI flag (§6).
func EncodeTick(res *sched.TickResult, includeMeta bool) ([]byte, error) {
	out := wireSchedulerTick{
		Vtime:    res.Vtime,
		Schedule: res.Schedule,
	}
	if includeMeta && res.Meta != nil {
		runnable := res.Meta.RunnableTasks
		if runnable == nil {
			runnable = []string{}
		}
		blocked := res.Meta.BlockedTasks
		if blocked == nil {
			blocked = []string{}
		}
		out.Meta = &wireTickMeta{
			Preemptions:   res.Meta.Preemptions,
			Migrations:    res.Meta.Migrations,
			RunnableTasks: runnable,
			BlockedTasks:  blocked,
		}
	}
	return json.Marshal(out)
}
