// Package sched implements the deterministic, event-driven fair-share CPU
// scheduler simulator: an indexed min-heap of runnable tasks, resource
// groups with shares/quota/period throttling, and the per-tick selection
// algorithm that approximates Linux CFS semantics.
package sched

import "fmt"

// CPUQueue is a per-CPU runqueue (§3). CurrentTask is the task assigned
// in the most recent tick, or nil if the CPU went idle.
type CPUQueue struct {
	ID          int
	CurrentTask *Task
	MinVruntime float64
}

// Scheduler owns every task, group, CPU queue, and the single global
// runnable heap (§3). All mutation happens through ProcessEvent and Tick;
// nothing here is safe for concurrent use, matching the single-threaded,
// cooperative model of §5.
type Scheduler struct {
	cpus   []CPUQueue
	quanta int64

	tasks  map[string]*Task
	groups map[string]*Group
	heap   *runHeap

	currentVtime int64
	preemptions  int
	migrations   int
}

// New builds a scheduler with cpuCount CPUs and a tick length of quanta
// (clamped to >= 1, per the C reference's scheduler_init).
func New(cpuCount int, quanta int64) (*Scheduler, error) {
	if cpuCount <= 0 || cpuCount > MaxCPUs {
		return nil, fmt.Errorf("%w: cpu count must be 1..%d, got %d", ErrInvalidEvent, MaxCPUs, cpuCount)
	}
	if quanta <= 0 {
		quanta = 1
	}
	s := &Scheduler{
		cpus:   make([]CPUQueue, cpuCount),
		quanta: quanta,
		tasks:  make(map[string]*Task),
		groups: make(map[string]*Group),
		heap:   newRunHeap(MaxTasks),
	}
	for i := range s.cpus {
		s.cpus[i].ID = i
	}
	return s, nil
}

// CPUCount returns the number of CPUs this scheduler manages.
func (s *Scheduler) CPUCount() int { return len(s.cpus) }

// CurrentVtime returns the vtime of the most recently processed tick.
func (s *Scheduler) CurrentVtime() int64 { return s.currentVtime }

// FindTask looks up a live task by id.
func (s *Scheduler) FindTask(id string) *Task { return s.tasks[id] }

// FindGroup looks up a live group by id. The default group "0" never
// resolves here: its absence means "no constraints" (§3, invariant 5).
func (s *Scheduler) FindGroup(id string) *Group {
	if id == "" || id == DefaultGroupID {
		return nil
	}
	return s.groups[id]
}

// maxVruntime returns the maximum vruntime across RUNNABLE/RUNNING tasks,
// or 0 if there are none (§4.4, TASK_CREATE).
func (s *Scheduler) maxVruntime() float64 {
	var max float64
	for _, t := range s.tasks {
		if (t.State == Runnable || t.State == Running) && t.Vruntime > max {
			max = t.Vruntime
		}
	}
	return max
}

// minVruntime returns the minimum vruntime across RUNNABLE/RUNNING tasks,
// or 0 if there are none (§4.4, TASK_UNBLOCK).
func (s *Scheduler) minVruntime() float64 {
	min := 0.0
	seen := false
	for _, t := range s.tasks {
		if t.State == Runnable || t.State == Running {
			if !seen || t.Vruntime < min {
				min = t.Vruntime
				seen = true
			}
		}
	}
	if !seen {
		return 0
	}
	return min
}

// effectiveWeight scales a task's nice-derived weight by its group's
// shares (§4.5): weight * shares / 1024, floored at 1.
func (s *Scheduler) effectiveWeight(t *Task) int64 {
	w := t.Weight
	if g := s.FindGroup(t.GroupID); g != nil && g.Shares > 0 {
		w = (w * g.Shares) / NiceZeroWeight
	}
	if w < 1 {
		w = 1
	}
	return w
}

// canRunOnCPU checks both task affinity and the task's group's CPU mask.
func (s *Scheduler) canRunOnCPU(t *Task, cpu int) bool {
	if !t.CanRunOnCPU(cpu) {
		return false
	}
	if g := s.FindGroup(t.GroupID); g != nil && !g.AllowsCPU(cpu) {
		return false
	}
	return true
}

// ProcessEvent applies a single event to scheduler state (§4.4). Unknown
// actions or malformed payloads return ErrInvalidEvent; events whose
// target is missing are silent no-ops, as specified.
func (s *Scheduler) ProcessEvent(ev *Event) error {
	if ev == nil {
		return fmt.Errorf("%w: nil event", ErrInvalidEvent)
	}

	switch ev.Action {
	case TaskCreate:
		return s.processTaskCreate(ev)
	case TaskExit:
		s.processTaskExit(ev)
	case TaskBlock:
		s.processTaskBlock(ev)
	case TaskUnblock:
		s.processTaskUnblock(ev)
	case TaskYield:
		s.processTaskYield(ev)
	case TaskSetNice:
		s.processTaskSetNice(ev)
	case TaskSetAffinity:
		s.processTaskSetAffinity(ev)
	case CgroupCreate:
		return s.processCgroupCreate(ev)
	case CgroupModify:
		return s.processCgroupModify(ev)
	case CgroupDelete:
		s.processCgroupDelete(ev)
	case TaskMoveCgroup:
		s.processTaskMoveCgroup(ev)
	case CPUBurst:
		s.processCPUBurst(ev)
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidEvent, ev.Action)
	}
	return nil
}

func (s *Scheduler) processTaskCreate(ev *Event) error {
	if ev.TaskID == "" {
		return fmt.Errorf("%w: TASK_CREATE missing taskId", ErrInvalidEvent)
	}
	if _, exists := s.tasks[ev.TaskID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTask, ev.TaskID)
	}
	if len(s.tasks) >= MaxTasks {
		return fmt.Errorf("%w: task %s", ErrTaskCapacity, ev.TaskID)
	}

	nice := 0
	if ev.Nice != nil {
		nice = *ev.Nice
	}
	t := NewTask(ev.TaskID, nice, ev.CgroupID)
	// New tasks start at the maximum vruntime of existing runnable tasks
	// to avoid starving them (§4.4, §9).
	t.Vruntime = s.maxVruntime()
	if ev.CPUMaskSet {
		t.SetAffinity(ev.CPUMask)
	}
	s.tasks[t.ID] = t
	s.heap.Insert(t)
	return nil
}

func (s *Scheduler) processTaskExit(ev *Event) {
	t := s.tasks[ev.TaskID]
	if t == nil {
		return
	}
	s.detachFromCPU(t)
	s.heap.Remove(t)
	t.State = Exited
	delete(s.tasks, ev.TaskID)
}

func (s *Scheduler) processTaskBlock(ev *Event) {
	t := s.tasks[ev.TaskID]
	if t == nil {
		return
	}
	t.State = Blocked
	s.heap.Remove(t)
	s.detachFromCPU(t)
}

func (s *Scheduler) processTaskUnblock(ev *Event) {
	t := s.tasks[ev.TaskID]
	if t == nil || t.State != Blocked {
		return
	}
	t.State = Runnable
	minVr := s.minVruntime()
	if t.Vruntime < minVr-1.0 {
		t.Vruntime = minVr - 1.0
	}
	s.heap.Insert(t)
}

func (s *Scheduler) processTaskYield(ev *Event) {
	t := s.tasks[ev.TaskID]
	if t == nil {
		return
	}
	t.Vruntime = s.maxVruntime()
	if t.HeapIndex() != absentIndex {
		s.heap.Update(t)
	}
}

func (s *Scheduler) processTaskSetNice(ev *Event) {
	t := s.tasks[ev.TaskID]
	if t == nil {
		return
	}
	nice := 0
	if ev.Nice != nil {
		nice = *ev.Nice
	}
	t.SetNice(nice)
}

func (s *Scheduler) processTaskSetAffinity(ev *Event) {
	t := s.tasks[ev.TaskID]
	if t == nil {
		return
	}
	t.SetAffinity(ev.CPUMask)
}

func (s *Scheduler) processCgroupCreate(ev *Event) error {
	if ev.CgroupID == "" {
		return fmt.Errorf("%w: CGROUP_CREATE missing cgroupId", ErrInvalidEvent)
	}
	if _, exists := s.groups[ev.CgroupID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateGroup, ev.CgroupID)
	}
	if len(s.groups) >= MaxGroups {
		return fmt.Errorf("%w: group %s", ErrGroupCapacity, ev.CgroupID)
	}

	shares := int64(DefaultShares)
	if ev.CPUShares != nil {
		shares = *ev.CPUShares
	}
	quota := int64(UnlimitedQuota)
	if ev.CPUQuotaUs != nil {
		quota = *ev.CPUQuotaUs
	}
	period := int64(DefaultPeriodUs)
	if ev.CPUPeriodUs != nil {
		period = *ev.CPUPeriodUs
	}

	g := NewGroup(ev.CgroupID, shares, quota, period, ev.CPUMask)
	g.PeriodStartVtime = s.currentVtime
	s.groups[g.ID] = g
	return nil
}

func (s *Scheduler) processCgroupModify(ev *Event) error {
	g := s.groups[ev.CgroupID]
	if g == nil {
		return nil
	}
	shares := int64(-1) // "keep"
	if ev.CPUShares != nil {
		shares = *ev.CPUShares
	}
	quota := int64(KeepQuota)
	if ev.CPUQuotaUs != nil {
		quota = *ev.CPUQuotaUs
	}
	period := int64(-1) // "keep"
	if ev.CPUPeriodUs != nil {
		period = *ev.CPUPeriodUs
	}

	g.Modify(shares, quota, period, ev.CPUMask, ev.CPUMaskSet)

	if ev.CPUPeriodUs != nil && *ev.CPUPeriodUs > 0 {
		g.ResetPeriod(s.currentVtime)
	}
	return nil
}

func (s *Scheduler) processCgroupDelete(ev *Event) {
	g := s.groups[ev.CgroupID]
	if g == nil {
		return
	}
	for _, t := range s.tasks {
		if t.GroupID == g.ID {
			t.GroupID = DefaultGroupID
		}
	}
	delete(s.groups, g.ID)
}

func (s *Scheduler) processTaskMoveCgroup(ev *Event) {
	t := s.tasks[ev.TaskID]
	if t == nil {
		return
	}
	t.GroupID = ev.NewCgroupID
}

func (s *Scheduler) processCPUBurst(ev *Event) {
	t := s.tasks[ev.TaskID]
	if t == nil {
		return
	}
	t.Burst = true
	if ev.Duration != nil {
		t.BurstLeft = *ev.Duration
	}
}

// detachFromCPU clears t from whatever CPU it currently occupies.
func (s *Scheduler) detachFromCPU(t *Task) {
	if t.CurrentCPU != NoCPU {
		s.cpus[t.CurrentCPU].CurrentTask = nil
		t.CurrentCPU = NoCPU
	}
}

// TickResult is one tick's per-CPU assignment plus optional metadata
// (§6, outbound SchedulerTick).
type TickResult struct {
	Vtime    int64
	Schedule []string
	Meta     *TickMeta
}

// TickMeta carries the counters and task-state snapshots described in
// §4.5 phase 8.
type TickMeta struct {
	Preemptions   int
	Migrations    int
	RunnableTasks []string
	BlockedTasks  []string
}

// IdleTaskID is the sentinel schedule entry for a CPU with nothing to run.
const IdleTaskID = "idle"

// Tick runs one full scheduling decision cycle at vtime (§4.5):
// refreshing group periods, charging the previous running set, rebuilding
// the runnable heap, selecting per-CPU assignments under affinity/mask/
// quota constraints, and producing metadata.
func (s *Scheduler) Tick(vtime int64) *TickResult {
	s.currentVtime = vtime
	s.preemptions = 0
	s.migrations = 0

	s.refreshGroupPeriods(vtime)

	previous := make([]*Task, len(s.cpus))
	for i := range s.cpus {
		cur := s.cpus[i].CurrentTask
		previous[i] = cur
		if cur != nil && cur.State == Running {
			s.chargeRunningTask(cur)
			cur.State = Runnable
		}
		s.cpus[i].CurrentTask = nil
	}

	s.rebuildHeap()

	planned := make(map[string]float64, len(s.groups))
	tickRuntimeUs := float64(s.quanta) * 1000.0
	if tickRuntimeUs < 0 {
		tickRuntimeUs = 0
	}

	schedule := make([]string, len(s.cpus))
	assigned := make(map[string]bool, len(s.tasks))
	for cpu := range s.cpus {
		best := s.pickForCPU(cpu, planned, tickRuntimeUs)
		if best == nil {
			schedule[cpu] = IdleTaskID
			continue
		}
		assigned[best.ID] = true

		prev := previous[cpu]
		if prev != nil && prev != best {
			s.preemptions++
		}
		if best.CurrentCPU != NoCPU && best.CurrentCPU != cpu {
			s.migrations++
		}

		best.State = Running
		best.CurrentCPU = cpu
		s.cpus[cpu].CurrentTask = best
		schedule[cpu] = best.ID
	}

	for _, t := range s.tasks {
		if !assigned[t.ID] && t.State == Runnable {
			t.CurrentCPU = NoCPU
		}
	}

	return &TickResult{
		Vtime:    vtime,
		Schedule: schedule,
		Meta:     s.buildMeta(),
	}
}

// refreshGroupPeriods resets any group whose accounting window has
// elapsed, or whose period_start_vtime is ahead of vtime (a clock that
// moved backward re-anchors immediately), per §4.5 phase 2.
func (s *Scheduler) refreshGroupPeriods(vtime int64) {
	tickUs := s.quanta * 1000
	if tickUs <= 0 {
		tickUs = 1000
	}
	for _, g := range s.groups {
		if g.PeriodUs <= 0 {
			continue
		}
		if vtime < g.PeriodStartVtime {
			g.ResetPeriod(vtime)
			continue
		}
		elapsedUs := (vtime - g.PeriodStartVtime) * tickUs
		if elapsedUs >= g.PeriodUs {
			g.ResetPeriod(vtime)
		}
	}
}

// chargeRunningTask advances vruntime (unless bursting), accounts
// quanta*1000us to the task's group, and counts down a burst window
// (§4.5 phase 3).
func (s *Scheduler) chargeRunningTask(t *Task) {
	if !t.Burst {
		w := s.effectiveWeight(t)
		t.Vruntime += calcVruntimeDelta(float64(s.quanta), w)
	}

	if g := s.FindGroup(t.GroupID); g != nil {
		g.AccountRuntime(float64(s.quanta) * 1000.0)
	}

	if t.Burst && t.BurstLeft > 0 {
		t.BurstLeft--
		if t.BurstLeft == 0 {
			t.Burst = false
		}
	}
}

// rebuildHeap clears and reinserts every RUNNABLE task, correct because
// charging in phase 3 may have moved vruntimes (§4.5 phase 4).
func (s *Scheduler) rebuildHeap() {
	s.heap.Clear()
	for _, t := range s.tasks {
		if t.State == Runnable {
			s.heap.Insert(t)
		}
	}
}

// pickForCPU implements the constrained top-of-heap selection of §4.5:
// pop candidates until one is eligible for this CPU (affinity, group
// mask, and group quota including this tick's already-planned budget),
// commit its planned usage, and reinsert everything deferred.
func (s *Scheduler) pickForCPU(cpu int, planned map[string]float64, tickRuntimeUs float64) *Task {
	var deferred []*Task
	var selected *Task

	for !s.heap.IsEmpty() {
		cand := s.heap.ExtractMin()
		if cand == nil {
			break
		}

		if !s.canRunOnCPU(cand, cpu) {
			deferred = append(deferred, cand)
			continue
		}

		g := s.FindGroup(cand.GroupID)
		if g != nil && g.QuotaUs >= 0 {
			if !g.HasQuota() {
				deferred = append(deferred, cand)
				continue
			}
			projected := g.QuotaUsed + planned[g.ID] + tickRuntimeUs
			if projected > float64(g.QuotaUs) {
				deferred = append(deferred, cand)
				continue
			}
		}

		selected = cand
		break
	}

	for _, t := range deferred {
		s.heap.Insert(t)
	}

	if selected != nil {
		if g := s.FindGroup(selected.GroupID); g != nil && g.QuotaUs >= 0 {
			planned[g.ID] += tickRuntimeUs
		}
	}
	return selected
}

func (s *Scheduler) buildMeta() *TickMeta {
	meta := &TickMeta{
		Preemptions: s.preemptions,
		Migrations:  s.migrations,
	}
	for _, t := range s.tasks {
		switch t.State {
		case Runnable, Running:
			meta.RunnableTasks = append(meta.RunnableTasks, t.ID)
		case Blocked:
			meta.BlockedTasks = append(meta.BlockedTasks, t.ID)
		}
	}
	return meta
}
