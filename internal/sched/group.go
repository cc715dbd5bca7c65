package sched

const (
	// DefaultShares is the weight multiplier applied to member tasks when
	// a group does not specify shares explicitly (§3).
	DefaultShares = 1024

	// DefaultPeriodUs is the accounting window applied when a group does
	// not specify a period explicitly (§3).
	DefaultPeriodUs = 100000

	// UnlimitedQuota is the quotaUs sentinel meaning "never throttle".
	UnlimitedQuota = -1

	// KeepQuota is the CGROUP_MODIFY sentinel meaning "leave quota as is".
	KeepQuota = -2
)

// Group is a resource-control entity: a cgroup-like aggregation of tasks
// sharing CPU weight, quota/period throttling, and an allowed-CPU mask
// (§3, §4.3).
type Group struct {
	ID       string
	Shares   int64
	QuotaUs  int64 // -1 == unlimited
	PeriodUs int64

	cpuMask map[int]struct{} // empty/nil means "any CPU"

	QuotaUsed        float64 // microseconds consumed in the current period
	PeriodStartVtime int64
}

// NewGroup applies the defaults described in §4.3: non-positive shares or
// period fall back to their defaults; quotaUs is preserved verbatim
// (including the -1 "unlimited" sentinel).
func NewGroup(id string, shares, quotaUs, periodUs int64, mask []int) *Group {
	g := &Group{
		ID:       id,
		Shares:   shares,
		QuotaUs:  quotaUs,
		PeriodUs: periodUs,
	}
	if g.Shares <= 0 {
		g.Shares = DefaultShares
	}
	if g.PeriodUs <= 0 {
		g.PeriodUs = DefaultPeriodUs
	}
	g.SetMask(mask)
	return g
}

// SetMask replaces the group's allowed-CPU set. An empty mask means "any
// CPU".
func (g *Group) SetMask(mask []int) {
	if len(mask) == 0 {
		g.cpuMask = nil
		return
	}
	g.cpuMask = make(map[int]struct{}, len(mask))
	for _, c := range mask {
		g.cpuMask[c] = struct{}{}
	}
}

// Mask returns the group's CPU mask, or nil if unrestricted.
func (g *Group) Mask() []int {
	if len(g.cpuMask) == 0 {
		return nil
	}
	out := make([]int, 0, len(g.cpuMask))
	for c := range g.cpuMask {
		out = append(out, c)
	}
	return out
}

// Modify applies sentinel-guarded updates per §4.3:
//
//	shares <= 0            -> keep
//	quotaUs == KeepQuota    -> keep
//	quotaUs == UnlimitedQuota or >= 0 -> set
//	periodUs <= 0           -> keep
//	maskSet == false        -> keep (a nil mask with maskSet clears it)
func (g *Group) Modify(shares, quotaUs, periodUs int64, mask []int, maskSet bool) {
	if shares > 0 {
		g.Shares = shares
	}
	if quotaUs >= UnlimitedQuota {
		g.QuotaUs = quotaUs
	}
	if periodUs > 0 {
		g.PeriodUs = periodUs
	}
	if maskSet {
		g.SetMask(mask)
	}
}

// HasQuota reports whether the group may still dispatch: unlimited quota
// always allows it, otherwise quotaUsed must be strictly under quotaUs.
func (g *Group) HasQuota() bool {
	if g.QuotaUs < 0 {
		return true
	}
	return g.QuotaUsed < float64(g.QuotaUs)
}

// AccountRuntime adds rUs microseconds of consumed runtime when the group
// has a finite quota.
func (g *Group) AccountRuntime(rUs float64) {
	if g.QuotaUs >= 0 && rUs > 0 {
		g.QuotaUsed += rUs
	}
}

// ResetPeriod zeros quota usage and anchors a new accounting period at vt.
func (g *Group) ResetPeriod(vt int64) {
	g.QuotaUsed = 0
	g.PeriodStartVtime = vt
}

// AllowsCPU reports whether the group's mask permits CPU c; an empty mask
// permits every CPU.
func (g *Group) AllowsCPU(c int) bool {
	if len(g.cpuMask) == 0 {
		return true
	}
	_, ok := g.cpuMask[c]
	return ok
}
