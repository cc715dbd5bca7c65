package types

import "fmt"

// Micros is a microsecond duration, used for group quota/period values so
// log lines can render them with an automatic unit the way §3's
// quota_us/period_us fields are meant to be read.
type Micros int64

// Humanized returns a human-readable string with automatic unit (us, ms, s).
func (m Micros) Humanized() string {
	v := int64(m)
	switch {
	case v < 0:
		return "unlimited"
	case v >= 1_000_000:
		return fmt.Sprintf("%.2fs", float64(v)/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("%.2fms", float64(v)/1_000)
	default:
		return fmt.Sprintf("%dus", v)
	}
}

// Milliseconds returns the value as fractional milliseconds.
func (m Micros) Milliseconds() float64 { return float64(m) / 1_000 }

// Seconds returns the value as fractional seconds.
func (m Micros) Seconds() float64 { return float64(m) / 1_000_000 }
