package history

import "time"

// TimeRange is a relative lookback period.
type TimeRange string

const (
	RangeAll   TimeRange = "all"
	RangeDay   TimeRange = "day"
	RangeWeek  TimeRange = "week"
	RangeMonth TimeRange = "month"
)

const day = 24 * time.Hour

// Window returns the lookback duration. ok is false for RangeAll. Unknown and
// empty values fall back to a week.
func (r TimeRange) Window() (d time.Duration, ok bool) {
	switch r {
	case RangeAll:
		return 0, false
	case RangeDay:
		return day, true
	case RangeMonth:
		return 30 * day, true
	default:
		return 7 * day, true
	}
}

// Cutoff returns the oldest timestamp kept relative to now.
func (r TimeRange) Cutoff(now time.Time) (time.Time, bool) {
	d, ok := r.Window()
	if !ok {
		return time.Time{}, false
	}
	return now.Add(-d), true
}
