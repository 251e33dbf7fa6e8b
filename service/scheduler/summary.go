package scheduler

import "time"

// Summary describes the distribution of item durations.
type Summary struct {
	Count int64
	Mean  time.Duration
	P50   time.Duration
	P90   time.Duration
	P99   time.Duration
	Max   time.Duration
}

// Summary returns duration percentiles of the finished items.
func (s *Service) Summary() Summary {
	if s.histogram == nil || s.histogram.TotalCount() == 0 {
		return Summary{}
	}
	h := s.histogram
	return Summary{
		Count: h.TotalCount(),
		Mean:  time.Duration(h.Mean()) * time.Microsecond,
		P50:   time.Duration(h.ValueAtQuantile(50)) * time.Microsecond,
		P90:   time.Duration(h.ValueAtQuantile(90)) * time.Microsecond,
		P99:   time.Duration(h.ValueAtQuantile(99)) * time.Microsecond,
		Max:   time.Duration(h.Max()) * time.Microsecond,
	}
}
