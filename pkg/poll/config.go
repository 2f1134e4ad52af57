package poll

import "time"

// PollerConfig holds the schedule of one registered fetch function
type PollerConfig struct {
	PollIntervalSeconds int
	// Immediate runs the function once right after Start
	Immediate bool
}

func (c PollerConfig) interval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}
