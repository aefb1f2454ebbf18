package scheduler

import "errors"

var (
	ErrSchedulerNotRunning = errors.New("timer sweeper is not running")
	ErrInvalidConfig       = errors.New("invalid timer sweeper configuration")
)
