package tasks

import (
	"time"

	"github.com/hibiken/asynq"
)

// TypeListingSweep is the asynq task type for an expiration sweep pass.
const TypeListingSweep = "listing:sweep"

// NewSweepTask builds a sweep task. The uniqueness window spans the sweep
// interval so an overlapping enqueue (or a second process) cannot queue a
// duplicate sweep.
func NewSweepTask(interval time.Duration) (*asynq.Task, []asynq.Option) {
	task := asynq.NewTask(TypeListingSweep, nil)
	opts := []asynq.Option{
		asynq.Unique(interval),
		asynq.MaxRetry(3),
	}
	return task, opts
}
