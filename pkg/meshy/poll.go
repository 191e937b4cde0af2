package meshy

import (
	"context"
	"fmt"
	"time"
)

// DefaultPollInterval is how often AwaitCompletion checks task status.
const DefaultPollInterval = 5 * time.Second

// ProgressFunc receives task progress updates. It is called only when the
// reported progress differs from the previously observed value.
type ProgressFunc func(progress int, status Status)

// PollOptions configures AwaitCompletion.
type PollOptions struct {
	// Interval between status checks. Zero uses DefaultPollInterval.
	Interval time.Duration

	// Timeout bounds the whole wait. Zero means no timeout. The check
	// runs once per poll cycle, so the effective timeout can overshoot
	// by up to one interval.
	Timeout time.Duration

	// OnProgress is invoked for each distinct progress value observed,
	// in observation order. A repeated value is not re-reported; a
	// value that moved backwards is.
	OnProgress ProgressFunc
}

// AwaitCompletion polls a task until it reaches SUCCEEDED, and returns the
// final snapshot.
//
// FAILED and CANCELED terminate with an *APIError whose message includes
// the task status and, when present, the task's own error message. Each
// poll cycle blocks the calling goroutine for the full interval; the only
// early exits are ctx cancellation and the optional Timeout.
func (c *Client) AwaitCompletion(ctx context.Context, taskID string, opts PollOptions) (*Task, error) {
	const op = "AwaitCompletion"

	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	start := time.Now()
	lastProgress := -1

	for {
		task, err := c.GetTask(ctx, taskID)
		if err != nil {
			return nil, err
		}

		if opts.OnProgress != nil && task.Progress != lastProgress {
			opts.OnProgress(task.Progress, task.Status)
			lastProgress = task.Progress
		}

		switch task.Status {
		case StatusSucceeded:
			return task, nil
		case StatusFailed, StatusCanceled:
			msg := "task failed"
			if task.TaskError != nil && task.TaskError.Message != "" {
				msg = task.TaskError.Message
			}
			return nil, &APIError{
				Op:      op,
				Message: fmt.Sprintf("task %s with status %s: %s", taskID, task.Status, msg),
			}
		}

		if opts.Timeout > 0 && time.Since(start) > opts.Timeout {
			return nil, &APIError{
				Op:      op,
				Message: fmt.Sprintf("task %s timed out after %s", taskID, opts.Timeout),
			}
		}

		select {
		case <-ctx.Done():
			return nil, &APIError{Op: op, Message: "polling canceled", Err: ctx.Err()}
		case <-time.After(interval):
		}
	}
}
