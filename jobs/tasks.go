// Package jobs hosts the asynq worker, its task definitions, and the
// HTTP surface for queue observability.
package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskRenewalSweep archives organizations whose recognition lapsed.
	TaskRenewalSweep = "organizations:renewal_sweep"
	// TaskTabWarmup primes the cached record sets behind the listing tabs.
	TaskTabWarmup = "tabs:warmup"
)

// RenewalSweepPayload parameterises one sweep run.
type RenewalSweepPayload struct {
	// Validity is how long a renewal stays valid before the sweep
	// archives the organization.
	Validity time.Duration `json:"validity"`
}

// NewRenewalSweepTask constructs the sweep task.
func NewRenewalSweepTask(validity time.Duration) (*asynq.Task, error) {
	body, err := json.Marshal(RenewalSweepPayload{Validity: validity})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRenewalSweep, body, asynq.Queue(QueueDefault)), nil
}

// TabWarmupPayload selects which tabs to warm. Empty means all.
type TabWarmupPayload struct {
	Tabs []string `json:"tabs,omitempty"`
}

// NewTabWarmupTask constructs the warmup task.
func NewTabWarmupTask(tabs []string) (*asynq.Task, error) {
	body, err := json.Marshal(TabWarmupPayload{Tabs: tabs})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTabWarmup, body, asynq.Queue(QueueDefault)), nil
}
