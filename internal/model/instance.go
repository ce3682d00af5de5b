package model

import "time"

// InstanceStatus is the state of a mocked deployed runtime unit.
type InstanceStatus string

const (
	InstanceRunning    InstanceStatus = "running"
	InstanceStopped    InstanceStatus = "stopped"
	InstanceRestarting InstanceStatus = "restarting"
)

// Instance is a mocked deployment of a subscribed model.
type Instance struct {
	ID             string         `json:"id"`
	SubscriptionID string         `json:"subscription_id"`
	ModelID        string         `json:"model_id"`
	Name           string         `json:"name"`
	Status         InstanceStatus `json:"status"`
	Region         string         `json:"region"`
	StartedAt      *time.Time     `json:"started_at,omitempty"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Uptime returns how long the instance has been running.
func (i *Instance) Uptime(now time.Time) time.Duration {
	if i.Status != InstanceRunning || i.StartedAt == nil {
		return 0
	}
	return now.Sub(*i.StartedAt)
}
