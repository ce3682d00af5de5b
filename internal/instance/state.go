// Package instance mocks deployed runtime units of subscribed models.
package instance

import (
	"errors"
	"fmt"

	"github.com/modelhub/portal/internal/model"
)

// Actions.
const (
	ActionStart   = "start"
	ActionStop    = "stop"
	ActionRestart = "restart"
)

var (
	// ErrInvalidTransition is returned when an action does not apply to the current status.
	ErrInvalidTransition = errors.New("invalid instance transition")
	// ErrUnknownAction is returned for an action other than start, stop or restart.
	ErrUnknownAction = errors.New("unknown instance action")
)

// Next returns the status an instance ends up in after action.
// Restart passes through restarting and settles on running.
func Next(current model.InstanceStatus, action string) (model.InstanceStatus, error) {
	switch action {
	case ActionStart:
		if current == model.InstanceStopped {
			return model.InstanceRunning, nil
		}
	case ActionStop:
		if current == model.InstanceRunning {
			return model.InstanceStopped, nil
		}
	case ActionRestart:
		if current == model.InstanceRunning {
			return model.InstanceRunning, nil
		}
	default:
		return current, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	return current, fmt.Errorf("%w: cannot %s a %s instance", ErrInvalidTransition, action, current)
}
