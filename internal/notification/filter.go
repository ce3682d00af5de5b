package notification

import (
	"errors"
	"fmt"

	"github.com/modelhub/portal/internal/model"
)

// Status filter values.
const (
	StatusAll    = "all"
	StatusRead   = "read"
	StatusUnread = "unread"
)

// ErrInvalidFilter is returned for unknown status or type filters.
var ErrInvalidFilter = errors.New("invalid notification filter")

// Filter narrows a notification list.
type Filter struct {
	Status string
	Type   model.NotificationType // empty matches every type
}

// ParseFilter validates raw query values. Empty status means all.
func ParseFilter(status, typ string) (Filter, error) {
	if status == "" {
		status = StatusAll
	}
	switch status {
	case StatusAll, StatusRead, StatusUnread:
	default:
		return Filter{}, fmt.Errorf("%w: status %q", ErrInvalidFilter, status)
	}

	t := model.NotificationType(typ)
	if typ != "" && typ != StatusAll && !model.IsValidNotificationType(t) {
		return Filter{}, fmt.Errorf("%w: type %q", ErrInvalidFilter, typ)
	}
	if typ == StatusAll {
		t = ""
	}

	return Filter{Status: status, Type: t}, nil
}

// Match reports whether n passes the filter.
func (f Filter) Match(n model.Notification) bool {
	switch f.Status {
	case StatusRead:
		if !n.Read {
			return false
		}
	case StatusUnread:
		if n.Read {
			return false
		}
	}
	return f.Type == "" || n.Type == f.Type
}

// Apply returns the matching items in their original order.
func (f Filter) Apply(items []model.Notification) []model.Notification {
	out := make([]model.Notification, 0, len(items))
	for _, n := range items {
		if f.Match(n) {
			out = append(out, n)
		}
	}
	return out
}
