// Package usage builds the usage statistics view-model: windowed totals,
// period-over-period trends and the mock daily series behind them.
package usage

import (
	"errors"
	"fmt"
)

// Window selects how many trailing days a summary covers.
type Window string

const (
	Window7D  Window = "7d"
	Window30D Window = "30d"
	Window90D Window = "90d"
	WindowAll Window = "all"

	DefaultWindow = Window30D
)

// ErrInvalidWindow is returned for an unknown window value.
var ErrInvalidWindow = errors.New("invalid usage window")

// ParseWindow parses a window query value. Empty selects the default.
func ParseWindow(s string) (Window, error) {
	switch Window(s) {
	case "":
		return DefaultWindow, nil
	case Window7D, Window30D, Window90D, WindowAll:
		return Window(s), nil
	default:
		return "", fmt.Errorf("%w: %q (use 7d, 30d, 90d or all)", ErrInvalidWindow, s)
	}
}

// Days returns the number of trailing days, or 0 for the whole series.
func (w Window) Days() int {
	switch w {
	case Window7D:
		return 7
	case Window30D:
		return 30
	case Window90D:
		return 90
	default:
		return 0
	}
}
