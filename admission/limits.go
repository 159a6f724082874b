package admission

import (
	"errors"
	"time"
)

// Limits configures the admission gate windows and thresholds.
type Limits struct {
	// MaxRequestsPerWindow is the number of submissions admitted per RequestWindow.
	MaxRequestsPerWindow int
	RequestWindow        time.Duration

	// MaxErrors validation failures within ErrorWindow block the client for BlockDuration.
	MaxErrors     int
	ErrorWindow   time.Duration
	BlockDuration time.Duration
}

func DefaultLimits() Limits {
	return Limits{
		MaxRequestsPerWindow: 10,
		RequestWindow:        60 * time.Second,
		MaxErrors:            5,
		ErrorWindow:          time.Hour,
		BlockDuration:        24 * time.Hour,
	}
}

func (l Limits) Validate() error {
	if l.MaxRequestsPerWindow <= 0 {
		return errors.New("max requests per window must be positive")
	}
	if l.MaxErrors <= 0 {
		return errors.New("max errors must be positive")
	}
	if l.RequestWindow < time.Second || l.ErrorWindow < time.Second || l.BlockDuration < time.Second {
		return errors.New("windows and block duration must be at least one second")
	}
	return nil
}
