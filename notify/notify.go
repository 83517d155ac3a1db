// Package notify delivers run summaries to the configured channels.
// Delivery is best effort: callers log failures and move on.
package notify

import (
	"context"
	"errors"
)

// Event is a notification payload.
type Event struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Notifier delivers events.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// Signaler publishes a bare control payload, such as asking the home
// automation side to refresh its drive view.
type Signaler interface {
	Signal(ctx context.Context, payload string) error
}

// DriveUpdated is the signal sent after files were moved or merged.
const DriveUpdated = "update-drive"

// Multi fans out to several notifiers.
type Multi []Notifier

// Notify delivers e to every notifier and joins their errors.
func (m Multi) Notify(ctx context.Context, e Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Signal publishes payload on every member that supports signals.
func (m Multi) Signal(ctx context.Context, payload string) error {
	var errs []error
	for _, n := range m {
		if s, ok := n.(Signaler); ok {
			if err := s.Signal(ctx, payload); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
