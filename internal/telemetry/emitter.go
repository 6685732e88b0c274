package telemetry

import (
	"context"
	"errors"
)

// EventEmitter emits auth events (e.g. to Kafka or OTel Logs). Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *AuthEvent) error
}

// MultiEmitter fans an event out to every emitter. Emit returns the joined errors.
type MultiEmitter []EventEmitter

// Emit calls Emit on every non-nil emitter, even after a failure.
func (m MultiEmitter) Emit(ctx context.Context, event *AuthEvent) error {
	var errs []error
	for _, e := range m {
		if e == nil {
			continue
		}
		if err := e.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
