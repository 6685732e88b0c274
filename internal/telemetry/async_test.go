package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type mockEventEmitter struct {
	mu      sync.Mutex
	events  []*AuthEvent
	emitErr error
	ctxErr  error
}

func (m *mockEventEmitter) Emit(ctx context.Context, event *AuthEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	m.ctxErr = ctx.Err()
	return m.emitErr
}

func (m *mockEventEmitter) getEvents() []*AuthEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*AuthEvent(nil), m.events...)
}

func waitForEvents(t *testing.T, m *mockEventEmitter, n int) []*AuthEvent {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if ev := m.getEvents(); len(ev) >= n {
			return ev
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d events", n)
	return nil
}

func TestEmitAsync_NilEmitterOrEvent(t *testing.T) {
	EmitAsync(context.Background(), nil, &AuthEvent{EventType: EventLogin})
	m := &mockEventEmitter{}
	EmitAsync(context.Background(), m, nil)
	time.Sleep(20 * time.Millisecond)
	if len(m.getEvents()) != 0 {
		t.Error("nil event must not be emitted")
	}
}

func TestEmitAsync_SurvivesRequestCancel(t *testing.T) {
	m := &mockEventEmitter{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	EmitAsync(ctx, m, &AuthEvent{EventType: EventLogin, Outcome: OutcomeSuccess})
	events := waitForEvents(t, m, 1)
	if events[0].EventType != EventLogin {
		t.Errorf("event type = %q", events[0].EventType)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ctxErr != nil {
		t.Errorf("emit context should not inherit request cancellation, got %v", m.ctxErr)
	}
}

func TestEmitAsync_ErrorIsSwallowed(t *testing.T) {
	m := &mockEventEmitter{emitErr: errors.New("kafka down")}
	EmitAsync(context.Background(), m, &AuthEvent{EventType: EventRefresh})
	waitForEvents(t, m, 1)
}

func TestMultiEmitter(t *testing.T) {
	a := &mockEventEmitter{emitErr: errors.New("a failed")}
	b := &mockEventEmitter{}
	err := MultiEmitter{a, nil, b}.Emit(context.Background(), &AuthEvent{EventType: EventSignup})
	if err == nil {
		t.Error("MultiEmitter should report the failing emitter")
	}
	if len(a.getEvents()) != 1 || len(b.getEvents()) != 1 {
		t.Error("every emitter must receive the event even after a failure")
	}
}
