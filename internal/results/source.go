package results

import (
	"context"
	"errors"

	"PickTracker/internal/model"
)

// ErrNotAvailable means the event was recognized but has not finished (or
// the provider could not be reached); the pick stays pending and is retried
// on a future run.
var ErrNotAvailable = errors.New("result not available yet")

// ErrNoMatch means no event matching the description was found with
// acceptable confidence. Usually a sign of metadata drift (misspelled team,
// wrong date); surfaced as a warning, never as a fatal error.
var ErrNoMatch = errors.New("no matching event found")

// Source resolves a pick's event description to a final outcome.
type Source interface {
	// Lookup returns the completed outcome for the event, ErrNotAvailable
	// if it has not finished, or ErrNoMatch if it cannot be located.
	Lookup(ctx context.Context, sport string, event model.EventDetails) (*model.Outcome, error)
}

// MockSource returns scripted outcomes for development and testing.
type MockSource struct {
	Outcomes map[string]*model.Outcome
	Errs     map[string]error
	Calls    int
}

// NewMockSource creates an empty scripted source.
func NewMockSource() *MockSource {
	return &MockSource{
		Outcomes: make(map[string]*model.Outcome),
		Errs:     make(map[string]error),
	}
}

func mockKey(event model.EventDetails) string { return event.Game + "|" + event.Date }

// Script registers a completed outcome for an event.
func (m *MockSource) Script(event model.EventDetails, out *model.Outcome) {
	m.Outcomes[mockKey(event)] = out
}

// ScriptErr registers a lookup error for an event.
func (m *MockSource) ScriptErr(event model.EventDetails, err error) {
	m.Errs[mockKey(event)] = err
}

func (m *MockSource) Lookup(_ context.Context, _ string, event model.EventDetails) (*model.Outcome, error) {
	m.Calls++
	key := mockKey(event)
	if err, ok := m.Errs[key]; ok {
		return nil, err
	}
	if out, ok := m.Outcomes[key]; ok {
		return out, nil
	}
	return nil, ErrNoMatch
}
