package mocks

import (
	"github.com/stretchr/testify/mock"
	"github.com/uber/aquarium-go/events"
)

// EventListener is a mock type for the events.EventListener type
type EventListener struct {
	mock.Mock
}

// HandleEvent provides a mock function with given fields: event
func (_m *EventListener) HandleEvent(event events.Event) {
	_m.Called(event)
}
