package mocks

import (
	"github.com/stretchr/testify/mock"
	"github.com/uber/aquarium-go/tank"
)

// StateStorage is a mock type for the tank.StateStorage type
type StateStorage struct {
	mock.Mock
}

// Scan provides a mock function with given fields: filter, visit
func (_m *StateStorage) Scan(filter tank.StateFilter, visit func(tank.StateRow) bool) (bool, error) {
	ret := _m.Called(filter, visit)

	var r0 bool
	if rf, ok := ret.Get(0).(func(tank.StateFilter, func(tank.StateRow) bool) bool); ok {
		r0 = rf(filter, visit)
	} else {
		r0 = ret.Get(0).(bool)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(tank.StateFilter, func(tank.StateRow) bool) error); ok {
		r1 = rf(filter, visit)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Update provides a mock function with given fields: updates
func (_m *StateStorage) Update(updates func(tank.SetState) (bool, error)) (bool, error) {
	ret := _m.Called(updates)

	var r0 bool
	if rf, ok := ret.Get(0).(func(func(tank.SetState) (bool, error)) bool); ok {
		r0 = rf(updates)
	} else {
		r0 = ret.Get(0).(bool)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(func(tank.SetState) (bool, error)) error); ok {
		r1 = rf(updates)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}
