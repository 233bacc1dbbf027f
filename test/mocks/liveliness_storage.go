package mocks

import (
	"github.com/stretchr/testify/mock"
	"github.com/uber/aquarium-go/tank"
)

// LivelinessStorage is a mock type for the tank.LivelinessStorage type
type LivelinessStorage struct {
	mock.Mock
}

// Scan provides a mock function with given fields: root, acker, visit
func (_m *LivelinessStorage) Scan(root tank.Member, acker tank.Member, visit func(tank.LivelinessRow) bool) (bool, error) {
	ret := _m.Called(root, acker, visit)

	var r0 bool
	if rf, ok := ret.Get(0).(func(tank.Member, tank.Member, func(tank.LivelinessRow) bool) bool); ok {
		r0 = rf(root, acker, visit)
	} else {
		r0 = ret.Get(0).(bool)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(tank.Member, tank.Member, func(tank.LivelinessRow) bool) error); ok {
		r1 = rf(root, acker, visit)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Update provides a mock function with given fields: updates
func (_m *LivelinessStorage) Update(updates func(tank.SetLiveliness) (bool, error)) (bool, error) {
	ret := _m.Called(updates)

	var r0 bool
	if rf, ok := ret.Get(0).(func(func(tank.SetLiveliness) (bool, error)) bool); ok {
		r0 = rf(updates)
	} else {
		r0 = ret.Get(0).(bool)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(func(tank.SetLiveliness) (bool, error)) error); ok {
		r1 = rf(updates)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Get provides a mock function with given fields: root, acker
func (_m *LivelinessStorage) Get(root tank.Member, acker tank.Member) (int64, error) {
	ret := _m.Called(root, acker)

	var r0 int64
	if rf, ok := ret.Get(0).(func(tank.Member, tank.Member) int64); ok {
		r0 = rf(root, acker)
	} else {
		r0 = ret.Get(0).(int64)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(tank.Member, tank.Member) error); ok {
		r1 = rf(root, acker)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}
