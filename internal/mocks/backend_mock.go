package mocks

import (
	"context"

	"chatfic/internal/generation"

	"github.com/stretchr/testify/mock"
)

// MockBackend is a mock type for the generation.Backend type
type MockBackend struct {
	mock.Mock
}

// GenerateContent provides a mock function with given fields: ctx, req
func (_m *MockBackend) GenerateContent(ctx context.Context, req generation.Request) (generation.Response, error) {
	ret := _m.Called(ctx, req)

	var r0 generation.Response
	if rf, ok := ret.Get(0).(func(context.Context, generation.Request) generation.Response); ok {
		r0 = rf(ctx, req)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(generation.Response)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, generation.Request) error); ok {
		r1 = rf(ctx, req)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Name provides a mock function with given fields:
func (_m *MockBackend) Name() string {
	ret := _m.Called()

	var r0 string
	if rf, ok := ret.Get(0).(func() string); ok {
		r0 = rf()
	} else {
		r0 = ret.String(0)
	}

	return r0
}

// NewMockBackend creates a new instance of MockBackend. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockBackend(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockBackend {
	m := &MockBackend{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

var _ generation.Backend = (*MockBackend)(nil)
