package mocks

import (
	"context"

	"chatfic/internal/service"

	"github.com/stretchr/testify/mock"
)

// MockConfirmer is a mock type for the service.Confirmer type
type MockConfirmer struct {
	mock.Mock
}

// Confirm provides a mock function with given fields: ctx, prompt
func (_m *MockConfirmer) Confirm(ctx context.Context, prompt string) bool {
	ret := _m.Called(ctx, prompt)

	var r0 bool
	if rf, ok := ret.Get(0).(func(context.Context, string) bool); ok {
		r0 = rf(ctx, prompt)
	} else {
		r0 = ret.Bool(0)
	}

	return r0
}

// NewMockConfirmer creates a new instance of MockConfirmer. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockConfirmer(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockConfirmer {
	m := &MockConfirmer{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

var _ service.Confirmer = (*MockConfirmer)(nil)
