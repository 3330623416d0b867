package mocks

import (
	"context"

	"chatfic/internal/domain"
	"chatfic/internal/generation"
	"chatfic/internal/service"

	"github.com/stretchr/testify/mock"
)

// MockGenerator is a mock type for the service.Generator type
type MockGenerator struct {
	mock.Mock
}

// Generate provides a mock function with given fields: ctx, history, model
func (_m *MockGenerator) Generate(ctx context.Context, history []domain.Message, model domain.AIModel) generation.Result {
	ret := _m.Called(ctx, history, model)

	var r0 generation.Result
	if rf, ok := ret.Get(0).(func(context.Context, []domain.Message, domain.AIModel) generation.Result); ok {
		r0 = rf(ctx, history, model)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(generation.Result)
		}
	}

	return r0
}

// GenerateJSON provides a mock function with given fields: ctx, model, prompt
func (_m *MockGenerator) GenerateJSON(ctx context.Context, model domain.AIModel, prompt string) (string, error) {
	ret := _m.Called(ctx, model, prompt)

	var r0 string
	if rf, ok := ret.Get(0).(func(context.Context, domain.AIModel, string) string); ok {
		r0 = rf(ctx, model, prompt)
	} else {
		r0 = ret.String(0)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, domain.AIModel, string) error); ok {
		r1 = rf(ctx, model, prompt)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockGenerator creates a new instance of MockGenerator. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockGenerator(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockGenerator {
	m := &MockGenerator{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

var _ service.Generator = (*MockGenerator)(nil)
