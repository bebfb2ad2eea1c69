// internal/store/mock_test.go
package store

import (
	"context"

	"github.com/avivl/redis-lock/internal/observability"
	"github.com/stretchr/testify/mock"
)

const testStoreName = "mock"

// MockConfig implements StoreConfig
type MockConfig struct {
	Endpoints []string
}

func (c MockConfig) Validate() error        { return nil }
func (c MockConfig) GetEndpoints() []string { return c.Endpoints }

// MockGateway is a testify mock of Gateway.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Execute(ctx context.Context, op Operation, keys []string, args ...any) (Outcome, error) {
	called := m.Called(ctx, op, keys, args)
	return called.Get(0).(Outcome), called.Error(1)
}

func (m *MockGateway) Close() error {
	return m.Called().Error(0)
}

func newMockGateway(_ context.Context, options Config, _ *observability.SLogger) (Gateway, error) {
	if _, ok := options.(*MockConfig); !ok {
		return nil, &InvalidConfigurationError{Store: testStoreName, Config: options}
	}
	return &MockGateway{}, nil
}
