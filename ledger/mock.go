package ledger

import (
	"context"

	"github.com/ruteri/dolphins-ledger-bridge/interfaces"
	"github.com/stretchr/testify/mock"
)

// MockConnector mocks the Connector interface
type MockConnector struct {
	mock.Mock
}

// Connect mocks the Connect method
func (m *MockConnector) Connect(ctx context.Context, cred *interfaces.Credential) (interfaces.Gateway, error) {
	args := m.Called(ctx, cred)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(interfaces.Gateway), args.Error(1)
}

// MockGateway mocks the Gateway interface
type MockGateway struct {
	mock.Mock
}

// Network mocks the Network method
func (m *MockGateway) Network(name string) (interfaces.Network, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(interfaces.Network), args.Error(1)
}

// Close mocks the Close method
func (m *MockGateway) Close() {
	m.Called()
}

// MockNetwork mocks the Network interface
type MockNetwork struct {
	mock.Mock
}

// Contract mocks the Contract method
func (m *MockNetwork) Contract(name string) (interfaces.Contract, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(interfaces.Contract), args.Error(1)
}

// MockContract mocks the Contract interface
type MockContract struct {
	mock.Mock
}

// Submit mocks the Submit method
func (m *MockContract) Submit(ctx context.Context, name string, args ...string) ([]byte, error) {
	ret := m.Called(ctx, name, args)
	if ret.Get(0) == nil {
		return nil, ret.Error(1)
	}
	return ret.Get(0).([]byte), ret.Error(1)
}

// Evaluate mocks the Evaluate method
func (m *MockContract) Evaluate(ctx context.Context, name string, args ...string) ([]byte, error) {
	ret := m.Called(ctx, name, args)
	if ret.Get(0) == nil {
		return nil, ret.Error(1)
	}
	return ret.Get(0).([]byte), ret.Error(1)
}
