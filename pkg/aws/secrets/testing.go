package secrets

import (
	"context"

	"github.com/stretchr/testify/mock"
)

const (
	ConnectMethod   = "Connect"
	GetSecretMethod = "GetSecret"
)

// Ensure MockClient implements ClientIFace
var _ ClientIFace = (*MockClient)(nil)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) Connect() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockClient) GetSecret(ctx context.Context, secretId string) (string, error) {
	args := m.Called(ctx, secretId)
	return args.String(0), args.Error(1)
}
