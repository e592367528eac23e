package gameserver

import (
	"context"

	"github.com/stretchr/testify/mock"
)

const (
	RegisterUserMethod   = "RegisterUser"
	GetUserStatusMethod  = "GetUserStatus"
	InvalidateUserMethod = "InvalidateUser"
	JoinRoomMethod       = "JoinRoom"
	SubmitCommandMethod  = "SubmitCommand"
)

// Ensure MockClient implements ClientIFace
var _ ClientIFace = (*MockClient)(nil)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) RegisterUser(ctx context.Context, userId, displayName string) error {
	args := m.Called(ctx, userId, displayName)
	return args.Error(0)
}

func (m *MockClient) GetUserStatus(ctx context.Context, userId string) (*UserStatus, error) {
	args := m.Called(ctx, userId)
	if status := args.Get(0); status != nil {
		return status.(*UserStatus), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClient) InvalidateUser(ctx context.Context, userId string) error {
	args := m.Called(ctx, userId)
	return args.Error(0)
}

func (m *MockClient) JoinRoom(ctx context.Context, roomCode, userId string) error {
	args := m.Called(ctx, roomCode, userId)
	return args.Error(0)
}

func (m *MockClient) SubmitCommand(ctx context.Context, roomSessionId string, req CommandRequest) (*CommandResult, error) {
	args := m.Called(ctx, roomSessionId, req)
	if result := args.Get(0); result != nil {
		return result.(*CommandResult), args.Error(1)
	}
	return nil, args.Error(1)
}
