package line

import (
	"context"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/stretchr/testify/mock"
)

const (
	ReplyMethod      = "Reply"
	GetProfileMethod = "GetProfile"
	PushMethod       = "Push"
)

// Ensure MockClient implements ClientIFace
var _ ClientIFace = (*MockClient)(nil)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) Reply(ctx context.Context, replyToken string, text string) error {
	args := m.Called(ctx, replyToken, text)
	return args.Error(0)
}

func (m *MockClient) GetProfile(ctx context.Context, userId string) (*Profile, error) {
	args := m.Called(ctx, userId)
	if profile := args.Get(0); profile != nil {
		return profile.(*Profile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClient) Push(ctx context.Context, to string, messages []messaging_api.MessageInterface) error {
	args := m.Called(ctx, to, messages)
	return args.Error(0)
}
