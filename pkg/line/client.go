package line

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	customerrors "game-line/pkg/errors"
)

const serviceName = "line"

// Ensure Client implements ClientIFace
var _ ClientIFace = (*Client)(nil)

type ClientIFace interface {
	Reply(ctx context.Context, replyToken string, text string) error
	GetProfile(ctx context.Context, userId string) (*Profile, error)
	Push(ctx context.Context, to string, messages []messaging_api.MessageInterface) error
}

type Profile struct {
	UserId        string `json:"userId"`
	DisplayName   string `json:"displayName"`
	PictureUrl    string `json:"pictureUrl,omitempty"`
	StatusMessage string `json:"statusMessage,omitempty"`
}

type Client struct {
	channelToken string
	opts         []messaging_api.MessagingApiAPIOption
}

// New builds a Messaging API client. An empty endpoint keeps the SDK default.
func New(channelToken string, endpoint string, timeout time.Duration) (*Client, error) {
	opts := []messaging_api.MessagingApiAPIOption{
		messaging_api.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	if endpoint != "" {
		opts = append(opts, messaging_api.WithEndpoint(endpoint))
	}

	// Fail fast on a bad token or endpoint
	if _, err := messaging_api.NewMessagingApiAPI(channelToken, opts...); err != nil {
		return nil, err
	}
	return &Client{channelToken: channelToken, opts: opts}, nil
}

// api returns an SDK client bound to ctx. The SDK keeps the context on the
// client itself, so each call gets its own instance over the shared http.Client.
func (c *Client) api(ctx context.Context) (*messaging_api.MessagingApiAPI, error) {
	api, err := messaging_api.NewMessagingApiAPI(c.channelToken, c.opts...)
	if err != nil {
		return nil, &customerrors.UpstreamError{Service: serviceName, Err: err}
	}
	return api.WithContext(ctx), nil
}

func (c *Client) Reply(ctx context.Context, replyToken string, text string) error {
	api, err := c.api(ctx)
	if err != nil {
		return err
	}

	rsp, _, err := api.ReplyMessageWithHttpInfo(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages:   TextMessages(text),
	})
	return normalizeErr(rsp, err)
}

func (c *Client) GetProfile(ctx context.Context, userId string) (*Profile, error) {
	api, err := c.api(ctx)
	if err != nil {
		return nil, err
	}

	rsp, profile, err := api.GetProfileWithHttpInfo(userId)
	if err != nil {
		return nil, normalizeErr(rsp, err)
	}

	return &Profile{
		UserId:        profile.UserId,
		DisplayName:   profile.DisplayName,
		PictureUrl:    profile.PictureUrl,
		StatusMessage: profile.StatusMessage,
	}, nil
}

func (c *Client) Push(ctx context.Context, to string, messages []messaging_api.MessageInterface) error {
	api, err := c.api(ctx)
	if err != nil {
		return err
	}

	// Retry key lets LINE drop duplicates if the caller resends the same push
	rsp, _, err := api.PushMessageWithHttpInfo(&messaging_api.PushMessageRequest{
		To:       to,
		Messages: messages,
	}, uuid.NewString())
	return normalizeErr(rsp, err)
}

// TextMessages wraps each text in a LINE text message.
func TextMessages(texts ...string) []messaging_api.MessageInterface {
	msgs := make([]messaging_api.MessageInterface, len(texts))
	for i, text := range texts {
		msgs[i] = &messaging_api.TextMessage{Text: text}
	}
	return msgs
}

func normalizeErr(rsp *http.Response, err error) error {
	if err == nil {
		return nil
	}

	// No response, or a 2xx that could not be decoded
	if rsp == nil || rsp.StatusCode/100 == 2 {
		return &customerrors.UpstreamError{Service: serviceName, Err: err}
	}

	var body []byte
	if rsp.Body != nil {
		body, _ = io.ReadAll(rsp.Body)
	}
	upErr := customerrors.NewUpstreamError(serviceName, rsp.StatusCode, body)
	upErr.Err = err
	return upErr
}
