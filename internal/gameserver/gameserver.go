package gameserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	customerrors "game-line/pkg/errors"
)

const serviceName = "game-server"

// Ensure Client implements ClientIFace
var _ ClientIFace = (*Client)(nil)

type ClientIFace interface {
	RegisterUser(ctx context.Context, userId, displayName string) error
	GetUserStatus(ctx context.Context, userId string) (*UserStatus, error)
	InvalidateUser(ctx context.Context, userId string) error
	JoinRoom(ctx context.Context, roomCode, userId string) error
	SubmitCommand(ctx context.Context, roomSessionId string, req CommandRequest) (*CommandResult, error)
}

type UserStatus struct {
	UserId          string `json:"userId"`
	IsParticipating bool   `json:"isParticipating"`
	InvalidateFlg   bool   `json:"invalidateFlg"`
}

type CommandRequest struct {
	FormId   string    `json:"formId"`
	Turn     int       `json:"turn"`
	Commands []Command `json:"commands"`
}

type Command struct {
	CommandType string `json:"commandType"`
	MemberId    int    `json:"memberId"`
	Arg         string `json:"arg"`
}

type CommandResult struct {
	RoomSessionId int  `json:"roomSessionId"`
	CommandsCount int  `json:"commandsCount"`
	IsValid       bool `json:"isValid"`
}

type registerRequest struct {
	UserId      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type joinRequest struct {
	UserId string `json:"userId"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) RegisterUser(ctx context.Context, userId, displayName string) error {
	req := registerRequest{UserId: userId, DisplayName: displayName}
	return c.do(ctx, http.MethodPost, "/api/users", req, nil)
}

func (c *Client) GetUserStatus(ctx context.Context, userId string) (*UserStatus, error) {
	var status UserStatus
	path := fmt.Sprintf("/api/users/%s/status", url.PathEscape(userId))
	if err := c.do(ctx, http.MethodGet, path, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) InvalidateUser(ctx context.Context, userId string) error {
	path := fmt.Sprintf("/api/users/%s/invalidate", url.PathEscape(userId))
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

func (c *Client) JoinRoom(ctx context.Context, roomCode, userId string) error {
	path := fmt.Sprintf("/api/rooms/%s/members", url.PathEscape(roomCode))
	return c.do(ctx, http.MethodPost, path, joinRequest{UserId: userId}, nil)
}

func (c *Client) SubmitCommand(ctx context.Context, roomSessionId string, req CommandRequest) (*CommandResult, error) {
	var result CommandResult
	path := fmt.Sprintf("/api/sessions/%s/commands", url.PathEscape(roomSessionId))
	if err := c.do(ctx, http.MethodPost, path, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// do issues a single JSON request. Every failure comes back as an UpstreamError.
func (c *Client) do(ctx context.Context, method, path string, reqBody any, out any) error {
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return &customerrors.UpstreamError{Service: serviceName, Err: err}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &customerrors.UpstreamError{Service: serviceName, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	rsp, err := c.httpClient.Do(req)
	if err != nil {
		return &customerrors.UpstreamError{Service: serviceName, Err: err}
	}
	defer rsp.Body.Close()

	rspBody, err := io.ReadAll(rsp.Body)
	if err != nil {
		return &customerrors.UpstreamError{Service: serviceName, Err: err}
	}

	if rsp.StatusCode < 200 || rsp.StatusCode > 299 {
		return customerrors.NewUpstreamError(serviceName, rsp.StatusCode, rspBody)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(rspBody, out); err != nil {
		return &customerrors.UpstreamError{Service: serviceName, Err: fmt.Errorf("could not decode response: %w", err)}
	}
	return nil
}
