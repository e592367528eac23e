package errors

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrInvalidSignature = errors.New("invalid request signature")
	ErrEmptyBody        = errors.New("request body is empty")
)

type MissingEnvErr struct {
	EnvMap map[string]string
}

func (e MissingEnvErr) Error() string {
	// Get keys of missing environment variables
	missingKeys := make([]string, 0, len(e.EnvMap))
	for key, val := range e.EnvMap {
		if val == "" {
			missingKeys = append(missingKeys, key)
		}
	}
	sort.Strings(missingKeys)

	if len(missingKeys) > 0 {
		allKeys := strings.Join(missingKeys, ", ")
		return fmt.Sprintf("insufficient env variables: [%s]", allKeys)
	}
	return "insufficient env variables"
}

// MalformedPayloadErr is returned when a request body cannot be decoded.
type MalformedPayloadErr struct {
	Err error
}

func (e MalformedPayloadErr) Error() string {
	return fmt.Sprintf("malformed payload: %v", e.Err)
}

func (e MalformedPayloadErr) Unwrap() error {
	return e.Err
}

// MalformedPostbackErr is returned when postback data has no action or cannot be decoded.
type MalformedPostbackErr struct {
	Data   string
	Reason string
}

func (e MalformedPostbackErr) Error() string {
	return fmt.Sprintf("malformed postback [%s]: %s", e.Data, e.Reason)
}

// UpstreamError normalizes every failed outbound call. StatusCode is zero when
// no response was received.
type UpstreamError struct {
	Service    string
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s request failed: %v", e.Service, e.Err)
	}
	return fmt.Sprintf("%s responded with status [%d]: %s", e.Service, e.StatusCode, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NewUpstreamError builds an UpstreamError from a non-success response body.
// A JSON body contributes its "message" field (or the whole document), anything
// else is used as raw text.
func NewUpstreamError(service string, statusCode int, body []byte) *UpstreamError {
	return &UpstreamError{
		Service:    service,
		StatusCode: statusCode,
		Message:    extractMessage(body),
	}
}

func extractMessage(body []byte) string {
	body = bytes.TrimSpace(body)

	var structured any
	if err := json.Unmarshal(body, &structured); err != nil {
		return string(body)
	}
	if obj, ok := structured.(map[string]any); ok {
		if msg, ok := obj["message"].(string); ok && msg != "" {
			return msg
		}
	}

	compact := new(bytes.Buffer)
	if err := json.Compact(compact, body); err != nil {
		return string(body)
	}
	return compact.String()
}

// AsUpstream reports whether err wraps an UpstreamError.
func AsUpstream(err error) (*UpstreamError, bool) {
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		return upErr, true
	}
	return nil, false
}
