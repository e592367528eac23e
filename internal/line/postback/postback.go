package postback

import (
	"net/url"
	"strconv"

	customerrors "game-line/pkg/errors"
)

const (
	KeyAction        = "action"
	KeyCommandType   = "commandType"
	KeyRoomSessionId = "roomSessionId"
	KeyMemberId      = "memberId"
	KeyTurn          = "turn"
	KeyFormId        = "formId"
	KeyArg           = "arg"

	ActionTurn = "turn_action"
)

// Command is a decoded postback payload. Values are kept as strings.
type Command map[string]string

// Parse decodes flat query-string postback data. Duplicate keys keep the last value.
func Parse(raw string) (Command, error) {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, customerrors.MalformedPostbackErr{Data: raw, Reason: err.Error()}
	}

	cmd := make(Command, len(values))
	for key, vals := range values {
		cmd[key] = vals[len(vals)-1]
	}

	if cmd[KeyAction] == "" {
		return nil, customerrors.MalformedPostbackErr{Data: raw, Reason: "missing action"}
	}
	return cmd, nil
}

func (c Command) Action() string {
	return c[KeyAction]
}

func (c Command) Get(key string) (string, bool) {
	val, ok := c[key]
	return val, ok
}

// Missing returns the keys that are absent or empty.
func (c Command) Missing(keys ...string) []string {
	var missing []string
	for _, key := range keys {
		if c[key] == "" {
			missing = append(missing, key)
		}
	}
	return missing
}

func (c Command) Int(key string) (int, error) {
	return strconv.Atoi(c[key])
}
