package postback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	customerrors "game-line/pkg/errors"
)

func Test_Parse(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		expCmd Command
		expErr string
	}{
		{
			name: "Happy path",
			raw:  "action=turn_action&memberId=3&roomSessionId=7",
			expCmd: Command{
				KeyAction:        ActionTurn,
				KeyMemberId:      "3",
				KeyRoomSessionId: "7",
			},
		},
		{
			name:   "Happy path - Duplicate keys keep last value",
			raw:    "action=first&action=turn_action&turn=1&turn=2",
			expCmd: Command{KeyAction: ActionTurn, KeyTurn: "2"},
		},
		{
			name:   "Happy path - URL encoded values",
			raw:    "action=turn_action&arg=hello%20world&formId=a%2Bb",
			expCmd: Command{KeyAction: ActionTurn, KeyArg: "hello world", KeyFormId: "a+b"},
		},
		{
			name:   "Happy path - Empty values are kept",
			raw:    "action=turn_action&arg=",
			expCmd: Command{KeyAction: ActionTurn, KeyArg: ""},
		},
		{
			name:   "Sad path - Missing action",
			raw:    "foo=bar",
			expErr: "missing action",
		},
		{
			name:   "Sad path - Empty action",
			raw:    "action=&foo=bar",
			expErr: "missing action",
		},
		{
			name:   "Sad path - Empty data",
			raw:    "",
			expErr: "missing action",
		},
		{
			name:   "Sad path - Bad escape",
			raw:    "action=turn_action&arg=%zz",
			expErr: "invalid URL escape",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := Parse(tt.raw)

			if tt.expErr == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.expCmd, cmd)
			} else {
				require.Error(t, err)
				assert.ErrorAs(t, err, &customerrors.MalformedPostbackErr{})
				assert.Contains(t, err.Error(), tt.expErr)
				assert.Nil(t, cmd)
			}
		})
	}
}

func Test_Command_Helpers(t *testing.T) {
	cmd, err := Parse("action=turn_action&memberId=3&turn=x&formId=")
	require.NoError(t, err)

	assert.Equal(t, ActionTurn, cmd.Action())

	val, ok := cmd.Get(KeyMemberId)
	assert.True(t, ok)
	assert.Equal(t, "3", val)
	_, ok = cmd.Get(KeyArg)
	assert.False(t, ok)

	assert.Equal(t, []string{KeyFormId, KeyCommandType}, cmd.Missing(KeyMemberId, KeyFormId, KeyCommandType))
	assert.Empty(t, cmd.Missing(KeyAction))

	memberId, err := cmd.Int(KeyMemberId)
	require.NoError(t, err)
	assert.Equal(t, 3, memberId)

	_, err = cmd.Int(KeyTurn)
	assert.Error(t, err)
}
