package handler

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"game-line/internal/config"
	"game-line/internal/gameserver"
	"game-line/internal/line/event"
	"game-line/internal/line/postback"
	customerrors "game-line/pkg/errors"
	"game-line/pkg/line"
)

const loggerName = "event-handler"

var roomCodePattern = regexp.MustCompile(`^[0-9]{4}$`)

var turnActionKeys = []string{
	postback.KeyCommandType,
	postback.KeyRoomSessionId,
	postback.KeyMemberId,
	postback.KeyTurn,
	postback.KeyFormId,
}

type Handler struct {
	logger *zap.Logger

	followPolicy config.FollowReplyPolicy

	gameClient gameserver.ClientIFace
	lineClient line.ClientIFace
}

func New(cfg *config.Config, gameClient gameserver.ClientIFace, lineClient line.ClientIFace) *Handler {
	return &Handler{
		logger:       cfg.Logger.Named(loggerName),
		followPolicy: cfg.FollowReplyPolicy,
		gameClient:   gameClient,
		lineClient:   lineClient,
	}
}

// Decision is the outcome of a text message for a given user status.
type Decision struct {
	Reply    string
	RoomCode string
}

// Decide picks the reply for a text message. A four digit message from a user
// who is not participating is a join request and takes priority over
// everything else, including an invalidated account.
func Decide(status *gameserver.UserStatus, text string) Decision {
	if roomCodePattern.MatchString(text) && !status.IsParticipating {
		return Decision{Reply: MessageJoinWaiting, RoomCode: text}
	}
	if status.InvalidateFlg {
		return Decision{Reply: MessageInvalidate}
	}

	switch strings.ToLower(text) {
	case commandHelp, commandHelpJa:
		if status.IsParticipating {
			return Decision{Reply: MessageParticipatingHelp}
		}
		return Decision{Reply: MessageWaitingHelp}
	case commandDebug:
		if status.IsParticipating {
			return Decision{Reply: MessageParticipatingDebug}
		}
		return Decision{Reply: MessageWaitingDebug}
	}
	return Decision{Reply: MessageSorry}
}

func (h *Handler) HandleMessage(ctx context.Context, ev event.InboundEvent) error {
	userId := ev.Source.UserId
	text, isText := ev.TextMessage()
	if !isText || userId == "" || text == "" || ev.ReplyToken == "" {
		h.logger.Debug("missing required fields for message event", zap.Bool("text", isText))
		return nil
	}

	logger := h.logger.With(zap.String("user_id", userId))
	logger.Debug("received message", zap.String("text", text))

	status, err := h.gameClient.GetUserStatus(ctx, userId)
	if err != nil {
		return fmt.Errorf("could not get user status: %w", err)
	}

	decision := Decide(status, text)

	// Submission outcome is never shown to the user
	if decision.RoomCode != "" {
		if err := h.gameClient.JoinRoom(ctx, decision.RoomCode, userId); err != nil {
			logger.Error("join request failed", upstreamFields(err, zap.String("room_code", decision.RoomCode))...)
		} else {
			logger.Info("join requested", zap.String("room_code", decision.RoomCode))
		}
	}

	if err := h.lineClient.Reply(ctx, ev.ReplyToken, decision.Reply); err != nil {
		return fmt.Errorf("could not reply to message: %w", err)
	}
	return nil
}

func (h *Handler) HandleFollow(ctx context.Context, ev event.InboundEvent) error {
	userId := ev.Source.UserId
	if userId == "" || ev.ReplyToken == "" {
		h.logger.Debug("missing required fields for follow event")
		return nil
	}
	logger := h.logger.With(zap.String("user_id", userId))

	profile, err := h.lineClient.GetProfile(ctx, userId)
	if err != nil {
		return fmt.Errorf("could not get profile: %w", err)
	}

	var multiErr error
	if err := h.gameClient.RegisterUser(ctx, userId, profile.DisplayName); err != nil {
		regErr := fmt.Errorf("could not register user: %w", err)
		if h.followPolicy == config.FollowReplyRequireRegistration {
			return regErr
		}
		multiErr = multierr.Append(multiErr, regErr)
	} else {
		logger.Info("user registered")
	}

	if err := h.lineClient.Reply(ctx, ev.ReplyToken, fmt.Sprintf(MessageWelcomeFormat, profile.DisplayName)); err != nil {
		multiErr = multierr.Append(multiErr, fmt.Errorf("could not send welcome reply: %w", err))
	}
	return multiErr
}

func (h *Handler) HandleUnfollow(ctx context.Context, ev event.InboundEvent) error {
	userId := ev.Source.UserId
	if userId == "" {
		h.logger.Debug("missing required fields for unfollow event")
		return nil
	}

	if err := h.gameClient.InvalidateUser(ctx, userId); err != nil {
		return fmt.Errorf("could not invalidate user: %w", err)
	}
	h.logger.Info("user invalidated", zap.String("user_id", userId))
	return nil
}

func (h *Handler) HandlePostback(ctx context.Context, ev event.InboundEvent) error {
	if ev.Postback == nil || ev.Postback.Data == "" || ev.ReplyToken == "" {
		h.logger.Debug("missing required fields for postback event")
		return nil
	}

	cmd, err := postback.Parse(ev.Postback.Data)
	if err != nil {
		return err
	}

	switch cmd.Action() {
	case postback.ActionTurn:
		return h.turnAction(ctx, ev, cmd)
	default:
		h.logger.Debug("ignoring postback action", zap.String("action", cmd.Action()))
		return nil
	}
}

func (h *Handler) turnAction(ctx context.Context, ev event.InboundEvent, cmd postback.Command) error {
	if missing := cmd.Missing(turnActionKeys...); len(missing) > 0 {
		return customerrors.MalformedPostbackErr{
			Data:   ev.Postback.Data,
			Reason: fmt.Sprintf("missing fields %v", missing),
		}
	}

	memberId, err := cmd.Int(postback.KeyMemberId)
	if err != nil {
		return customerrors.MalformedPostbackErr{Data: ev.Postback.Data, Reason: "memberId is not numeric"}
	}
	turn, err := cmd.Int(postback.KeyTurn)
	if err != nil {
		return customerrors.MalformedPostbackErr{Data: ev.Postback.Data, Reason: "turn is not numeric"}
	}

	arg, _ := cmd.Get(postback.KeyArg)
	roomSessionId, _ := cmd.Get(postback.KeyRoomSessionId)
	formId, _ := cmd.Get(postback.KeyFormId)
	commandType, _ := cmd.Get(postback.KeyCommandType)

	result, err := h.gameClient.SubmitCommand(ctx, roomSessionId, gameserver.CommandRequest{
		FormId: formId,
		Turn:   turn,
		Commands: []gameserver.Command{
			{CommandType: commandType, MemberId: memberId, Arg: arg},
		},
	})
	if err != nil {
		return fmt.Errorf("could not submit command: %w", err)
	}

	h.logger.Info(
		"command submitted",
		zap.String("user_id", ev.Source.UserId),
		zap.String("room_session_id", roomSessionId),
		zap.Int("commands_count", result.CommandsCount),
		zap.Bool("valid", result.IsValid),
	)

	reply := MessageCommandRejected
	if result.IsValid {
		reply = MessageCommandAccepted
	}
	if err := h.lineClient.Reply(ctx, ev.ReplyToken, reply); err != nil {
		return fmt.Errorf("could not reply to postback: %w", err)
	}
	return nil
}

func upstreamFields(err error, fields ...zap.Field) []zap.Field {
	fields = append(fields, zap.Error(err))
	if upErr, ok := customerrors.AsUpstream(err); ok {
		fields = append(fields, zap.Int("status_code", upErr.StatusCode), zap.String("upstream", upErr.Service))
	}
	return fields
}
