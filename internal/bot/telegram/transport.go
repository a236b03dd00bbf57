// Package telegram adapts the Telegram Bot API to the narrow interfaces the
// core consumes: the delivery channel (message copy), the membership oracle
// (chat member lookup), and the inbound update loop with its handlers.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/fsubgate/internal/bot/models"
	"github.com/dmitrijs2005/fsubgate/internal/bot/services"
	"github.com/dmitrijs2005/fsubgate/internal/logging"
)

// Transport wraps a Bot API client. It implements services.Delivery and
// services.MembershipOracle and carries the helpers the update handlers
// need for replies, callbacks, and message deletion.
type Transport struct {
	bot    *tgbotapi.BotAPI
	logger logging.Logger
}

// NewTransport authorizes the bot and bounds every API call with timeout.
func NewTransport(token string, timeout time.Duration, logger logging.Logger) (*Transport, error) {
	client := &http.Client{Timeout: timeout}
	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("bot authorization error: %w", err)
	}
	return &Transport{bot: bot, logger: logger}, nil
}

// Copy copies the message at from into destChatID and returns the new
// message id. Transport-level failures (timeouts, connection errors) are
// wrapped as retryable for the coordinator's retry loop; Bot API rejections
// are permanent, except rate limiting.
func (t *Transport) Copy(ctx context.Context, from models.ArchiveLocation, destChatID int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	res, err := t.bot.CopyMessage(tgbotapi.NewCopyMessage(destChatID, from.ChatID, from.MessageID))
	if err != nil {
		return 0, classifyErr(err)
	}
	return res.MessageID, nil
}

// MemberStatus queries the user's membership status in the target chat.
// Target is either an "@username" or a numeric chat id.
func (t *Transport) MemberStatus(ctx context.Context, target string, userID int64) (services.MemberStatus, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	cfg := tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{UserID: userID},
	}
	if strings.HasPrefix(target, "@") {
		cfg.SuperGroupUsername = target
	} else {
		chatID, err := strconv.ParseInt(target, 10, 64)
		if err != nil {
			return "", fmt.Errorf("invalid membership target %q: %w", target, err)
		}
		cfg.ChatID = chatID
	}

	member, err := t.bot.GetChatMember(cfg)
	if err != nil {
		return "", fmt.Errorf("chat member lookup error: %w", err)
	}
	return services.MemberStatus(member.Status), nil
}

// Username returns the bot's own username, used to build deep links.
func (t *Transport) Username() string {
	return t.bot.Self.UserName
}

// Updates starts long polling and returns the update channel.
func (t *Transport) Updates(timeoutSec int) tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeoutSec
	return t.bot.GetUpdatesChan(u)
}

// Stop terminates the long-polling loop.
func (t *Transport) Stop() {
	t.bot.StopReceivingUpdates()
}

// SendHTML sends an HTML-formatted message without link previews.
// A nil keyboard sends a plain message.
func (t *Transport) SendHTML(chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if keyboard != nil {
		msg.ReplyMarkup = keyboard
	}
	_, err := t.bot.Send(msg)
	return err
}

// AnswerCallback acknowledges a callback query, optionally with an alert.
func (t *Transport) AnswerCallback(callbackID, text string, alert bool) error {
	cb := tgbotapi.NewCallback(callbackID, text)
	if alert {
		cb = tgbotapi.NewCallbackWithAlert(callbackID, text)
	}
	_, err := t.bot.Request(cb)
	return err
}

// DeleteMessage removes a message. Callers that treat deletion as
// best-effort should ignore the returned error.
func (t *Transport) DeleteMessage(chatID int64, messageID int) error {
	_, err := t.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	return err
}

// classifyErr separates retryable transport failures from permanent Bot API
// rejections. Anything that never reached the API (timeout, connection
// reset) is retryable; an API error is final, except 429 which asks us to
// come back later.
func classifyErr(err error) error {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests {
			return retry.RetryableError(err)
		}
		return err
	}
	return retry.RetryableError(err)
}
