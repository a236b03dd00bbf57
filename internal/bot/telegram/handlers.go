package telegram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dmitrijs2005/fsubgate/internal/bot/config"
	"github.com/dmitrijs2005/fsubgate/internal/bot/models"
	"github.com/dmitrijs2005/fsubgate/internal/bot/services"
	"github.com/dmitrijs2005/fsubgate/internal/common"
	"github.com/dmitrijs2005/fsubgate/internal/logging"
)

// User-visible outcome texts. Each claim/gate/fetch outcome stays
// distinguishable end to end.
const (
	textLinkInvalid    = "Link invalid or no longer active."
	textLinkClaimed    = "⛔ This link is already bound to another account. Ask for a new one."
	textFileMissing    = "File not found or removed from the archive channel."
	textDeliveryFailed = "Could not fetch the file from the archive channel. Make sure the bot is an admin there with post and read access."
	textArchiveFailed  = "Could not save to the archive channel. Make sure the bot is an admin there with post access."
	textIngestFailed   = "Could not save the file record. Try again."
	textCodeExhausted  = "Could not generate a unique code. Try again."
	textStillNotJoined = "Still not a member everywhere."
	textNoUsername     = "The bot has no username yet. Set one in @BotFather so /start links work."
)

// Handler routes inbound updates: /start deep links, the gate re-check
// callback, and admin media ingest.
type Handler struct {
	cfg       *config.Config
	transport *Transport
	access    *services.AccessService
	logger    logging.Logger
}

func NewHandler(cfg *config.Config, transport *Transport, access *services.AccessService, logger logging.Logger) *Handler {
	return &Handler{cfg: cfg, transport: transport, access: access, logger: logger}
}

// Run consumes updates until ctx is cancelled. Each update is an
// independent unit of work handled under its own request timeout.
func (h *Handler) Run(ctx context.Context) error {
	updates := h.transport.Updates(30)
	defer h.transport.Stop()

	h.logger.Info(ctx, "bot running", "username", h.transport.Username())

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			h.dispatch(ctx, update)
		}
	}
}

func (h *Handler) dispatch(ctx context.Context, update tgbotapi.Update) {
	rctx, cancel := context.WithTimeout(ctx, h.cfg.RequestTimeout)
	defer cancel()

	switch {
	case update.CallbackQuery != nil:
		h.handleRecheck(rctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		if update.Message.Command() == "start" {
			h.handleStart(rctx, update.Message)
		}
	case update.Message != nil:
		h.handleIngest(rctx, update.Message)
	}
}

// handleStart answers a plain /start with the greeting, or resolves a
// deep-link payload through claim → gate → deliver.
func (h *Handler) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	code := strings.TrimSpace(msg.CommandArguments())
	if code == "" {
		text := strings.ReplaceAll(h.cfg.StartMessage, "{mention}", mentionHTML(msg.From))
		h.reply(ctx, msg.Chat.ID, text, nil)
		return
	}

	err := h.access.Deliver(ctx, code, msg.From.ID, msg.Chat.ID)
	h.reportOutcome(ctx, msg.Chat.ID, err)
}

// handleRecheck re-runs gate → deliver for the file id carried in the
// re-check button. The gate prompt is deleted best-effort once the user
// passes; a failed deletion never blocks delivery.
func (h *Handler) handleRecheck(ctx context.Context, q *tgbotapi.CallbackQuery) {
	if q.From == nil || q.Message == nil {
		return
	}

	fileID, ok := ParseRecheckData(q.Data)
	if !ok {
		_ = h.transport.AnswerCallback(q.ID, "", false)
		return
	}

	err := h.access.DeliverFile(ctx, fileID, q.From.ID, q.Message.Chat.ID)

	var gateErr *common.MembershipRequiredError
	if errors.As(err, &gateErr) {
		_ = h.transport.AnswerCallback(q.ID, textStillNotJoined, true)
		return
	}

	_ = h.transport.AnswerCallback(q.ID, "", false)

	if delErr := h.transport.DeleteMessage(q.Message.Chat.ID, q.Message.MessageID); delErr != nil {
		h.logger.Debug(ctx, "gate prompt deletion failed", "error", delErr.Error())
	}

	h.reportOutcome(ctx, q.Message.Chat.ID, err)
}

// handleIngest archives an admin's media message, stores the record, and
// replies with a one-time-claimable deep link.
func (h *Handler) handleIngest(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || !h.cfg.IsAdmin(msg.From.ID) {
		return
	}

	kind, ok := mediaKind(msg)
	if !ok {
		return
	}

	loc, err := h.access.Archive(ctx, msg.Chat.ID, msg.MessageID)
	if err != nil {
		h.logger.Error(ctx, "archive copy failed", "error", err.Error())
		h.reply(ctx, msg.Chat.ID, textArchiveFailed, nil)
		return
	}

	rec, err := h.access.Ingest(ctx, loc, kind, msg.Caption)
	if err != nil {
		h.logger.Error(ctx, "ingest failed", "error", err.Error())
		h.reply(ctx, msg.Chat.ID, textIngestFailed, nil)
		return
	}

	if h.transport.Username() == "" {
		h.reply(ctx, msg.Chat.ID, textNoUsername, nil)
		return
	}

	code, err := h.access.CreateLink(ctx, rec.FileID)
	if err != nil {
		if errors.Is(err, common.ErrorCodeExhausted) {
			h.reply(ctx, msg.Chat.ID, textCodeExhausted, nil)
			return
		}
		h.logger.Error(ctx, "link creation failed", "error", err.Error())
		h.reply(ctx, msg.Chat.ID, textCodeExhausted, nil)
		return
	}

	link := fmt.Sprintf("https://t.me/%s?start=%s", h.transport.Username(), code)
	text := fmt.Sprintf(
		"<b>Saved.</b>\n\nLink:\n<code>%s</code>\n\n<i>Note:</i> the link locks to the first account that opens it.",
		link)
	h.reply(ctx, msg.Chat.ID, text, nil)
}

// reportOutcome maps a coordinator error to its user-visible reply. A nil
// error means the artifact was already delivered and needs no reply.
func (h *Handler) reportOutcome(ctx context.Context, chatID int64, err error) {
	if err == nil {
		return
	}

	var gateErr *common.MembershipRequiredError
	switch {
	case errors.Is(err, common.ErrorLinkInvalid):
		h.reply(ctx, chatID, textLinkInvalid, nil)
	case errors.Is(err, common.ErrorLinkClaimed):
		h.reply(ctx, chatID, textLinkClaimed, nil)
	case errors.As(err, &gateErr):
		kb := JoinKeyboard(h.cfg.ForceSubTargets, h.cfg.ButtonsPerRow, h.cfg.JoinText, gateErr.FileID)
		h.reply(ctx, chatID, h.cfg.ForceSubMessage, &kb)
	case errors.Is(err, common.ErrorFileMissing):
		h.reply(ctx, chatID, textFileMissing, nil)
	default:
		h.logger.Error(ctx, "delivery error", "error", err.Error())
		h.reply(ctx, chatID, textDeliveryFailed, nil)
	}
}

func (h *Handler) reply(ctx context.Context, chatID int64, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	if err := h.transport.SendHTML(chatID, text, kb); err != nil {
		h.logger.Error(ctx, "reply failed", "chat_id", chatID, "error", err.Error())
	}
}

func mentionHTML(u *tgbotapi.User) string {
	name := u.FirstName
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf("<a href='tg://user?id=%d'>%s</a>", u.ID, html.EscapeString(name))
}

// mediaKind classifies a message's media payload, reporting false for
// anything the archive does not accept.
func mediaKind(msg *tgbotapi.Message) (models.MediaKind, bool) {
	switch {
	case msg.Document != nil:
		return models.KindDocument, true
	case msg.Video != nil:
		return models.KindVideo, true
	case len(msg.Photo) > 0:
		return models.KindPhoto, true
	case msg.Audio != nil:
		return models.KindAudio, true
	case msg.Voice != nil:
		return models.KindVoice, true
	default:
		return "", false
	}
}
