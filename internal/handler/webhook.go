package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/chaschni/orderbot/internal/clock"
	"github.com/chaschni/orderbot/internal/ratelimit"
	"github.com/chaschni/orderbot/internal/telegram"
)

const msgSlowDown = "⏳ Too many messages. Please slow down."

// ConversationEngine defines the engine methods the webhook dispatches to.
// Satisfied by *session.Engine; narrow interface for testability.
type ConversationEngine interface {
	HandleStart(ctx context.Context, userID int64) error
	HandleText(ctx context.Context, userID int64, text string) error
	HandleCallback(ctx context.Context, userID int64, messageID int64, messageText string, cb telegram.Callback) error
}

// WebhookHandler receives Telegram updates. The bot token doubles as the
// path secret, so only Telegram can reach the endpoint.
type WebhookHandler struct {
	token   string
	engine  ConversationEngine
	limiter *ratelimit.Limiter
	sender  telegram.Sender
	clock   clock.Clock
	log     *slog.Logger
}

func NewWebhookHandler(
	token string,
	engine ConversationEngine,
	limiter *ratelimit.Limiter,
	sender telegram.Sender,
	clk clock.Clock,
	log *slog.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		token:   token,
		engine:  engine,
		limiter: limiter,
		sender:  sender,
		clock:   clk,
		log:     log,
	}
}

// RegisterRoutes registers the webhook endpoint on the given Chi router.
func (h *WebhookHandler) RegisterRoutes(r chi.Router) {
	r.Post("/webhook/{token}", h.Receive)
}

// Receive handles one Telegram update. A non-2xx response makes Telegram
// redeliver the update, so transient engine failures return 500 and
// permanent ones (malformed payloads, spam) are swallowed with 200.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "token") != h.token {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	var update telegram.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.log.Warn("malformed webhook payload", "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := h.dispatch(r.Context(), &update); err != nil {
		h.log.Error("process update", "update_id", update.UpdateID, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *WebhookHandler) dispatch(ctx context.Context, update *telegram.Update) error {
	switch {
	case update.Message != nil && update.Message.From != nil:
		return h.dispatchMessage(ctx, update.Message)
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		return h.dispatchCallback(ctx, update.CallbackQuery)
	}
	// Unsupported update kinds (edits, joins) are acknowledged and dropped.
	return nil
}

func (h *WebhookHandler) dispatchMessage(ctx context.Context, msg *telegram.Message) error {
	userID := msg.From.ID

	switch h.limiter.Allow(userID, h.clock.Now()) {
	case ratelimit.Drop:
		return nil
	case ratelimit.Warn:
		return h.sender.SendText(ctx, userID, msgSlowDown)
	}

	if strings.HasPrefix(msg.Text, "/start") {
		return h.engine.HandleStart(ctx, userID)
	}
	return h.engine.HandleText(ctx, userID, msg.Text)
}

func (h *WebhookHandler) dispatchCallback(ctx context.Context, cq *telegram.CallbackQuery) error {
	userID := cq.From.ID

	// Always answer the callback so the client stops its spinner, even for
	// presses we end up dropping.
	if err := h.sender.AnswerCallback(ctx, cq.ID); err != nil {
		h.log.Warn("answer callback", "error", err)
	}

	switch h.limiter.Allow(userID, h.clock.Now()) {
	case ratelimit.Drop:
		return nil
	case ratelimit.Warn:
		return h.sender.SendText(ctx, userID, msgSlowDown)
	}

	var messageID int64
	var messageText string
	if cq.Message != nil {
		messageID = cq.Message.MessageID
		messageText = cq.Message.Text
	}
	return h.engine.HandleCallback(ctx, userID, messageID, messageText, telegram.ParseCallback(cq.Data))
}
