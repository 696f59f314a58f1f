package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/chaschni/orderbot/internal/clock"
	"github.com/chaschni/orderbot/internal/ratelimit"
	"github.com/chaschni/orderbot/internal/telegram"
)

const webhookToken = "123:abc"

// --- Mock implementations ---

type startCall struct{ userID int64 }
type textCall struct {
	userID int64
	text   string
}
type callbackCall struct {
	userID      int64
	messageID   int64
	messageText string
	cb          telegram.Callback
}

type mockEngine struct {
	startFn    func(ctx context.Context, userID int64) error
	textFn     func(ctx context.Context, userID int64, text string) error
	callbackFn func(ctx context.Context, userID int64, messageID int64, messageText string, cb telegram.Callback) error

	starts    []startCall
	texts     []textCall
	callbacks []callbackCall
}

func (m *mockEngine) HandleStart(ctx context.Context, userID int64) error {
	m.starts = append(m.starts, startCall{userID: userID})
	if m.startFn == nil {
		return nil
	}
	return m.startFn(ctx, userID)
}
func (m *mockEngine) HandleText(ctx context.Context, userID int64, text string) error {
	m.texts = append(m.texts, textCall{userID: userID, text: text})
	if m.textFn == nil {
		return nil
	}
	return m.textFn(ctx, userID, text)
}
func (m *mockEngine) HandleCallback(ctx context.Context, userID int64, messageID int64, messageText string, cb telegram.Callback) error {
	m.callbacks = append(m.callbacks, callbackCall{userID: userID, messageID: messageID, messageText: messageText, cb: cb})
	if m.callbackFn == nil {
		return nil
	}
	return m.callbackFn(ctx, userID, messageID, messageText, cb)
}

type mockSender struct {
	texts     []string
	answered  []string
	answerErr error
}

func (m *mockSender) SendText(_ context.Context, _ int64, text string) error {
	m.texts = append(m.texts, text)
	return nil
}
func (m *mockSender) SendMenu(_ context.Context, _ int64, _ string, _ any) error { return nil }
func (m *mockSender) EditMessage(_ context.Context, _ int64, _ int64, _ string) error {
	return nil
}
func (m *mockSender) AnswerCallback(_ context.Context, id string) error {
	m.answered = append(m.answered, id)
	return m.answerErr
}

type webhookFixture struct {
	router *chi.Mux
	engine *mockEngine
	sender *mockSender
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()
	engine := &mockEngine{}
	sender := &mockSender{}
	now := time.Date(2026, time.August, 31, 13, 0, 0, 0, time.UTC)
	h := NewWebhookHandler(
		webhookToken,
		engine,
		ratelimit.New(ratelimit.DefaultWindow, ratelimit.DefaultLimit),
		sender,
		clock.Func(func() time.Time { return now }),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return &webhookFixture{router: r, engine: engine, sender: sender}
}

func (f *webhookFixture) post(t *testing.T, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/webhook/"+token, strings.NewReader(body))
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func messageBody(userID int64, text string) string {
	return fmt.Sprintf(`{"update_id":1,"message":{"message_id":10,"from":{"id":%d},"chat":{"id":%d},"text":%q}}`,
		userID, userID, text)
}

// --- Tests ---

func TestWebhookRejectsWrongToken(t *testing.T) {
	f := newWebhookFixture(t)

	rr := f.post(t, "wrong-token", messageBody(1001, "hello"))

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
	if len(f.engine.texts) != 0 {
		t.Error("engine must not see updates on a bad token")
	}
}

func TestWebhookMalformedBodyAcknowledged(t *testing.T) {
	f := newWebhookFixture(t)

	rr := f.post(t, webhookToken, "{not json")

	// 200 so Telegram does not redeliver garbage forever.
	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestWebhookDispatchesStart(t *testing.T) {
	f := newWebhookFixture(t)

	rr := f.post(t, webhookToken, messageBody(1001, "/start"))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	if len(f.engine.starts) != 1 || f.engine.starts[0].userID != 1001 {
		t.Errorf("starts = %+v", f.engine.starts)
	}
	if len(f.engine.texts) != 0 {
		t.Error("/start must not be dispatched as plain text")
	}
}

func TestWebhookDispatchesText(t *testing.T) {
	f := newWebhookFixture(t)

	rr := f.post(t, webhookToken, messageBody(1001, "3"))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	if len(f.engine.texts) != 1 || f.engine.texts[0].text != "3" {
		t.Errorf("texts = %+v", f.engine.texts)
	}
}

func TestWebhookDispatchesCallback(t *testing.T) {
	f := newWebhookFixture(t)

	body := `{"update_id":2,"callback_query":{"id":"cb-1","from":{"id":1001},` +
		`"message":{"message_id":77,"chat":{"id":1001},"text":"menu text"},"data":"food:ghorme"}}`
	rr := f.post(t, webhookToken, body)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	if len(f.sender.answered) != 1 || f.sender.answered[0] != "cb-1" {
		t.Errorf("answered = %v", f.sender.answered)
	}
	if len(f.engine.callbacks) != 1 {
		t.Fatalf("callbacks = %+v", f.engine.callbacks)
	}
	got := f.engine.callbacks[0]
	if got.messageID != 77 || got.messageText != "menu text" {
		t.Errorf("message context = %+v", got)
	}
	if got.cb.Kind != telegram.CallbackFood || got.cb.Value != "ghorme" {
		t.Errorf("callback = %+v", got.cb)
	}
}

func TestWebhookRateLimit(t *testing.T) {
	f := newWebhookFixture(t)

	for i := 0; i < 8; i++ {
		rr := f.post(t, webhookToken, messageBody(1001, "spam"))
		if rr.Code != http.StatusOK {
			t.Fatalf("message %d: status %d", i, rr.Code)
		}
	}

	if len(f.engine.texts) != ratelimit.DefaultLimit {
		t.Errorf("engine saw %d messages, want %d", len(f.engine.texts), ratelimit.DefaultLimit)
	}
	warns := 0
	for _, text := range f.sender.texts {
		if text == msgSlowDown {
			warns++
		}
	}
	if warns != 1 {
		t.Errorf("expected exactly one warning, got %d", warns)
	}
}

func TestWebhookEngineErrorReturns500(t *testing.T) {
	f := newWebhookFixture(t)
	f.engine.textFn = func(context.Context, int64, string) error {
		return errors.New("database down")
	}

	rr := f.post(t, webhookToken, messageBody(1001, "3"))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusInternalServerError)
	}
}

func TestWebhookIgnoresUnsupportedUpdates(t *testing.T) {
	f := newWebhookFixture(t)

	rr := f.post(t, webhookToken, `{"update_id":3}`)

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d", rr.Code)
	}
	if len(f.engine.starts)+len(f.engine.texts)+len(f.engine.callbacks) != 0 {
		t.Error("empty update must not reach the engine")
	}
}
