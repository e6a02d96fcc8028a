package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/edgard/deepchat/internal/cache"
	"github.com/edgard/deepchat/internal/config"
	"github.com/edgard/deepchat/internal/database"
	"github.com/edgard/deepchat/internal/gateway"
	"github.com/edgard/deepchat/internal/imagegen"
	"github.com/edgard/deepchat/internal/metrics"
	"github.com/edgard/deepchat/internal/state"
)

// apiCall is one request received by the fake Bot API.
type apiCall struct {
	Method string
	Fields map[string]string
	Files  []string
}

type fakeTelegram struct {
	srv   *httptest.Server
	mu    sync.Mutex
	calls []apiCall
}

func newFakeTelegram(t *testing.T) *fakeTelegram {
	t.Helper()
	f := &fakeTelegram{}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeTelegram) serve(w http.ResponseWriter, r *http.Request) {
	call := apiCall{Method: path.Base(r.URL.Path), Fields: map[string]string{}}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(10 << 20); err == nil {
			for k, v := range r.MultipartForm.Value {
				if len(v) > 0 {
					call.Fields[k] = v[0]
				}
			}
			for k := range r.MultipartForm.File {
				call.Files = append(call.Files, k)
			}
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch call.Method {
	case "sendChatAction", "answerCallbackQuery", "deleteWebhook":
		_, _ = io.WriteString(w, `{"ok":true,"result":true}`)
	default:
		chatID := strings.Trim(call.Fields["chat_id"], `"`)
		if chatID == "" {
			chatID = "0"
		}
		_, _ = fmt.Fprintf(w, `{"ok":true,"result":{"message_id":1,"date":1700000000,"chat":{"id":%s,"type":"private"}}}`, chatID)
	}
}

func (f *fakeTelegram) bot(t *testing.T) *bot.Bot {
	t.Helper()
	b, err := bot.New("123456:TEST-TOKEN", bot.WithSkipGetMe(), bot.WithServerURL(f.srv.URL))
	if err != nil {
		t.Fatalf("bot.New() error = %v", err)
	}
	return b
}

func (f *fakeTelegram) callsTo(method string) []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []apiCall
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// lastText returns the text of the last sendMessage call.
func (f *fakeTelegram) lastText(t *testing.T) string {
	t.Helper()
	sent := f.callsTo("sendMessage")
	if len(sent) == 0 {
		t.Fatal("no sendMessage call recorded")
	}
	return sent[len(sent)-1].Fields["text"]
}

type fakeResponder struct {
	mu      sync.Mutex
	prompts []string
	result  gateway.Result
}

func (f *fakeResponder) GenerateResponse(_ context.Context, prompt string) gateway.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.result
}

func (f *fakeResponder) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type memStore struct {
	mu   sync.Mutex
	msgs []database.Message
	err  error
}

func (s *memStore) Ping(context.Context) error { return s.err }

func (s *memStore) SaveMessage(_ context.Context, m *database.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.msgs = append(s.msgs, *m)
	return nil
}

func (s *memStore) CountMessages(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.msgs)), s.err
}

func (s *memStore) DeleteMessagesBefore(context.Context, time.Time) (int64, error) { return 0, s.err }

func (s *memStore) RunSQLMaintenance(context.Context) error { return s.err }

func (s *memStore) lines() []database.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]database.Message(nil), s.msgs...)
}

type fakeImages struct {
	img imagegen.Image
	err error
}

func (f fakeImages) Generate(context.Context, string) (imagegen.Image, error) { return f.img, f.err }

func (fakeImages) Name() string { return "fake" }

func testDeps() (HandlerDeps, *fakeResponder, *memStore) {
	responder := &fakeResponder{result: gateway.Result{Text: "an answer"}}
	store := &memStore{}
	return HandlerDeps{
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config:  config.Default(),
		Gateway: responder,
		Tracker: state.NewTracker(),
		Cache:   cache.New(),
		Store:   store,
		Images:  imagegen.Disabled{},
		Metrics: metrics.New(),
	}, responder, store
}

func textUpdate(userID int64, text string) *models.Update {
	return &models.Update{
		ID: 1,
		Message: &models.Message{
			ID:   10,
			Chat: models.Chat{ID: userID},
			From: &models.User{ID: userID, FirstName: "Ada"},
			Text: text,
		},
	}
}

func callbackUpdate(userID int64, data string) *models.Update {
	return &models.Update{
		ID: 2,
		CallbackQuery: &models.CallbackQuery{
			ID:   "cbq-1",
			From: models.User{ID: userID},
			Data: data,
			Message: models.MaybeInaccessibleMessage{
				Type:    models.MaybeInaccessibleMessageTypeMessage,
				Message: &models.Message{ID: 5, Chat: models.Chat{ID: userID}},
			},
		},
	}
}

func TestStartHandler(t *testing.T) {
	t.Parallel()
	tg := newFakeTelegram(t)
	deps, _, _ := testDeps()

	upd := textUpdate(42, "/start")
	upd.Message.From.FirstName = "<Ada>"
	NewStartHandler(deps)(context.Background(), tg.bot(t), upd)

	sent := tg.callsTo("sendMessage")
	if len(sent) != 1 {
		t.Fatalf("sendMessage calls = %d, want 1", len(sent))
	}
	f := sent[0].Fields
	if !strings.Contains(f["text"], "&lt;Ada&gt;") {
		t.Errorf("welcome does not contain escaped name: %q", f["text"])
	}
	if f["parse_mode"] != "HTML" {
		t.Errorf("parse_mode = %q, want HTML", f["parse_mode"])
	}
	for _, label := range []string{ButtonChat, ButtonInfo, ButtonSettings, ButtonStats, ButtonTools, ButtonHelp, deps.Config.Messages.MenuPlaceholder} {
		if !strings.Contains(f["reply_markup"], label) {
			t.Errorf("reply_markup missing %q", label)
		}
	}
	if got := deps.Tracker.Get(42); got != state.MainMenu {
		t.Errorf("state = %q, want %q", got, state.MainMenu)
	}
}

func TestChatModeAndCancel(t *testing.T) {
	t.Parallel()
	tg := newFakeTelegram(t)
	b := tg.bot(t)
	deps, _, _ := testDeps()
	ctx := context.Background()

	NewChatModeHandler(deps)(ctx, b, textUpdate(7, ButtonChat))
	if got := deps.Tracker.Get(7); got != state.ChatMode {
		t.Fatalf("state after chat button = %q, want %q", got, state.ChatMode)
	}
	if markup := tg.callsTo("sendMessage")[0].Fields["reply_markup"]; !strings.Contains(markup, "remove_keyboard") {
		t.Errorf("chat mode reply_markup = %q, want keyboard removal", markup)
	}

	NewCancelHandler(deps)(ctx, b, textUpdate(7, "/cancel"))
	if got := deps.Tracker.Get(7); got != state.MainMenu {
		t.Errorf("state after /cancel = %q, want %q", got, state.MainMenu)
	}
	if got := tg.lastText(t); got != deps.Config.Messages.Cancelled {
		t.Errorf("cancel reply = %q", got)
	}
}

func TestMessageHandler(t *testing.T) {
	t.Parallel()

	longReply := strings.Repeat("ж", 4500)

	tests := []struct {
		name         string
		state        state.State
		text         string
		result       gateway.Result
		wantText     func(config.MessagesConfig) string
		wantCalls    int
		wantTyping   bool
		wantLines    int
		wantReplyLen int
	}{
		{
			name:     "empty text",
			state:    state.ChatMode,
			text:     "",
			wantText: func(m config.MessagesConfig) string { return m.InvalidLength },
		},
		{
			name:     "too long",
			state:    state.ChatMode,
			text:     strings.Repeat("a", 4001),
			wantText: func(m config.MessagesConfig) string { return m.InvalidLength },
		},
		{
			name:       "not in chat mode",
			state:      state.MainMenu,
			text:       "hello",
			wantText:   func(m config.MessagesConfig) string { return m.ChooseFromMenu },
			wantTyping: true,
		},
		{
			name:       "unseen user gets menu prompt",
			state:      "",
			text:       "hello",
			wantText:   func(m config.MessagesConfig) string { return m.ChooseFromMenu },
			wantTyping: true,
		},
		{
			name:       "chat mode success",
			state:      state.ChatMode,
			text:       "what is go?",
			result:     gateway.Result{Text: "a language"},
			wantText:   func(config.MessagesConfig) string { return "a language" },
			wantCalls:  1,
			wantTyping: true,
			wantLines:  2,
		},
		{
			name:       "max length multibyte accepted",
			state:      state.ChatMode,
			text:       strings.Repeat("ж", 4000),
			result:     gateway.Result{Text: "ok"},
			wantText:   func(config.MessagesConfig) string { return "ok" },
			wantCalls:  1,
			wantTyping: true,
			wantLines:  2,
		},
		{
			name:  "chat mode failure",
			state: state.ChatMode,
			text:  "hi",
			result: gateway.Result{Failure: &gateway.Failure{
				Kind:    gateway.KindRateLimit,
				Message: "slow down",
				Err:     gateway.ErrRateLimited,
			}},
			wantText:   func(config.MessagesConfig) string { return "slow down" },
			wantCalls:  1,
			wantTyping: true,
			wantLines:  1,
		},
		{
			name:         "long reply truncated",
			state:        state.ChatMode,
			text:         "essay please",
			result:       gateway.Result{Text: longReply},
			wantCalls:    1,
			wantTyping:   true,
			wantLines:    2,
			wantReplyLen: 4000,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tg := newFakeTelegram(t)
			deps, responder, store := testDeps()
			responder.result = tt.result
			if tt.state != "" {
				deps.Tracker.Set(99, tt.state)
			}

			NewMessageHandler(deps)(context.Background(), tg.bot(t), textUpdate(99, tt.text))

			got := tg.lastText(t)
			if tt.wantText != nil {
				if want := tt.wantText(deps.Config.Messages); got != want {
					t.Errorf("reply = %q, want %q", got, want)
				}
			}
			if tt.wantReplyLen > 0 {
				if n := len([]rune(got)); n != tt.wantReplyLen {
					t.Errorf("reply length = %d, want %d", n, tt.wantReplyLen)
				}
			}
			if responder.calls() != tt.wantCalls {
				t.Errorf("gateway calls = %d, want %d", responder.calls(), tt.wantCalls)
			}
			if typing := len(tg.callsTo("sendChatAction")) > 0; typing != tt.wantTyping {
				t.Errorf("typing sent = %v, want %v", typing, tt.wantTyping)
			}
			if lines := len(store.lines()); lines != tt.wantLines {
				t.Errorf("transcript lines = %d, want %d", lines, tt.wantLines)
			}
		})
	}
}

func TestMessageHandlerTranscriptFailureIsInvisible(t *testing.T) {
	t.Parallel()
	tg := newFakeTelegram(t)
	deps, _, store := testDeps()
	store.err = errors.New("disk full")
	deps.Tracker.Set(5, state.ChatMode)

	NewMessageHandler(deps)(context.Background(), tg.bot(t), textUpdate(5, "question"))

	if got := tg.lastText(t); got != "an answer" {
		t.Errorf("reply = %q, want the gateway answer", got)
	}
	if n := len(tg.callsTo("sendMessage")); n != 1 {
		t.Errorf("sendMessage calls = %d, want 1", n)
	}
}

func TestMessageHandlerTranscriptDirections(t *testing.T) {
	t.Parallel()
	tg := newFakeTelegram(t)
	deps, _, store := testDeps()
	deps.Tracker.Set(3, state.ChatMode)

	NewMessageHandler(deps)(context.Background(), tg.bot(t), textUpdate(3, "ping"))

	lines := store.lines()
	if len(lines) != 2 {
		t.Fatalf("transcript lines = %d, want 2", len(lines))
	}
	if lines[0].Direction != database.DirectionIn || lines[0].Text != "ping" {
		t.Errorf("first line = %+v", lines[0])
	}
	if lines[1].Direction != database.DirectionOut || lines[1].Text != "an answer" {
		t.Errorf("second line = %+v", lines[1])
	}
	if lines[0].UserID != 3 || lines[0].ChatID != 3 {
		t.Errorf("ids = %d/%d, want 3/3", lines[0].UserID, lines[0].ChatID)
	}
}

func TestSettingsCallback(t *testing.T) {
	t.Parallel()
	tg := newFakeTelegram(t)
	b := tg.bot(t)
	deps, _, _ := testDeps()
	ctx := context.Background()
	h := NewSettingsCallbackHandler(deps)

	h(ctx, b, callbackUpdate(11, CallbackSetTemp))
	answers := tg.callsTo("answerCallbackQuery")
	if len(answers) != 1 || !strings.Contains(answers[0].Fields["text"], "0.7") {
		t.Fatalf("answerCallbackQuery = %+v, want temperature 0.7", answers)
	}
	if n := len(tg.callsTo("sendMessage")); n != 0 {
		t.Errorf("sendMessage calls = %d, want 0 for a setting button", n)
	}

	deps.Tracker.Set(11, state.ChatMode)
	h(ctx, b, callbackUpdate(11, CallbackMainMenu))
	if got := deps.Tracker.Get(11); got != state.MainMenu {
		t.Errorf("state after back = %q, want %q", got, state.MainMenu)
	}
	if got := tg.lastText(t); got != deps.Config.Messages.ChooseFromMenu {
		t.Errorf("back reply = %q", got)
	}
}

func TestSettingsHandlerShowsInlineKeyboard(t *testing.T) {
	t.Parallel()
	tg := newFakeTelegram(t)
	deps, _, _ := testDeps()

	NewSettingsHandler(deps)(context.Background(), tg.bot(t), textUpdate(1, ButtonSettings))

	f := tg.callsTo("sendMessage")[0].Fields
	if !strings.Contains(f["text"], "deepseek-chat") || !strings.Contains(f["text"], "2500") {
		t.Errorf("settings text = %q", f["text"])
	}
	for _, data := range []string{CallbackChangeModel, CallbackSetTemp, CallbackSetMaxTokens, CallbackMainMenu} {
		if !strings.Contains(f["reply_markup"], data) {
			t.Errorf("inline keyboard missing %q", data)
		}
	}
}

func TestStatsHandler(t *testing.T) {
	t.Parallel()
	tg := newFakeTelegram(t)
	deps, _, store := testDeps()
	deps.Cache.Set("a", "1")
	deps.Cache.Set("b", "2")
	deps.Tracker.Set(1, state.MainMenu)
	store.msgs = make([]database.Message, 5)

	NewStatsHandler(deps)(context.Background(), tg.bot(t), textUpdate(1, ButtonStats))

	text := tg.lastText(t)
	for _, want := range []string{"Cached answers: 2", "Known users: 1", "Stored messages: 5"} {
		if !strings.Contains(text, want) {
			t.Errorf("stats text %q missing %q", text, want)
		}
	}
}

func TestStaticMenuHandlers(t *testing.T) {
	t.Parallel()
	deps, _, _ := testDeps()

	tests := []struct {
		name string
		h    bot.HandlerFunc
		want string
	}{
		{"info", NewInfoHandler(deps), deps.Config.Messages.BotInfo},
		{"tools", NewToolsHandler(deps), deps.Config.Messages.Tools},
		{"help", NewHelpHandler(deps), deps.Config.Messages.Help},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tg := newFakeTelegram(t)
			tt.h(context.Background(), tg.bot(t), textUpdate(1, "x"))
			if got := tg.lastText(t); got != tt.want {
				t.Errorf("reply = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestImageHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		text      string
		images    imagegen.Generator
		wantText  func(config.MessagesConfig) string
		wantPhoto string
		wantFile  bool
	}{
		{
			name:     "missing prompt",
			text:     "/image   ",
			images:   fakeImages{img: imagegen.Image{URL: "https://x"}},
			wantText: func(m config.MessagesConfig) string { return m.ImageUsage },
		},
		{
			name:     "disabled",
			text:     "/image a cat",
			images:   imagegen.Disabled{},
			wantText: func(m config.MessagesConfig) string { return m.ImageUnavailable },
		},
		{
			name:     "provider error",
			text:     "/image a cat",
			images:   fakeImages{err: errors.New("boom")},
			wantText: func(m config.MessagesConfig) string { return m.ImageFailed },
		},
		{
			name:      "url result",
			text:      "/image a cat",
			images:    fakeImages{img: imagegen.Image{URL: "https://images.example/cat.png"}},
			wantPhoto: "https://images.example/cat.png",
		},
		{
			name:     "bytes result",
			text:     "/image@deepchat_bot a cat",
			images:   fakeImages{img: imagegen.Image{Data: []byte("\x89PNG"), MIME: "image/png"}},
			wantFile: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tg := newFakeTelegram(t)
			deps, _, _ := testDeps()
			deps.Images = tt.images

			NewImageHandler(deps)(context.Background(), tg.bot(t), textUpdate(1, tt.text))

			if tt.wantText != nil {
				if got, want := tg.lastText(t), tt.wantText(deps.Config.Messages); got != want {
					t.Errorf("reply = %q, want %q", got, want)
				}
				return
			}
			photos := tg.callsTo("sendPhoto")
			if len(photos) != 1 {
				t.Fatalf("sendPhoto calls = %d, want 1", len(photos))
			}
			if tt.wantPhoto != "" && photos[0].Fields["photo"] != tt.wantPhoto {
				t.Errorf("photo = %q, want %q", photos[0].Fields["photo"], tt.wantPhoto)
			}
			if tt.wantFile && len(photos[0].Files) == 0 {
				t.Error("photo was not uploaded as a file")
			}
			if got := testutil.ToFloat64(deps.Metrics.ImageRuns.WithLabelValues("fake", "ok")); got != 1 {
				t.Errorf("image ok counter = %v, want 1", got)
			}
		})
	}
}

func TestRecoverMiddleware(t *testing.T) {
	t.Parallel()
	tg := newFakeTelegram(t)
	deps, _, _ := testDeps()

	h := Recover(deps)(func(context.Context, *bot.Bot, *models.Update) {
		panic("unexpected")
	})
	h(context.Background(), tg.bot(t), textUpdate(8, "boom"))

	if got := tg.lastText(t); got != deps.Config.Messages.GeneralError {
		t.Errorf("reply = %q, want general error", got)
	}
}

func TestRegisterAllCommands(t *testing.T) {
	t.Parallel()
	deps, _, _ := testDeps()
	registered := RegisterAllCommands(deps)

	want := []string{
		"/start", "/help", "/cancel", "/image",
		ButtonChat, ButtonInfo, ButtonSettings, ButtonStats, ButtonTools, ButtonHelp,
		"callback:" + CallbackChangeModel, "callback:" + CallbackSetTemp,
		"callback:" + CallbackSetMaxTokens, "callback:" + CallbackMainMenu,
	}
	if len(registered) != len(want) {
		t.Errorf("registered %d handlers, want %d", len(registered), len(want))
	}
	for _, key := range want {
		r, ok := registered[key]
		if !ok {
			t.Errorf("missing handler %q", key)
			continue
		}
		if r.Handler == nil {
			t.Errorf("handler %q is nil", key)
		}
	}
	if registered["/image"].MatchType != bot.MatchTypeCommandStartOnly {
		t.Errorf("/image match type = %v", registered["/image"].MatchType)
	}
	if registered["callback:"+CallbackMainMenu].HandlerType != bot.HandlerTypeCallbackQueryData {
		t.Errorf("main_menu callback handler type = %v", registered["callback:"+CallbackMainMenu].HandlerType)
	}
}

func TestCommandArgs(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"/image a red fox":      "a red fox",
		"/image@bot  sunset ":   "sunset",
		"/image":                "",
		"/image\nmultiline art": "multiline art",
		"plain text":            "plain text",
	}
	for in, want := range tests {
		if got := commandArgs(in); got != want {
			t.Errorf("commandArgs(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRenderAndTruncate(t *testing.T) {
	t.Parallel()
	if got := render("Hi {name}, {name}!", "name", "Bo"); got != "Hi Bo, Bo!" {
		t.Errorf("render() = %q", got)
	}
	if got := render("no placeholders"); got != "no placeholders" {
		t.Errorf("render() = %q", got)
	}
	if got := truncateRunes("héllo", 2); got != "hé" {
		t.Errorf("truncateRunes() = %q", got)
	}
	if got := truncateRunes("hi", 10); got != "hi" {
		t.Errorf("truncateRunes() = %q", got)
	}
}
