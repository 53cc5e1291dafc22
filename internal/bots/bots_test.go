package bots

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/webchat/internal/endpoint"
	"github.com/ziadkadry99/webchat/internal/llm"
)

// sink collects delivered replies.
type sink struct {
	mu      sync.Mutex
	replies []Reply
}

func (s *sink) deliver(r Reply) {
	s.mu.Lock()
	s.replies = append(s.replies, r)
	s.mu.Unlock()
}

func (s *sink) texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.replies))
	for i, r := range s.replies {
		out[i] = r.Text
	}
	return out
}

// echo answers with the text it got, optionally failing on "boom".
type echo struct {
	mu    sync.Mutex
	ended []string
}

func (e *echo) Respond(_ context.Context, in Incoming) ([]Reply, error) {
	if in.Text == "boom" {
		return nil, errors.New("exploded")
	}
	return []Reply{{Text: "echo: " + in.Text}}, nil
}

func (e *echo) EndSession(id string) {
	e.mu.Lock()
	e.ended = append(e.ended, id)
	e.mu.Unlock()
}

func runGateway(t *testing.T, g *Gateway) (cancel func()) {
	t.Helper()
	ctx, cancelCtx := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := g.Run(ctx); err != nil {
			t.Errorf("Run: %v", err)
		}
	}()
	return func() {
		cancelCtx()
		<-done
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for replies")
		}
		time.Sleep(time.Millisecond)
	}
}

// --- Gateway tests ---

func TestGatewayAnswersInOrder(t *testing.T) {
	out := &sink{}
	bot := &echo{}
	g := NewGateway(bot, Incoming{SessionID: "s1", EndpointID: "demo"}, out.deliver, nil)
	stop := runGateway(t, g)

	ctx := context.Background()
	for _, text := range []string{"one", "boom", "two"} {
		if err := g.Submit(ctx, text); err != nil {
			t.Fatalf("Submit(%q): %v", text, err)
		}
	}

	waitFor(t, func() bool { return len(out.texts()) == 3 })
	if want := []string{"echo: one", ApologyText, "echo: two"}; !slices.Equal(out.texts(), want) {
		t.Errorf("expected %q, got %q", want, out.texts())
	}

	stop()
	if !slices.Equal(bot.ended, []string{"s1"}) {
		t.Errorf("expected session s1 ended, got %v", bot.ended)
	}
	if err := g.Submit(ctx, "late"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed after stop, got %v", err)
	}
}

func TestGatewayGreetsFirst(t *testing.T) {
	out := &sink{}
	dev := &DevTest{Pick: func(int) int { return 2 }}
	g := NewGateway(dev, Incoming{SessionID: "s1"}, out.deliver, nil)
	stop := runGateway(t, g)
	defer stop()

	if err := g.Submit(context.Background(), "hi"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return len(out.texts()) == 2 })

	out.mu.Lock()
	defer out.mu.Unlock()
	if out.replies[0].Text != devTestGreeting {
		t.Errorf("expected the greeting first, got %q", out.replies[0].Text)
	}
	if want := []string{"Tell me more", "What can you do?", "Goodbye", "This is a long quick reply", "Test"}; !slices.Equal(out.replies[0].QuickReplies, want) {
		t.Errorf("unexpected greeting replies %v", out.replies[0].QuickReplies)
	}
	if out.replies[1].Text != "Thanks for sharing that with me." {
		t.Errorf("unexpected answer %q", out.replies[1].Text)
	}
	if want := []string{"Tell me more", "What else?", "Thanks", "Goodbye"}; !slices.Equal(out.replies[1].QuickReplies, want) {
		t.Errorf("unexpected answer replies %v", out.replies[1].QuickReplies)
	}
}

func TestGatewayCancelDropsDelayedReplies(t *testing.T) {
	out := &sink{}
	dev := &DevTest{GreetDelay: time.Hour}
	g := NewGateway(dev, Incoming{SessionID: "s1"}, out.deliver, nil)
	stop := runGateway(t, g)

	time.Sleep(10 * time.Millisecond)
	stop()
	if got := out.texts(); len(got) != 0 {
		t.Errorf("expected no replies after cancel, got %q", got)
	}
}

func TestDevTestTimings(t *testing.T) {
	dev := NewDevTest()
	greet, err := dev.Greet(context.Background(), Incoming{})
	if err != nil {
		t.Fatal(err)
	}
	if len(greet) != 1 || greet[0].Delay != time.Second {
		t.Fatalf("expected one greeting after 1s, got %+v", greet)
	}

	for i := 0; i < 50; i++ {
		replies, err := dev.Respond(context.Background(), Incoming{Text: "x"})
		if err != nil {
			t.Fatal(err)
		}
		if len(replies) != 1 {
			t.Fatalf("expected 1 reply, got %d", len(replies))
		}
		if replies[0].Delay >= time.Second {
			t.Errorf("expected a delay under 1s, got %v", replies[0].Delay)
		}
		if !slices.Contains(devTestResponses, replies[0].Text) {
			t.Errorf("unexpected response %q", replies[0].Text)
		}
	}
}

// scriptedProvider returns numbered answers and records what it was sent.
type scriptedProvider struct {
	mu    sync.Mutex
	calls [][]llm.Message
	err   error
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	p.calls = append(p.calls, req.Messages)
	return &llm.CompletionResponse{Content: " answer " + strconv.Itoa(len(p.calls)) + "\n"}, nil
}

// --- LLM flow tests ---

func TestLLMKeepsHistoryPerSession(t *testing.T) {
	p := &scriptedProvider{}
	bot := NewLLM(p, "Helper", 10)
	ctx := context.Background()

	respond := func(session, text string) []Reply {
		t.Helper()
		replies, err := bot.Respond(ctx, Incoming{SessionID: session, Text: text})
		if err != nil {
			t.Fatalf("Respond(%s, %q): %v", session, text, err)
		}
		return replies
	}

	if r1 := respond("a", "hi"); r1[0].Text != "answer 1" {
		t.Errorf("expected trimmed answer, got %q", r1[0].Text)
	}
	respond("a", "and?")
	respond("b", "fresh")

	if len(p.calls) != 3 {
		t.Fatalf("expected 3 calls, got %d", len(p.calls))
	}
	if sys := p.calls[0][0]; sys.Role != llm.RoleSystem || !strings.Contains(sys.Content, "Helper") {
		t.Errorf("expected a system prompt naming the bot, got %+v", sys)
	}

	second := p.calls[1]
	if len(second) != 4 {
		t.Fatalf("expected 4 messages in the second call, got %d", len(second))
	}
	for i, want := range []string{"hi", "answer 1", "and?"} {
		if second[i+1].Content != want {
			t.Errorf("history[%d]: expected %q, got %q", i+1, want, second[i+1].Content)
		}
	}

	if len(p.calls[2]) != 2 {
		t.Errorf("session b must not see session a, got %d messages", len(p.calls[2]))
	}

	bot.EndSession("a")
	respond("a", "again")
	if len(p.calls[3]) != 2 {
		t.Errorf("expected history reset after EndSession, got %d messages", len(p.calls[3]))
	}
}

func TestLLMErrorIsWrapped(t *testing.T) {
	bot := NewLLM(&scriptedProvider{err: errors.New("quota")}, "", 4)
	_, err := bot.Respond(context.Background(), Incoming{SessionID: "a", Text: "hi"})
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "scripted") || !strings.Contains(err.Error(), "quota") {
		t.Errorf("expected provider name and cause, got %v", err)
	}
}

// --- Webhook tests ---

func TestWebhookRoundTrip(t *testing.T) {
	var got webhookRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if !verifySignature(r, "s3cret", body, time.Now()) {
			http.Error(w, "bad signature", http.StatusUnauthorized)
			return
		}
		json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"messages":[{"text":"first","quick_replies":["A","B"]},{"text":"second"}]}`))
	}))
	defer srv.Close()

	hook := NewWebhook(srv.URL, "s3cret", time.Second)
	replies, err := hook.Respond(context.Background(), Incoming{SessionID: "s1", EndpointID: "demo", Text: "hello"})
	if err != nil {
		t.Fatal(err)
	}

	if want := (webhookRequest{SessionID: "s1", EndpointID: "demo", Text: "hello"}); got != want {
		t.Errorf("expected request %+v, got %+v", want, got)
	}
	if len(replies) != 2 {
		t.Fatalf("expected 2 replies, got %d", len(replies))
	}
	if !slices.Equal(replies[0].QuickReplies, []string{"A", "B"}) || replies[1].Text != "second" {
		t.Errorf("unexpected replies %+v", replies)
	}
}

func TestWebhookErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewWebhook(srv.URL, "", time.Second).Respond(context.Background(), Incoming{Text: "x"})
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Errorf("expected an error naming the 503 status, got %v", err)
	}
}

func TestSignatureRejectsTamperingAndSkew(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	body := []byte(`{"messages":[]}`)

	req := httptest.NewRequest("POST", "/", nil)
	setSignature(req, "k", body, now)
	if !verifySignature(req, "k", body, now) {
		t.Error("expected a valid signature to verify")
	}

	tests := []struct {
		name   string
		req    *http.Request
		secret string
		body   []byte
		at     time.Time
	}{
		{"wrong secret", req, "other", body, now},
		{"tampered body", req, "k", []byte(`{}`), now},
		{"clock skew", req, "k", body, now.Add(10 * time.Minute)},
		{"unsigned", httptest.NewRequest("POST", "/", nil), "k", body, now},
	}
	for _, tt := range tests {
		if verifySignature(tt.req, tt.secret, tt.body, tt.at) {
			t.Errorf("%s: expected the signature to be rejected", tt.name)
		}
	}
}

// --- Push route tests ---

type fakePusher struct {
	session string
	replies []Reply
}

func (f *fakePusher) Push(id string, replies []Reply) error {
	if id != "live" {
		return ErrUnknownSession
	}
	f.session, f.replies = id, replies
	return nil
}

func TestPushHandler(t *testing.T) {
	pusher := &fakePusher{}
	h := NewPushHandler(pusher, "k")
	r := chi.NewRouter()
	RegisterRoutes(r, h)

	body := []byte(`{"messages":[{"text":"ping","quick_replies":["pong"]}]}`)
	post := func(path string, signed bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", path, bytes.NewReader(body))
		if signed {
			setSignature(req, "k", body, time.Now())
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	if code := post("/api/bots/sessions/live/messages", false).Code; code != http.StatusUnauthorized {
		t.Errorf("unsigned push: expected 401, got %d", code)
	}
	if code := post("/api/bots/sessions/gone/messages", true).Code; code != http.StatusNotFound {
		t.Errorf("unknown session: expected 404, got %d", code)
	}

	w := post("/api/bots/sessions/live/messages", true)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	if pusher.session != "live" || len(pusher.replies) != 1 {
		t.Fatalf("unexpected push %q %+v", pusher.session, pusher.replies)
	}
	if !slices.Equal(pusher.replies[0].QuickReplies, []string{"pong"}) {
		t.Errorf("unexpected quick replies %v", pusher.replies[0].QuickReplies)
	}
}

// --- Factory tests ---

func TestFactoryFlows(t *testing.T) {
	f := NewFactory(Deps{})

	r, err := f.For(endpoint.Settings{Flow: endpoint.FlowDevTest})
	if _, ok := r.(*DevTest); err != nil || !ok {
		t.Errorf("dev test flow: got %T, %v", r, err)
	}

	if _, err := f.For(endpoint.Settings{Flow: endpoint.FlowLLM}); err == nil {
		t.Error("expected llm flow without a provider to fail")
	}

	r, err = NewFactory(Deps{LLM: &scriptedProvider{}}).For(endpoint.Settings{Flow: endpoint.FlowLLM})
	if _, ok := r.(*LLM); err != nil || !ok {
		t.Errorf("llm flow: got %T, %v", r, err)
	}

	r, err = f.For(endpoint.Settings{Flow: endpoint.FlowWebhook, FlowURL: "http://x"})
	if _, ok := r.(*Webhook); err != nil || !ok {
		t.Errorf("webhook flow: got %T, %v", r, err)
	}

	if _, err := f.For(endpoint.Settings{Flow: "other"}); err == nil {
		t.Error("expected an unknown flow to fail")
	}
}
