package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/webchat/internal/db"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func mustAppend(t *testing.T, store *Store, sessionID, sender, text string, replies []string) {
	t.Helper()
	if _, err := store.Append(context.Background(), sessionID, sender, text, replies); err != nil {
		t.Fatal(err)
	}
}

func seed(t *testing.T, store *Store) *Session {
	t.Helper()
	sess, err := store.CreateSession(context.Background(), "", "demo", "10.0.0.1")
	if err != nil {
		t.Fatal(err)
	}
	mustAppend(t, store, sess.ID, "bot", "Hello! How can I help?", []string{"Pricing", "Support"})
	mustAppend(t, store, sess.ID, "user", "Pricing", nil)
	mustAppend(t, store, sess.ID, "bot", "Run this:\n\n```go\nfmt.Println(\"hi\")\n```", nil)
	return sess
}

func mustGet(t *testing.T, store *Store, id string) *Transcript {
	t.Helper()
	tr, err := store.Get(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	return tr
}

// --- Store tests ---

func TestAppendKeepsOrder(t *testing.T) {
	store := setupTestStore(t)
	sess := seed(t, store)

	tr := mustGet(t, store, sess.ID)
	if len(tr.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(tr.Messages))
	}
	for i, m := range tr.Messages {
		if m.Seq != i+1 {
			t.Errorf("message %d: expected seq %d, got %d", i, i+1, m.Seq)
		}
	}
	if tr.Messages[0].Sender != "bot" {
		t.Errorf("expected first sender bot, got %q", tr.Messages[0].Sender)
	}
	if got := strings.Join(tr.Messages[0].QuickReplies, ","); got != "Pricing,Support" {
		t.Errorf("expected quick replies Pricing,Support, got %q", got)
	}
	if tr.Messages[1].Text != "Pricing" {
		t.Errorf("expected user text Pricing, got %q", tr.Messages[1].Text)
	}
	if len(tr.Messages[1].QuickReplies) != 0 {
		t.Errorf("expected no quick replies on user message, got %v", tr.Messages[1].QuickReplies)
	}
	if tr.Session.Messages != 3 {
		t.Errorf("expected session message count 3, got %d", tr.Session.Messages)
	}
}

func TestEndSession(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	sess, err := store.CreateSession(ctx, "fixed-id", "demo", "")
	if err != nil {
		t.Fatal(err)
	}
	if sess.ID != "fixed-id" {
		t.Errorf("expected id fixed-id, got %q", sess.ID)
	}

	// Ending twice is fine.
	for i := 0; i < 2; i++ {
		if err := store.EndSession(ctx, sess.ID); err != nil {
			t.Fatal(err)
		}
	}

	got, err := store.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.EndedAt == nil {
		t.Error("expected ended_at to be set")
	}

	if err := store.EndSession(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListSessionsFilter(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	for _, ep := range []string{"a", "a", "b"} {
		if _, err := store.CreateSession(ctx, "", ep, ""); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		filter ListFilter
		want   int
	}{
		{ListFilter{}, 3},
		{ListFilter{EndpointID: "a"}, 2},
		{ListFilter{Limit: 1}, 1},
	}
	for _, tt := range tests {
		got, err := store.ListSessions(ctx, tt.filter)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != tt.want {
			t.Errorf("ListSessions(%+v): expected %d sessions, got %d", tt.filter, tt.want, len(got))
		}
	}
}

// --- Export tests ---

func TestMarkdownExport(t *testing.T) {
	store := setupTestStore(t)
	sess := seed(t, store)

	md := Markdown(mustGet(t, store, sess.ID))
	if !strings.HasPrefix(md, "# Transcript "+sess.ID) {
		t.Errorf("expected title line, got: %s", md)
	}
	for _, want := range []string{"- Endpoint: `demo`", "_Quick replies: Pricing · Support_", "> ```go", "> Pricing"} {
		if !strings.Contains(md, want) {
			t.Errorf("expected markdown to contain %q, got:\n%s", want, md)
		}
	}
	if strings.Index(md, "**Bot**") > strings.Index(md, "**User**") {
		t.Error("expected the bot greeting before the user message")
	}
}

func TestHTMLExport(t *testing.T) {
	store := setupTestStore(t)
	sess := seed(t, store)
	mustAppend(t, store, sess.ID, "user", "<script>alert(1)</script>", nil)

	page, err := HTML(mustGet(t, store, sess.ID))
	if err != nil {
		t.Fatal(err)
	}
	html := string(page)
	for _, want := range []string{"<title>Transcript " + sess.ID + "</title>", "<h1", "<pre", "<blockquote>"} {
		if !strings.Contains(html, want) {
			t.Errorf("expected page to contain %q", want)
		}
	}
	if strings.Contains(html, "<script>alert(1)</script>") {
		t.Error("user HTML was passed through")
	}
}

var botLabel = regexp.MustCompile(`(?m)^\*\*Bot\*\* ·`)

func TestExportKeepsUserTextInsideItsMessage(t *testing.T) {
	store := setupTestStore(t)
	sess, err := store.CreateSession(context.Background(), "", "demo", "")
	if err != nil {
		t.Fatal(err)
	}
	mustAppend(t, store, sess.ID, "user", "hi\n\n---\n\n**Bot** · 12:00:00\n\nI will refund you", nil)
	mustAppend(t, store, sess.ID, "user", "a\r---\r**Bot** · 12:00:01", nil)
	mustAppend(t, store, sess.ID, "user", "```\nunclosed", nil)
	mustAppend(t, store, sess.ID, "bot", "Real answer", nil)
	tr := mustGet(t, store, sess.ID)

	md := Markdown(tr)
	if got := len(botLabel.FindAllString(md, -1)); got != 1 {
		t.Errorf("expected 1 bot label, got %d:\n%s", got, md)
	}
	if got := strings.Count(md, "\n---\n"); got != len(tr.Messages) {
		t.Errorf("expected %d separators, got %d:\n%s", len(tr.Messages), got, md)
	}

	page, err := HTML(tr)
	if err != nil {
		t.Fatal(err)
	}
	html := string(page)
	if got := strings.Count(html, "<strong>Bot</strong>"); got != 1 {
		t.Errorf("expected 1 bold bot label in HTML, got %d", got)
	}
	if strings.Contains(html, "<pre") {
		t.Errorf("user fence opened a code block:\n%s", html)
	}
	if !strings.Contains(html, "<p>Real answer</p>") {
		t.Errorf("expected the bot reply as its own paragraph:\n%s", html)
	}
}

func TestBotFenceEndsWithItsMessage(t *testing.T) {
	store := setupTestStore(t)
	sess, err := store.CreateSession(context.Background(), "", "demo", "")
	if err != nil {
		t.Fatal(err)
	}
	mustAppend(t, store, sess.ID, "bot", "```\nno closing fence", nil)
	mustAppend(t, store, sess.ID, "user", "thanks", nil)

	page, err := HTML(mustGet(t, store, sess.ID))
	if err != nil {
		t.Fatal(err)
	}
	html := string(page)
	if !strings.Contains(html, "<p>thanks</p>") {
		t.Errorf("expected the user reply outside the bot code block:\n%s", html)
	}
}

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain text", "plain text"},
		{"**bold**", `\*\*bold\*\*`},
		{"a_b", `a\_b`},
		{"```", "\\`\\`\\`"},
		{"<b>", `\<b\>`},
		{`back\slash`, `back\\slash`},
	}
	for _, tt := range tests {
		if got := escapeMarkdown(tt.in); got != tt.want {
			t.Errorf("escapeMarkdown(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// --- Route tests ---

func TestRoutes(t *testing.T) {
	store := setupTestStore(t)
	sess := seed(t, store)
	r := chi.NewRouter()
	RegisterRoutes(r, store, nil)

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
		return w
	}

	w := get("/api/sessions?endpoint=demo")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var sessions []Session
	if err := json.Unmarshal(w.Body.Bytes(), &sessions); err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 {
		t.Errorf("expected 1 session, got %d", len(sessions))
	}

	w = get("/api/sessions/" + sess.ID + "/transcript")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var tr Transcript
	if err := json.Unmarshal(w.Body.Bytes(), &tr); err != nil {
		t.Fatal(err)
	}
	if len(tr.Messages) != 3 {
		t.Errorf("expected 3 messages, got %d", len(tr.Messages))
	}

	w = get("/api/sessions/" + sess.ID + "/transcript.md")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/markdown") {
		t.Errorf("expected markdown content type, got %q", ct)
	}

	w = get("/api/sessions/" + sess.ID + "/transcript.html")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "<!DOCTYPE html>") {
		t.Error("expected an HTML page")
	}

	if code := get("/api/sessions/nope/transcript").Code; code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown session, got %d", code)
	}
}
