package endpoint

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
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

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding %s: %v", w.Body.String(), err)
	}
}

// --- Theme tests ---

func TestGradient(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"linear-gradient(90deg, red, blue)", "linear-gradient(90deg, red, blue)"},
		{"radial-gradient(red, blue)", "radial-gradient(red, blue)"},
		{"#336699", "linear-gradient(135deg, #3d7ab8 0%, #336699 100%)"},
		{"#ffffff", "linear-gradient(135deg, #ffffff 0%, #ffffff 100%)"},
		{"#000000", "linear-gradient(135deg, #000000 0%, #000000 100%)"},
		{"hsl(200, 50%, 50%)", "linear-gradient(135deg, hsl(200, 50%, 70%) 0%, hsl(200, 50%, 50%) 100%)"},
		{"hsl(10, 80%, 80%)", "linear-gradient(135deg, hsl(10, 80%, 100%) 0%, hsl(10, 80%, 80%) 100%)"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Gradient(tt.in); got != tt.want {
				t.Errorf("Gradient(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestThemeBubbleFallsBackToHeader(t *testing.T) {
	st := Defaults("demo")
	st.Colors.Header = "#336699"
	theme := st.Theme()
	if theme.ChatBubble != theme.Header {
		t.Errorf("expected bubble to use the header gradient, got %q", theme.ChatBubble)
	}

	st.Colors.ChatBubble = "linear-gradient(red, blue)"
	if got := st.Theme().ChatBubble; got != "linear-gradient(red, blue)" {
		t.Errorf("expected the explicit bubble gradient, got %q", got)
	}
}

func TestValidate(t *testing.T) {
	if err := Defaults("demo").Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	bad := []Settings{
		{Flow: FlowDevTest},
		{ID: "x", Flow: "carrier-pigeon"},
		{ID: "x", Flow: FlowWebhook},
		{ID: "x", Flow: FlowDevTest, ChatBubbleTheme: "neon"},
		{ID: "x", Flow: FlowDevTest, AllowedOrigins: []string{""}},
	}
	for _, st := range bad {
		if err := st.Validate(); err == nil {
			t.Errorf("expected an error for %+v", st)
		}
	}

	ok := Settings{ID: "x", Flow: FlowWebhook, FlowURL: "http://bot.local/hook"}
	if err := ok.Validate(); err != nil {
		t.Errorf("expected webhook with url to validate: %v", err)
	}
}

// --- Store tests ---

func TestStoreCRUD(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	st := Defaults("shop")
	st.AllowedOrigins = []string{"*.example.com"}
	st.ChatBubbleTheme = BubbleThemePill
	st.ChatBubblePillMessage = "Ask us"

	created, err := store.Create(ctx, st)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}

	got, err := store.Get(ctx, "shop")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ChatbotName != "Assistant" {
		t.Errorf("expected default name Assistant, got %q", got.ChatbotName)
	}
	if len(got.AllowedOrigins) != 1 || got.AllowedOrigins[0] != "*.example.com" {
		t.Errorf("unexpected origins %v", got.AllowedOrigins)
	}
	if got.ChatBubbleTheme != BubbleThemePill || !got.EnableJumpAnimation {
		t.Errorf("unexpected bubble settings %q, jump %v", got.ChatBubbleTheme, got.EnableJumpAnimation)
	}

	got.ChatbotName = "Shopbot"
	got.EnableJumpAnimation = false
	if _, err := store.Update(ctx, *got); err != nil {
		t.Fatalf("Update: %v", err)
	}

	again, err := store.Get(ctx, "shop")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if again.ChatbotName != "Shopbot" || again.EnableJumpAnimation {
		t.Errorf("update not persisted: %+v", again)
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 endpoint, got %d", len(list))
	}

	if err := store.Delete(ctx, "shop"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, "shop"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, "shop"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestUpdateMissing(t *testing.T) {
	store := setupTestStore(t)
	if _, err := store.Update(context.Background(), Defaults("ghost")); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// --- Route tests ---

func newRouter(store *Store, devMode bool, admin func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	RegisterRoutes(r, Resolver{Store: store, DevMode: devMode}, admin)
	return r
}

func getSettings(t *testing.T, r http.Handler, id string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/endpoints/"+id+"/settings", nil))
	return w
}

func TestPublicSettingsRoute(t *testing.T) {
	store := setupTestStore(t)
	st := Defaults("demo")
	st.Colors.Header = "#336699"
	st.FlowURL = "http://secret"
	if _, err := store.Create(context.Background(), st); err != nil {
		t.Fatal(err)
	}

	r := newRouter(store, false, nil)

	w := getSettings(t, r, "demo")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "secret") {
		t.Error("public settings leaked the flow url")
	}

	var pub PublicSettings
	decode(t, w, &pub)
	if want := "linear-gradient(135deg, #3d7ab8 0%, #336699 100%)"; pub.Theme.Header != want {
		t.Errorf("expected header %q, got %q", want, pub.Theme.Header)
	}
	if pub.ChatContainerTheme != "theme-container-default" {
		t.Errorf("unexpected container theme %q", pub.ChatContainerTheme)
	}

	if w := getSettings(t, r, "nope"); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestPublicSettingsDevModeFallback(t *testing.T) {
	w := getSettings(t, newRouter(setupTestStore(t), true, nil), "anything")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var pub PublicSettings
	decode(t, w, &pub)
	if pub.ID != "anything" {
		t.Errorf("expected id anything, got %q", pub.ID)
	}
}

func TestAdminRoutes(t *testing.T) {
	store := setupTestStore(t)
	deny := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer tok" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
	r := newRouter(store, false, deny)

	do := func(method, path, body string, auth bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		if auth {
			req.Header.Set("Authorization", "Bearer tok")
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}
	expect := func(w *httptest.ResponseRecorder, code int) {
		t.Helper()
		if w.Code != code {
			t.Fatalf("expected %d, got %d: %s", code, w.Code, w.Body.String())
		}
	}

	expect(do("GET", "/api/endpoints", "", false), http.StatusUnauthorized)

	w := do("POST", "/api/endpoints", `{"id":"help","chatbot_name":"Helper"}`, true)
	expect(w, http.StatusCreated)
	var created Settings
	decode(t, w, &created)
	if created.Flow != FlowDevTest || created.InputFieldMessage != "Type a message..." {
		t.Errorf("expected defaults filled in, got flow %q and placeholder %q", created.Flow, created.InputFieldMessage)
	}

	expect(do("POST", "/api/endpoints", `{"id":"help"}`, true), http.StatusConflict)
	expect(do("POST", "/api/endpoints", `{"id":"x","flow":"webhook"}`, true), http.StatusBadRequest)

	expect(do("PUT", "/api/endpoints/help", `{"flow":"webhook","flow_url":"http://hook","chatbot_name":"Hooked"}`, true), http.StatusOK)

	w = do("GET", "/api/endpoints/help", "", true)
	expect(w, http.StatusOK)
	var got Settings
	decode(t, w, &got)
	if got.Flow != FlowWebhook || got.ChatbotName != "Hooked" {
		t.Errorf("update not applied: flow %q, name %q", got.Flow, got.ChatbotName)
	}

	var list []Settings
	decode(t, do("GET", "/api/endpoints", "", true), &list)
	if len(list) != 1 {
		t.Errorf("expected 1 endpoint, got %d", len(list))
	}

	expect(do("DELETE", "/api/endpoints/help", "", true), http.StatusNoContent)
	expect(do("DELETE", "/api/endpoints/help", "", true), http.StatusNotFound)
}

func TestDevTestEndpointAlwaysResolves(t *testing.T) {
	w := getSettings(t, newRouter(setupTestStore(t), false, nil), DevTestEndpointID)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var pub PublicSettings
	decode(t, w, &pub)
	if pub.ChatbotName != "Dev Test Bot" {
		t.Errorf("expected Dev Test Bot, got %q", pub.ChatbotName)
	}
	if pub.EnableJumpAnimation {
		t.Error("expected jump animation off for the dev test endpoint")
	}
	if pub.Theme.Bot != "" {
		t.Errorf("expected no bot color, got %q", pub.Theme.Bot)
	}
}
