package endpoint

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// PublicSettings is what the widget fetches before it draws itself. It
// leaves out the bot wiring and origin policy.
type PublicSettings struct {
	ID                    string `json:"id"`
	ChatbotName           string `json:"chatbot_name"`
	Colors                Colors `json:"colors"`
	Theme                 Theme  `json:"theme"`
	InputFieldMessage     string `json:"input_field_message"`
	SendButton            string `json:"send_button"`
	ChatBubbleMessage     string `json:"chat_bubble_message,omitempty"`
	ChatBubblePillMessage string `json:"chat_bubble_pill_message,omitempty"`
	ChatBubbleTheme       string `json:"chat_bubble_theme"`
	ChatContainerTheme    string `json:"chat_container_theme"`
	EnableJumpAnimation   bool   `json:"enable_jump_animation"`
}

// Public returns the browser-facing view of s with theme defaults applied.
func (s Settings) Public() PublicSettings {
	bubbleTheme := s.ChatBubbleTheme
	if bubbleTheme == "" {
		bubbleTheme = BubbleThemeDefault
	}
	containerTheme := s.ChatContainerTheme
	if containerTheme == "" {
		containerTheme = "theme-container-default"
	}
	pill := s.ChatBubblePillMessage
	if bubbleTheme == BubbleThemePill && pill == "" {
		pill = "Default message"
	}
	return PublicSettings{
		ID:                    s.ID,
		ChatbotName:           s.ChatbotName,
		Colors:                s.Colors,
		Theme:                 s.Theme(),
		InputFieldMessage:     s.InputFieldMessage,
		SendButton:            s.SendButton,
		ChatBubbleMessage:     s.ChatBubbleMessage,
		ChatBubblePillMessage: pill,
		ChatBubbleTheme:       bubbleTheme,
		ChatContainerTheme:    containerTheme,
		EnableJumpAnimation:   s.EnableJumpAnimation,
	}
}

// Resolver finds the settings for an endpoint id. DevTestEndpointID
// resolves to DevTestSettings unless it is stored. In dev mode other
// unknown ids resolve to Defaults so the dev test bot answers everywhere.
type Resolver struct {
	Store   *Store
	DevMode bool
}

// Resolve returns the settings for id.
func (r Resolver) Resolve(req *http.Request, id string) (*Settings, error) {
	st, err := r.Store.Get(req.Context(), id)
	if !errors.Is(err, ErrNotFound) {
		return st, err
	}
	switch {
	case id == DevTestEndpointID:
		d := DevTestSettings()
		return &d, nil
	case r.DevMode && id != "":
		d := Defaults(id)
		return &d, nil
	}
	return nil, err
}

// RegisterRoutes mounts the endpoint API. Reads of public settings are
// open; everything else goes through admin.
func RegisterRoutes(r chi.Router, resolver Resolver, admin func(http.Handler) http.Handler) {
	r.Route("/api/endpoints", func(r chi.Router) {
		r.Get("/{id}/settings", handlePublicSettings(resolver))

		r.Group(func(r chi.Router) {
			if admin != nil {
				r.Use(admin)
			}
			r.Get("/", handleList(resolver.Store))
			r.Post("/", handleCreate(resolver.Store))
			r.Get("/{id}", handleGet(resolver.Store))
			r.Put("/{id}", handleUpdate(resolver.Store))
			r.Delete("/{id}", handleDelete(resolver.Store))
		})
	})
}

func handlePublicSettings(resolver Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := resolver.Resolve(r, chi.URLParam(r, "id"))
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st.Public())
	}
}

func handleList(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if list == nil {
			list = []Settings{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func handleCreate(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body Settings
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		st := withDefaults(body)
		if err := st.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if _, err := store.Get(r.Context(), st.ID); err == nil {
			writeError(w, http.StatusConflict, "endpoint already exists")
			return
		}

		created, err := store.Create(r.Context(), st)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func handleGet(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := store.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

func handleUpdate(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var st Settings
		if err := json.NewDecoder(r.Body).Decode(&st); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		st.ID = chi.URLParam(r, "id")
		if err := st.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		updated, err := store.Update(r.Context(), st)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func handleDelete(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// withDefaults fills the display fields a create request left blank.
func withDefaults(st Settings) Settings {
	d := Defaults(st.ID)
	if st.Flow == "" {
		st.Flow = d.Flow
	}
	if st.ChatbotName == "" {
		st.ChatbotName = d.ChatbotName
	}
	if st.Colors.Header == "" {
		st.Colors.Header = d.Colors.Header
	}
	if st.Colors.User == "" {
		st.Colors.User = d.Colors.User
	}
	if st.Colors.Bot == "" {
		st.Colors.Bot = d.Colors.Bot
	}
	if st.InputFieldMessage == "" {
		st.InputFieldMessage = d.InputFieldMessage
	}
	if st.SendButton == "" {
		st.SendButton = d.SendButton
	}
	return st
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
