// Package widget serves the embeddable chat widget script, its stylesheet
// and a demo page that embeds it.
package widget

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/webchat/internal/endpoint"
)

//go:embed assets/widget.js
var widgetJS []byte

//go:embed assets/widget.css
var widgetCSS []byte

//go:embed assets/demo.html
var assets embed.FS

var demoTmpl = template.Must(template.ParseFS(assets, "assets/demo.html"))

// RegisterRoutes mounts the widget assets and the demo page on r.
func RegisterRoutes(r chi.Router) {
	r.Get("/", handleDemo)
	r.Get("/widget.js", serveAsset(widgetJS, "application/javascript; charset=utf-8"))
	r.Get("/widget.css", serveAsset(widgetCSS, "text/css; charset=utf-8"))
}

func serveAsset(body []byte, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=300")
		w.Write(body)
	}
}

type demoData struct {
	Base     string
	Endpoint string
}

// handleDemo renders the demo page. ?endpoint= selects the widget endpoint;
// the dev test endpoint is used otherwise.
func handleDemo(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("endpoint")
	if id == "" {
		id = endpoint.DevTestEndpointID
	}

	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := demoTmpl.Execute(w, demoData{Base: scheme + "://" + r.Host, Endpoint: id}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
