package overlay

import (
	_ "embed"
	"net/http"
)

//go:embed widget.js
var widgetJS []byte

//go:embed widget.css
var widgetCSS []byte

func (s *Session) handleWidgetJS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(widgetJS)
}

func (s *Session) handleWidgetCSS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(widgetCSS)
}
