package overlay

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/designlab/overlay/report"
	"github.com/designlab/overlay/store"
)

// Handler returns an http.Handler serving all overlay endpoints.
// The caller must strip the URL prefix before passing requests.
//
//	chi:      r.Mount("/overlay", http.StripPrefix("/overlay", s.Handler()))
//	ServeMux: s.RegisterMux(mux, "/overlay")
func (s *Session) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			if id, ok := strings.CutPrefix(r.URL.Path, "/comments/"); ok && id != "" {
				s.handleDelete(w, r, id)
				return
			}
			http.NotFound(w, r)
			return
		}

		switch r.Method + " " + r.URL.Path {
		case "POST /toggle":
			s.handleToggle(w, r)
		case "POST /hover":
			s.handleHover(w, r)
		case "POST /click":
			s.handleClick(w, r)
		case "POST /save":
			s.handleSave(w, r)
		case "POST /cancel":
			s.handleCancel(w, r)
		case "POST /overall":
			s.handleOverall(w, r)
		case "POST /submit":
			s.handleSubmit(w, r)
		case "GET /state":
			s.handleState(w, r)
		case "GET /report.md":
			s.handleReportMarkdown(w, r)
		case "GET /report.json":
			s.handleReportJSON(w, r)
		case "GET /widget.js":
			s.handleWidgetJS(w, r)
		case "GET /widget.css":
			s.handleWidgetCSS(w, r)
		case "GET /comments.html":
			s.handleListHTML(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// RegisterMux registers overlay routes directly on a standard ServeMux
// with explicit method+path patterns (Go 1.22+).
func (s *Session) RegisterMux(mux *http.ServeMux, basePath string) {
	bp := strings.TrimRight(basePath, "/")
	mux.HandleFunc("POST "+bp+"/toggle", s.handleToggle)
	mux.HandleFunc("POST "+bp+"/hover", s.handleHover)
	mux.HandleFunc("POST "+bp+"/click", s.handleClick)
	mux.HandleFunc("POST "+bp+"/save", s.handleSave)
	mux.HandleFunc("POST "+bp+"/cancel", s.handleCancel)
	mux.HandleFunc("POST "+bp+"/overall", s.handleOverall)
	mux.HandleFunc("POST "+bp+"/submit", s.handleSubmit)
	mux.HandleFunc("DELETE "+bp+"/comments/{id}", func(w http.ResponseWriter, r *http.Request) {
		s.handleDelete(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("GET "+bp+"/state", s.handleState)
	mux.HandleFunc("GET "+bp+"/report.md", s.handleReportMarkdown)
	mux.HandleFunc("GET "+bp+"/report.json", s.handleReportJSON)
	mux.HandleFunc("GET "+bp+"/widget.js", s.handleWidgetJS)
	mux.HandleFunc("GET "+bp+"/widget.css", s.handleWidgetCSS)
	mux.HandleFunc("GET "+bp+"/comments.html", s.handleListHTML)
}

// pointerEvent is the widget's hover/click payload: viewport pixel
// coordinates plus the child-index path from document body to the
// event target.
type pointerEvent struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Path []int   `json:"path"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 32*1024)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		jsonErr(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func jsonErr(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Session) handleToggle(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"state": s.Toggle()})
}

func (s *Session) handleHover(w http.ResponseWriter, r *http.Request) {
	var ev pointerEvent
	if !decodeJSON(w, r, &ev) {
		return
	}
	rect, ok := s.Hover(ev.X, ev.Y, ev.Path)
	resp := map[string]any{"active": ok}
	if ok {
		resp["highlight"] = rect
	}
	writeJSON(w, resp)
}

func (s *Session) handleClick(w http.ResponseWriter, r *http.Request) {
	var ev pointerEvent
	if !decodeJSON(w, r, &ev) {
		return
	}
	captured, ok := s.Click(ev.X, ev.Y, ev.Path)
	resp := map[string]any{"captured": ok, "state": s.State()}
	if ok {
		resp["capture"] = captured
	}
	writeJSON(w, resp)
}

func (s *Session) handleSave(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := s.Save(req.Text)
	if err != nil {
		jsonErr(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, c)
}

func (s *Session) handleCancel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"state": s.Cancel()})
}

func (s *Session) handleOverall(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	s.SetOverall(req.Text)
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Session) handleSubmit(w http.ResponseWriter, r *http.Request) {
	payload, err := s.Submit(r.Context())
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]any{"errors": verr.Messages})
			return
		}
		jsonErr(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, payload)
}

func (s *Session) handleDelete(w http.ResponseWriter, r *http.Request, id string) {
	if !s.DeleteComment(id) {
		jsonErr(w, "unknown comment id", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// stateView is the sidebar's full rendering model.
type stateView struct {
	State    State                `json:"state"`
	Target   string               `json:"target"`
	Variants []string             `json:"variants"`
	Comments []store.VariantGroup `json:"comments"`
	Overall  string               `json:"overall"`
	Pending  *Capture             `json:"pending,omitempty"`
}

func (s *Session) handleState(w http.ResponseWriter, r *http.Request) {
	view := stateView{
		State:    s.State(),
		Target:   s.target,
		Variants: s.store.Variants(),
		Comments: s.store.ByVariant(),
		Overall:  s.store.Overall(),
	}
	if p, ok := s.Pending(); ok {
		view.Pending = &p
	}
	writeJSON(w, view)
}

func (s *Session) handleReportMarkdown(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(s.Markdown()))
}

func (s *Session) handleReportJSON(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Payload())
}

// commentView is the template-friendly projection of a Comment.
type commentView struct {
	Path     string
	Selector string
	Text     template.HTML // sanitized before trusting
	SavedAt  string
}

var listHTMLTmpl = template.Must(template.New("list").Parse(`<!DOCTYPE html>
<html lang="en"><head><meta charset="UTF-8"><meta name="viewport" content="width=device-width,initial-scale=1">
<title>Comments — {{.Target}}</title>
<style>
body{font-family:system-ui,sans-serif;max-width:800px;margin:2rem auto;padding:0 1rem;color:#222;background:#fafafa}
h1{font-size:1.4rem;border-bottom:2px solid #e0e0e0;padding-bottom:.5rem}
h2{font-size:1.1rem;color:#444}
.comment{background:#fff;border:1px solid #e0e0e0;border-radius:6px;padding:1rem;margin-bottom:1rem}
.meta{font-size:.8rem;color:#666;margin-top:.5rem}
code{background:#f0f0f0;padding:.1rem .3rem;border-radius:3px;font-size:.85em}
.overall{background:#fff8e6;border:1px solid #ecd9a0;border-radius:6px;padding:1rem}
.empty{color:#999;font-style:italic}
</style></head><body>
<h1>Comments — {{.Target}} ({{.Count}})</h1>
{{- if eq .Count 0}}
<p class="empty">No comments yet.</p>
{{- end}}
{{- range .Groups}}
<h2>Variant {{.Variant}}</h2>
{{- range .Comments}}
<div class="comment"><p>{{.Text}}</p><div class="meta">{{.Path}} &mdash; <code>{{.Selector}}</code> &mdash; {{.SavedAt}}</div></div>
{{- end}}
{{- end}}
{{- if .Overall}}
<h2>Overall Direction</h2>
<div class="overall">{{.Overall}}</div>
{{- end}}
</body></html>`))

type groupView struct {
	Variant  string
	Comments []commentView
}

func (s *Session) handleListHTML(w http.ResponseWriter, r *http.Request) {
	groups := s.store.ByVariant()
	views := make([]groupView, len(groups))
	count := 0
	for i, g := range groups {
		gv := groupView{Variant: g.Variant, Comments: make([]commentView, len(g.Comments))}
		for j, c := range g.Comments {
			gv.Comments[j] = commentView{
				Path:     c.Element.ReadablePath,
				Selector: c.Element.Selector,
				Text:     template.HTML(report.Sanitize(c.Text)),
				SavedAt:  c.Timestamp.Format("2006-01-02 15:04"),
			}
			count++
		}
		views[i] = gv
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	listHTMLTmpl.Execute(w, struct {
		Target  string
		Count   int
		Groups  []groupView
		Overall template.HTML
	}{
		Target:  s.target,
		Count:   count,
		Groups:  views,
		Overall: template.HTML(report.Sanitize(s.store.Overall())),
	})
}
