// Entry point for the designlab overlay server — chi router, shield
// middleware, session-scoped SQLite state, optional live Chrome
// attachment and optional MCP stdio transport.
package main

import (
	"context"
	"embed"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"github.com/designlab/overlay/browser"
	"github.com/designlab/overlay/config"
	"github.com/designlab/overlay/dbopen"
	"github.com/designlab/overlay/dom"
	"github.com/designlab/overlay/export"
	"github.com/designlab/overlay/idgen"
	"github.com/designlab/overlay/observability"
	"github.com/designlab/overlay/overlay"
	"github.com/designlab/overlay/report"
	"github.com/designlab/overlay/shield"
	"github.com/designlab/overlay/store"
)

//go:embed static
var staticFS embed.FS

func main() {
	// Config: YAML file, then env overrides.
	var cfg *config.Config
	if path := env("CONFIG", ""); path != "" {
		loaded, err := config.LoadFile(path)
		if err != nil {
			slog.Error("config", "error", err)
			os.Exit(1)
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}
	cfg.Listen = env("LISTEN", cfg.Listen)
	cfg.Target = env("TARGET", cfg.Target)
	cfg.LogLevel = env("LOG_LEVEL", cfg.LogLevel)
	cfg.Session.DBPath = env("SESSION_DB", cfg.Session.DBPath)
	cfg.Browser.Remote = env("BROWSER_REMOTE", cfg.Browser.Remote)
	cfg.Browser.PageURL = env("PAGE_URL", cfg.Browser.PageURL)
	if os.Getenv("BROWSER_ATTACH") == "1" {
		cfg.Browser.Attach = true
	}
	if v := os.Getenv("VARIANTS"); v != "" {
		cfg.Variants = strings.Split(v, ",")
	}
	if len(cfg.Variants) == 0 {
		cfg.Variants = store.DefaultVariants
	}
	if pw := os.Getenv("ADMIN_PASSWORD"); pw != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
		if err != nil {
			slog.Error("admin password hash", "error", err)
			os.Exit(1)
		}
		cfg.Admin.PasswordHash = string(hash)
	}

	// Logging.
	var lvl slog.Level
	switch cfg.LogLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sessionID := idgen.Prefixed("rev_", idgen.NanoID(12))()
	logger.Info("review session", "session_id", sessionID, "target", cfg.Target, "variants", cfg.Variants)

	// Session state DB (optional): comment mirror + lifecycle events.
	var storage store.Storage
	var events overlay.Events
	if cfg.Session.DBPath != "" {
		db, err := dbopen.Open(cfg.Session.DBPath, dbopen.WithMkdirAll())
		if err != nil {
			slog.Error("session db", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := store.PruneSessions(db, time.Duration(cfg.Session.RetentionDays)*24*time.Hour); err != nil {
			slog.Warn("prune sessions", "error", err)
		}
		sqliteStorage, err := store.NewSQLite(db, sessionID)
		if err != nil {
			slog.Error("session storage", "error", err)
			os.Exit(1)
		}
		storage = sqliteStorage

		eventLogger, err := observability.NewEventLogger(db, sessionID)
		if err != nil {
			slog.Error("event logger", "error", err)
			os.Exit(1)
		}
		events = eventLogger
	}

	// Page document and clipboard: live Chrome when attached, plain
	// HTTP fetch otherwise, empty document as the last resort.
	doc, clipboard, detach := attachPage(ctx, cfg, logger)
	defer detach()

	st := store.New(store.Config{
		Variants: cfg.Variants,
		Storage:  storage,
		Logger:   logger,
	})

	session, err := overlay.New(overlay.Config{
		Target:    cfg.Target,
		Document:  doc,
		Store:     st,
		Clipboard: clipboard,
		Events:    events,
		Logger:    logger,
		OnExport: func(p report.Payload) {
			if out := env("EXPORT_FILE", ""); out != "" {
				if err := export.Download(out, p); err != nil {
					logger.Warn("export file", "error", err, "path", out)
				} else {
					logger.Info("export written", "path", out)
				}
			}
		},
	})
	if err != nil {
		slog.Error("overlay session", "error", err)
		os.Exit(1)
	}

	// Optional MCP stdio transport.
	if env("MCP_TRANSPORT", "") == "stdio" {
		mcpSrv := mcp.NewServer(&mcp.Implementation{
			Name:    "designlab",
			Version: "1.0.0",
		}, nil)
		session.RegisterMCP(mcpSrv)
		go func() {
			slog.Info("MCP stdio starting")
			if err := mcpSrv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
				slog.Error("MCP stdio", "error", err)
			}
		}()
	}

	// Router.
	r := chi.NewRouter()
	for _, mw := range shield.DefaultStack() {
		r.Use(mw)
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]string{"status": "ok", "session": sessionID})
	})

	// Demo page with variant containers, for trying the overlay without
	// a host application.
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		f, err := staticFS.Open("static/index.html")
		if err != nil {
			http.Error(w, "not found", 404)
			return
		}
		defer f.Close()
		io.Copy(w, f)
	})

	r.Mount("/overlay", http.StripPrefix("/overlay", session.Handler()))

	if cfg.Admin.PasswordHash != "" {
		overlayHandler := session.Handler()
		r.With(basicAuth(cfg.Admin.PasswordHash)).Get("/admin/comments", func(w http.ResponseWriter, req *http.Request) {
			proxied := req.Clone(req.Context())
			proxied.URL.Path = "/comments.html"
			overlayHandler.ServeHTTP(w, proxied)
		})
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}

// attachPage resolves the document snapshot and clipboard for the
// session. Failures degrade: a broken Chrome attachment falls back to
// an HTTP fetch, a broken fetch to an empty document. The manual
// clipboard is always the last link in the chain.
func attachPage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dom.Document, export.Clipboard, func()) {
	manual := export.NewManual()
	detach := func() {}

	if cfg.Browser.Attach && cfg.Browser.PageURL != "" {
		mgr := browser.NewManager(browser.Config{
			RemoteURL: cfg.Browser.Remote,
			Headful:   cfg.Browser.Headful,
			Stealth:   cfg.Browser.Stealth,
			Logger:    logger,
		})
		if _, err := mgr.Start(ctx); err != nil {
			logger.Warn("browser attach failed, falling back to fetch", "error", err)
		} else {
			page, err := mgr.Open(ctx, cfg.Browser.PageURL)
			if err != nil {
				logger.Warn("browser open failed, falling back to fetch", "error", err)
				mgr.Close()
			} else {
				doc, err := dom.FromRod(ctx, page, cfg.Variants)
				if err != nil {
					logger.Warn("page snapshot failed, falling back to fetch", "error", err)
					mgr.Close()
				} else {
					clip := export.Chain(export.NewRodClipboard(page, logger), manual)
					return doc, clip, func() { mgr.Close() }
				}
			}
		}
	}

	if cfg.Browser.PageURL != "" {
		resp, err := http.Get(cfg.Browser.PageURL)
		if err != nil {
			logger.Warn("page fetch failed", "error", err, "url", cfg.Browser.PageURL)
		} else {
			defer resp.Body.Close()
			doc, err := dom.Parse(resp.Body, cfg.Variants)
			if err != nil {
				logger.Warn("page parse failed", "error", err)
			} else {
				logger.Info("page fetched without geometry", "url", cfg.Browser.PageURL)
				return doc, manual, detach
			}
		}
	}

	doc, _ := dom.ParseString("<!DOCTYPE html><html><body></body></html>", cfg.Variants)
	return doc, manual, detach
}

func basicAuth(passwordHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, pass, ok := r.BasicAuth()
			if !ok || bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(pass)) != nil {
				w.Header().Set("WWW-Authenticate", `Basic realm="designlab"`)
				writeJSON(w, 401, map[string]string{"error": "unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// --- Helpers ---

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response", "error", err)
	}
}
