package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hpungsan/hilite/internal/notify"
	"github.com/hpungsan/hilite/internal/ops"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// NewServer creates the HTTP server for the highlights UI. Changes published
// on bus are relayed to open listing pages over /events.
func NewServer(env *ops.Env, bus *notify.Bus, version, bind string, port int) *http.Server {
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		log.Fatalf("failed to create template sub-FS: %v", err)
	}
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		log.Fatalf("failed to create static sub-FS: %v", err)
	}

	h := &Handlers{
		env:      env,
		renderer: NewRenderer(templateSub, version),
	}
	hub := NewHub(bus)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", bind, port),
		Handler:           securityHeaders(sameOriginWrites(routes(h, hub, staticSub))),
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv.RegisterOnShutdown(hub.Close)
	return srv
}

func routes(h *Handlers, hub *Hub, static fs.FS) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/highlights", http.StatusFound)
	})
	mux.HandleFunc("GET /highlights", h.HandleList)
	mux.HandleFunc("POST /highlights", h.HandleSave)
	mux.HandleFunc("GET /highlights/search", h.HandleSearch)
	mux.HandleFunc("POST /highlights/capture", h.HandleCapture)
	mux.HandleFunc("POST /highlights/clear", h.HandleClear)
	mux.HandleFunc("GET /highlights/{id}", h.HandleDetail)
	mux.HandleFunc("PATCH /highlights/{id}", h.HandleUpdate)
	mux.HandleFunc("DELETE /highlights/{id}", h.HandleDelete)
	mux.HandleFunc("POST /highlights/{id}/summary", h.HandleSummarize)
	mux.HandleFunc("GET /view", h.HandleView)
	mux.HandleFunc("GET /events", hub.HandleEvents)

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))
	return mux
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self'; connect-src 'self'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// sameOriginWrites rejects state-changing requests that another site's page
// sent from the user's browser.
func sameOriginWrites(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
		default:
			if r.Header.Get("Sec-Fetch-Site") == "cross-site" || !sameOrigin(r) {
				log.Printf("[web] rejected cross-origin %s %s (origin %q)", r.Method, r.URL.Path, r.Header.Get("Origin"))
				http.Error(w, "cross-origin request rejected", http.StatusForbidden)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Printf("[web] Hilite UI running at http://%s", srv.Addr)
	if strings.HasPrefix(srv.Addr, "0.0.0.0:") || strings.HasPrefix(srv.Addr, "[::]:") || strings.HasPrefix(srv.Addr, ":") {
		log.Printf("[web] WARNING: server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		log.Println("[web] shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
