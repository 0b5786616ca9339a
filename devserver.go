package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// devBackend is an in-memory stand-in for the report service, used for
// local development and end-to-end tests.
type devBackend struct {
	mu      sync.Mutex
	reports map[string]string
}

func newDevBackend() *devBackend {
	return &devBackend{reports: make(map[string]string)}
}

// newDevServerRouter exposes the two endpoints the client uses.
func newDevServerRouter(b *devBackend) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/api", func(r chi.Router) {
		r.Post("/prompt", b.handlePrompt)
		r.Delete("/report/delete/{id}", b.handleDelete)
	})
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Info("devserver.request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", r.Header.Get("X-Request-ID"),
			"duration", time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("devserver.write_failed", "status", status, "error", err)
	}
}

func (b *devBackend) handlePrompt(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorReply{Error: "invalid request body"})
		return
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		writeJSON(w, http.StatusBadRequest, errorReply{Error: "prompt is required"})
		return
	}
	if strings.Contains(strings.ToLower(prompt), "fail") {
		writeJSON(w, http.StatusInternalServerError, errorReply{Error: "report generation failed"})
		return
	}

	id := uuid.NewString()
	title := reportTitle(prompt)
	reply := promptReply{NewHistoryItem: &NewHistoryItem{ID: id, Title: title}}
	var body string
	if strings.Contains(strings.ToLower(prompt), "chart") {
		body = chartReport(title, prompt)
		reply.Format = "html"
	} else {
		body = markdownReport(title, prompt)
		reply.Format = "markdown"
	}
	reply.Response = &body

	b.mu.Lock()
	b.reports[id] = title
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, reply)
}

func (b *devBackend) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	b.mu.Lock()
	_, ok := b.reports[id]
	delete(b.reports, id)
	b.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, errorReply{Error: "report not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func reportTitle(prompt string) string {
	title := strings.Join(strings.Fields(prompt), " ")
	if r := []rune(title); len(r) > 40 {
		title = string(r[:40]) + "…"
	}
	return title
}

func markdownReport(title, prompt string) string {
	return fmt.Sprintf("## %s\n\n"+
		"**Request:** %s\n\n"+
		"| Quarter | Revenue |\n| --- | --- |\n| Q1 | 120 |\n| Q2 | 135 |\n| Q3 | 150 |\n| Q4 | 170 |\n\n"+
		"Revenue grew *every* quarter.", title, prompt)
}

func chartReport(title, prompt string) string {
	config := map[string]any{
		"type": "line",
		"data": map[string]any{
			"labels": []string{"Q1", "Q2", "Q3", "Q4"},
			"datasets": []map[string]any{
				{"label": "Revenue", "data": []int{120, 135, 150, 170}, "borderColor": "#1A73E8"},
				{"label": "Costs", "data": []int{90, 95, 110, 115}, "borderColor": "#D93025"},
			},
		},
		"options": map[string]any{
			"plugins": map[string]any{"title": map[string]any{"display": true, "text": title}},
		},
	}
	raw, err := json.Marshal(config)
	if err != nil {
		slog.Error("devserver.chart_encode_failed", "error", err)
		return markdownReport(title, prompt)
	}
	return fmt.Sprintf(`<div class="report">`+
		`<div class="markdown-content"><pre>## %s

**Request:** %s</pre></div>`+
		`<canvas data-chart-config="%s"></canvas>`+
		`</div>`,
		html.EscapeString(title), html.EscapeString(prompt), html.EscapeString(string(raw)))
}

// runDevServer serves the stub backend until ctx is done.
func runDevServer(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           newDevServerRouter(newDevBackend()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("devserver.listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
