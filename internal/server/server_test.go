package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ceo-dashboard/internal/config"
	"ceo-dashboard/internal/generator"
	"ceo-dashboard/internal/insights"
	"ceo-dashboard/internal/services"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testServer(t *testing.T, regenerate func(context.Context) error) *Server {
	t.Helper()
	g := generator.New(11, func() time.Time { return time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC) })
	a := services.NewAnalytics(services.WithLogger(quietLogger()))
	a.SetData(g.GenerateTransactions(60, 200), g.GenerateInventory())

	return NewServer(Dependencies{
		Analytics: a,
		Advisor:   insights.NewAdvisor(a, nil, quietLogger(), 0),
		Logger:    quietLogger(),
		Templates: &TemplateHandlers{Dashboard: func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			io.WriteString(w, "<html></html>")
		}},
		Regenerate: regenerate,
	})
}

func TestServer_Routes(t *testing.T) {
	srv := testServer(t, nil)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/api/kpis", http.StatusOK},
		{http.MethodGet, "/api/timeseries?period=week", http.StatusOK},
		{http.MethodGet, "/api/inventory", http.StatusOK},
		{http.MethodGet, "/sse/kpis", http.StatusOK},
		{http.MethodPost, "/api/kpis", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/unknown", http.StatusNotFound},
		{http.MethodGet, "/nope", http.StatusNotFound},
		{http.MethodPost, "/admin/regenerate", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestServer_Regenerate(t *testing.T) {
	calls := 0
	srv := testServer(t, func(context.Context) error {
		calls++
		if calls > 1 {
			return errors.New("disk full")
		}
		return nil
	})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/regenerate", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("first regenerate status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/regenerate", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("failing regenerate status = %d", rec.Code)
	}
}

func TestGracefulServer_ShutdownRunsHooks(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	httpServer := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})}
	gs := NewGracefulServer(httpServer, quietLogger(), cfg)

	hookRan := make(chan struct{}, 1)
	gs.RegisterShutdownHook(func(context.Context) error {
		hookRan <- struct{}{}
		return nil
	})
	gs.RegisterShutdownHook(func(context.Context) error {
		return errors.New("flush failed")
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gs.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String())
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err == nil || err.Error() != "shutdown hook 1 failed: flush failed" {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}

	select {
	case <-hookRan:
	default:
		t.Error("shutdown hook did not run")
	}
}
