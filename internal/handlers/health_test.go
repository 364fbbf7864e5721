package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestHealthHandlerHandle(t *testing.T) {
	tests := []struct {
		name     string
		database Pinger
		want     int
	}{
		{name: "memory store", want: http.StatusOK},
		{name: "database up", database: stubPinger{}, want: http.StatusOK},
		{name: "database down", database: stubPinger{err: errors.New("connection refused")}, want: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := HealthHandler{Database: tt.database}
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			rec := httptest.NewRecorder()

			handler.Handle(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("expected status %d got %d", tt.want, rec.Code)
			}
			if got := rec.Header().Get("Content-Type"); got != "application/json" {
				t.Fatalf("expected json content type got %s", got)
			}
		})
	}
}
