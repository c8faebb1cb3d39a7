package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }

func TestHealthHandler_Readiness(t *testing.T) {
	refused := errors.New("dial tcp: refused")
	up := func(context.Context) error { return nil }
	down := func(context.Context) error { return refused }

	tests := []struct {
		name       string
		dbErr      error
		broker     Check
		wantStatus int
		wantBody   []string
	}{
		{name: "database up", wantStatus: http.StatusOK, wantBody: []string{`"database":"ok"`, `"status":"ok"`}},
		{name: "database down", dbErr: refused, wantStatus: http.StatusServiceUnavailable, wantBody: []string{`"database":"down"`}},
		{name: "broker up", broker: up, wantStatus: http.StatusOK, wantBody: []string{`"broker":"ok"`}},
		{name: "broker down", broker: down, wantStatus: http.StatusServiceUnavailable, wantBody: []string{`"database":"ok"`, `"broker":"down"`, `"status":"down"`}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHealthHandler(stubPinger{err: tc.dbErr})
			if tc.broker != nil {
				h.WithCheck("broker", tc.broker)
			}

			rec := httptest.NewRecorder()
			h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			assert.Equal(t, tc.wantStatus, rec.Code)
			for _, want := range tc.wantBody {
				assert.Contains(t, rec.Body.String(), want)
			}
		})
	}
}

func TestHealthHandler_Liveness(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler(stubPinger{err: errors.New("down")}).Liveness(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}
