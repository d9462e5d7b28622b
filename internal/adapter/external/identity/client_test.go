package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/solutiontech/gic/internal/domain"
	"github.com/solutiontech/gic/pkg/apperrors"
	"github.com/solutiontech/gic/pkg/config"
)

var breakerOn = config.CircuitBreakerConfig{Enabled: true, MaxRequests: 3, FailureThreshold: 0.6, Timeout: time.Minute}

var anaReq = domain.IdentityRequest{Name: "Ana Rojas", Email: "ana@example.cl", TaxID: "76.124.890-1"}

func TestVerify_RemoteSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer k-123", r.Header.Get("Authorization"))

		var got domain.IdentityRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, anaReq, got)

		_ = json.NewEncoder(w).Encode(map[string]any{"valid": true, "message": "ok", "score": 0.93})
	}))
	defer srv.Close()

	c := New(config.IdentityConfig{URL: srv.URL, APIKey: "k-123"}, breakerOn, zap.NewNop())
	res, err := c.Verify(context.Background(), anaReq)
	require.NoError(t, err)
	assert.Equal(t, &domain.IdentityResult{Valid: true, Message: "ok", Score: 0.93, Source: "remote"}, res)
}

func TestVerify_NonOKIsExternalServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(config.IdentityConfig{URL: srv.URL}, breakerOn, zap.NewNop())
	_, err := c.Verify(context.Background(), anaReq)
	require.Error(t, err)

	var ext *apperrors.ExternalServiceError
	require.ErrorAs(t, err, &ext)
	assert.Equal(t, http.StatusUnauthorized, ext.Code)
	assert.Equal(t, "Identity API", ext.Service)
	assert.Equal(t, apperrors.KindExternal, apperrors.KindOf(err))
}

func TestVerify_DeadlineIsTimeoutError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	c := New(config.IdentityConfig{URL: srv.URL, Timeout: 50 * time.Millisecond}, breakerOn, zap.NewNop())
	_, err := c.Verify(context.Background(), anaReq)
	require.Error(t, err)

	var timeout *apperrors.ExternalServiceTimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, 50*time.Millisecond, timeout.Timeout)
	assert.Equal(t, apperrors.KindTimeout, apperrors.KindOf(err))
}

func TestVerify_UnreachableFallsBackToLocal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(config.IdentityConfig{URL: url}, breakerOn, zap.NewNop())
	res, err := c.Verify(context.Background(), anaReq)
	require.NoError(t, err)
	assert.Equal(t, "local", res.Source)
	assert.True(t, res.Valid)
}

func TestVerify_OpenBreakerFallsBackToLocal(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(config.IdentityConfig{URL: srv.URL}, breakerOn, zap.NewNop())
	for i := 0; i < 3; i++ {
		_, err := c.Verify(context.Background(), anaReq)
		assert.ErrorIs(t, err, apperrors.ErrExternalService)
	}

	res, err := c.Verify(context.Background(), anaReq)
	require.NoError(t, err)
	assert.Equal(t, "local", res.Source)
	assert.EqualValues(t, 3, hits.Load(), "open breaker must not reach the server")
}

func TestVerify_NotConfiguredUsesLocal(t *testing.T) {
	for _, url := range []string{"", "https://api.example.com/validate"} {
		c := New(config.IdentityConfig{URL: url}, config.CircuitBreakerConfig{}, zap.NewNop())
		assert.False(t, c.Configured())

		res, err := c.Verify(context.Background(), anaReq)
		require.NoError(t, err)
		assert.Equal(t, "local", res.Source)
	}
}

func TestLocalVerdict(t *testing.T) {
	tests := []struct {
		name  string
		req   domain.IdentityRequest
		score float64
		valid bool
	}{
		{"all signals", anaReq, 1.0, true},
		{"name and email", domain.IdentityRequest{Name: "Ana", Email: "a@b.cl"}, 0.7, true},
		{"email only", domain.IdentityRequest{Name: "Al", Email: "a@b.cl"}, 0.4, false},
		{"name and tax id", domain.IdentityRequest{Name: "Ana", Email: "nope", TaxID: "12.345.678-5"}, 0.6, false},
		{"nothing", domain.IdentityRequest{}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := LocalVerdict(tt.req)
			assert.InDelta(t, tt.score, res.Score, 1e-9)
			assert.Equal(t, tt.valid, res.Valid)
			assert.Equal(t, "Local validation", res.Message)
		})
	}
}
