package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/solutiontech/gic/internal/domain"
	"github.com/solutiontech/gic/internal/ports"
	"github.com/solutiontech/gic/pkg/apperrors"
	"github.com/solutiontech/gic/pkg/config"
)

const (
	serviceName    = "Identity API"
	defaultTimeout = 10 * time.Second

	// placeholderURL ships in sample .env files and means "not configured".
	placeholderURL = "https://api.example.com/validate"
)

var passScore = decimal.RequireFromString("0.7")

// Client verifies identities against a remote HTTP service and falls back to a
// local heuristic whenever the service cannot be reached.
type Client struct {
	url     string
	apiKey  string
	timeout time.Duration
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	log     *zap.Logger
}

var _ ports.IdentityVerifier = (*Client)(nil)

type verifyResponse struct {
	Valid   bool    `json:"valid"`
	Message string  `json:"message"`
	Score   float64 `json:"score"`
}

func New(cfg config.IdentityConfig, cb config.CircuitBreakerConfig, log *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		url:     strings.TrimSpace(cfg.URL),
		apiKey:  cfg.APIKey,
		timeout: timeout,
		http:    &http.Client{Timeout: timeout},
		breaker: newBreaker(cb, log),
		log:     log,
	}
}

func newBreaker(cfg config.CircuitBreakerConfig, log *zap.Logger) *gobreaker.CircuitBreaker {
	if !cfg.Enabled {
		return nil
	}
	threshold := cfg.FailureThreshold
	if threshold <= 0 {
		threshold = 0.6
	}
	minRequests := uint32(cfg.MaxRequests)
	if minRequests == 0 {
		minRequests = 3
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "identity-api",
		MaxRequests: minRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= minRequests && failureRatio >= threshold
		},
		IsSuccessful: func(err error) bool {
			var ext *apperrors.ExternalServiceError
			if errors.As(err, &ext) {
				return ext.Code < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// Configured reports whether a remote service URL is set.
func (c *Client) Configured() bool {
	return c.url != "" && c.url != placeholderURL
}

// Verify asks the remote service about req. A non-200 answer is an
// ExternalServiceError and a deadline is an ExternalServiceTimeoutError; any
// other transport failure, an open breaker or a missing URL yields the local
// verdict.
func (c *Client) Verify(ctx context.Context, req domain.IdentityRequest) (*domain.IdentityResult, error) {
	if !c.Configured() {
		c.log.Info("Local identity validation (no external API)")
		return LocalVerdict(req), nil
	}

	var (
		res *domain.IdentityResult
		err error
	)
	if c.breaker != nil {
		var out interface{}
		out, err = c.breaker.Execute(func() (interface{}, error) {
			return c.call(ctx, req)
		})
		if out != nil {
			res = out.(*domain.IdentityResult)
		}
	} else {
		res, err = c.call(ctx, req)
	}

	switch {
	case err == nil:
		return res, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.log.Warn("Identity API circuit open, using local validation")
		return LocalVerdict(req), nil
	case errors.Is(err, apperrors.ErrExternalService), errors.Is(err, apperrors.ErrExternalTimeout):
		return nil, err
	case errors.Is(err, context.Canceled):
		return nil, err
	default:
		c.log.Warn("Identity API unreachable, using local validation", zap.Error(err))
		return LocalVerdict(req), nil
	}
}

func (c *Client) call(ctx context.Context, req domain.IdentityRequest) (*domain.IdentityResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode identity request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build identity request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return nil, &apperrors.ExternalServiceTimeoutError{Service: serviceName, Timeout: c.timeout}
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		msg := fmt.Sprintf("Status %d", resp.StatusCode)
		if s := strings.TrimSpace(string(snippet)); s != "" {
			msg += ": " + s
		}
		return nil, &apperrors.ExternalServiceError{Service: serviceName, Message: msg, Code: resp.StatusCode}
	}

	var out verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if isTimeout(err) {
			return nil, &apperrors.ExternalServiceTimeoutError{Service: serviceName, Timeout: c.timeout}
		}
		return nil, &apperrors.ExternalServiceError{
			Service: serviceName,
			Message: "malformed response: " + err.Error(),
			Code:    resp.StatusCode,
		}
	}

	return &domain.IdentityResult{
		Valid:   out.Valid,
		Message: out.Message,
		Score:   out.Score,
		Source:  "remote",
	}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// LocalVerdict scores req without any network call: 0.3 for a name of at
// least three characters, 0.4 for an email containing "@", 0.3 for a tax ID of
// at least nine characters. Valid from 0.7.
func LocalVerdict(req domain.IdentityRequest) *domain.IdentityResult {
	score := decimal.Zero
	if utf8.RuneCountInString(req.Name) >= 3 {
		score = score.Add(decimal.RequireFromString("0.3"))
	}
	if strings.Contains(req.Email, "@") {
		score = score.Add(decimal.RequireFromString("0.4"))
	}
	if utf8.RuneCountInString(req.TaxID) >= 9 {
		score = score.Add(decimal.RequireFromString("0.3"))
	}
	f, _ := score.Round(2).Float64()
	return &domain.IdentityResult{
		Valid:   score.GreaterThanOrEqual(passScore),
		Message: "Local validation",
		Score:   f,
		Source:  "local",
	}
}
