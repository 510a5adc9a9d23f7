// Package handshake runs the browser-side half of session establishment: it
// admits authentication messages posted by a host window and exchanges them
// for a session by calling the login and probe endpoints in order.
package handshake

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Xepelin-BizOps/Cotizador-OV/internal/config"
	"github.com/Xepelin-BizOps/Cotizador-OV/internal/telemetry"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	LoginPath   = "/api/auth/login"
	ProbePath   = "/api/auth/me"
	LandingPath = "/home"

	DefaultExchangeTimeout = 30 * time.Second

	messageLoginOK = "¡Login exitoso!"
)

// Phase is where a client is in the handshake state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	// PhaseAdmitting: the message passed the gate and holds the in-flight guard.
	PhaseAdmitting
	// PhaseExchanging: the login and probe calls are running.
	PhaseExchanging
)

func (p Phase) String() string {
	switch p {
	case PhaseAdmitting:
		return "admitting"
	case PhaseExchanging:
		return "exchanging"
	default:
		return "idle"
	}
}

// Outcome is how the last handshake ended.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeSuccess
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeError:
		return "error"
	default:
		return "none"
	}
}

// State is the user-visible handshake state.
type State struct {
	Phase   Phase
	Outcome Outcome
	Message string
	// User is the opaque user returned by the probe on success.
	User json.RawMessage
}

// Loading reports whether a handshake is underway.
func (s State) Loading() bool {
	return s.Phase != PhaseIdle
}

// Config configures a Client.
type Config struct {
	// BaseURL is where the login and probe endpoints are served.
	BaseURL string
	// SelfOrigin is the window's own origin; it defaults to the origin of BaseURL.
	SelfOrigin string
	AllowList  config.AllowList
	HTTPClient *http.Client
	// Updater may be nil, in which case the shared state is not updated.
	Updater Updater
	// Navigate is called with LandingPath after a successful handshake.
	Navigate        func(path string)
	ExchangeTimeout time.Duration
	// OnSettle, when set, receives the final state of each handshake whose
	// result was applied.
	OnSettle func(State)
	// OnReject, when set, receives the reason a message was dropped.
	OnReject func(error)
}

// Client owns the handshake for one mounted listener. At most one handshake
// runs at a time; messages arriving meanwhile are dropped.
type Client struct {
	cfg     Config
	baseURL *url.URL
	gate    *Gate

	seq       atomic.Uint64
	inFlight  atomic.Bool
	mounted   atomic.Bool
	unmounted atomic.Bool

	mu    sync.RWMutex
	state State

	wg sync.WaitGroup
}

func NewClient(cfg Config) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host are required", cfg.BaseURL)
	}

	if cfg.SelfOrigin == "" {
		cfg.SelfOrigin = base.Scheme + "://" + base.Host
	}
	if cfg.ExchangeTimeout <= 0 {
		cfg.ExchangeTimeout = DefaultExchangeTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient, err = NewHTTPClient("")
		if err != nil {
			return nil, err
		}
	}

	return &Client{
		cfg:     cfg,
		baseURL: base,
		gate:    NewGate(cfg.SelfOrigin, cfg.AllowList),
	}, nil
}

// SelfOrigin returns the origin the gate treats as same-origin.
func (c *Client) SelfOrigin() string {
	return c.cfg.SelfOrigin
}

// State returns a snapshot of the current state.
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

// Mount subscribes to bus and handles messages until the returned unmount
// function is called. A client can be mounted once. Handshakes still running
// at unmount complete, but their results are discarded.
func (c *Client) Mount(ctx context.Context, bus Bus) (unmount func(), err error) {
	if c.unmounted.Load() {
		return nil, ErrUnmounted
	}
	if !c.mounted.CompareAndSwap(false, true) {
		return nil, ErrAlreadyMounted
	}

	msgs, errs, cancel := bus.Subscribe()
	stop := make(chan struct{})
	done := make(chan struct{})

	logger := log.Ctx(ctx)
	logger.Debug().Str("self_origin", c.cfg.SelfOrigin).Msg("listener mounted")

	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			case msg := <-msgs:
				_ = c.Handle(ctx, msg)
			case err := <-errs:
				logger.Warn().Err(err).Msg("message error received")
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.unmounted.Store(true)
			cancel()
			close(stop)
			<-done
			logger.Debug().Msg("listener unmounted")
		})
	}, nil
}

// Handle processes one inbound message. It returns nil when the message was
// admitted and a handshake started, or the reason it was dropped. Dropped
// messages never change the state.
func (c *Client) Handle(ctx context.Context, msg Message) error {
	seq := c.seq.Add(1)
	logger := log.Ctx(ctx).With().Uint64("seq", seq).Str("origin", msg.Origin).Logger()

	if c.unmounted.Load() {
		return ErrUnmounted
	}

	if _, err := c.gate.Admit(msg); err != nil {
		c.reject(ctx, &logger, err)
		return err
	}

	if !c.inFlight.CompareAndSwap(false, true) {
		c.reject(ctx, &logger, ErrHandshakeInFlight)
		return ErrHandshakeInFlight
	}

	c.setState(State{Phase: PhaseAdmitting})
	logger.Debug().Msg("message admitted")

	c.wg.Add(1)
	go c.run(context.WithoutCancel(logger.WithContext(ctx)), msg.Data)

	return nil
}

func (c *Client) reject(ctx context.Context, logger *zerolog.Logger, err error) {
	reason := "origin"
	switch {
	case errors.Is(err, ErrShapeRejected):
		reason = "shape"
	case errors.Is(err, ErrHandshakeInFlight):
		reason = "in_flight"
	}
	telemetry.GetMetrics().MessagesRejectedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	logger.Debug().Err(err).Msg("message ignored")

	if c.cfg.OnReject != nil {
		c.cfg.OnReject(err)
	}
}

// Wait blocks until every started handshake has finished.
func (c *Client) Wait() {
	c.wg.Wait()
}

func (c *Client) run(ctx context.Context, payload json.RawMessage) {
	started := time.Now()
	logger := log.Ctx(ctx)

	defer func() {
		c.inFlight.Store(false)
		c.wg.Done()
		logger.Debug().Dur("duration", time.Since(started)).Msg("handshake finished")
	}()

	c.setState(State{Phase: PhaseExchanging})

	probe, err := c.exchange(ctx, payload)

	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	telemetry.GetMetrics().HandshakesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome.String())))
	telemetry.GetMetrics().HandshakeDuration.Record(ctx, float64(time.Since(started).Milliseconds()))

	if c.unmounted.Load() {
		logger.Debug().Str("outcome", outcome.String()).Msg("listener unmounted, discarding handshake result")
		return
	}

	if err != nil {
		logger.Error().Err(err).Msg("authentication failed")
		c.settle(State{Phase: PhaseIdle, Outcome: OutcomeError, Message: err.Error()})
		return
	}

	if c.cfg.Updater != nil {
		c.cfg.Updater.publish(probe.User)
	} else {
		logger.Warn().Msg("no session updater configured, shared state not updated")
	}

	final := State{Phase: PhaseIdle, Outcome: OutcomeSuccess, Message: messageLoginOK, User: probe.User}
	c.setState(final)
	logger.Info().Msg("authenticated")

	if c.cfg.Navigate != nil {
		c.cfg.Navigate(LandingPath)
	}
	if c.cfg.OnSettle != nil {
		c.cfg.OnSettle(final)
	}
}

func (c *Client) settle(s State) {
	c.setState(s)
	if c.cfg.OnSettle != nil {
		c.cfg.OnSettle(s)
	}
}

type probeResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	User    json.RawMessage `json:"user"`
}

// exchange posts the payload to the login endpoint and, once that succeeds,
// confirms the session with the probe endpoint.
func (c *Client) exchange(ctx context.Context, payload json.RawMessage) (*probeResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ExchangeTimeout)
	defer cancel()

	probe, err := c.doExchange(ctx, payload)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w after %s", ErrExchangeTimeout, c.cfg.ExchangeTimeout)
	}
	return probe, err
}

func (c *Client) doExchange(ctx context.Context, payload json.RawMessage) (*probeResponse, error) {
	logger := log.Ctx(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(LoginPath), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	loginBody := readExcerpt(resp.Body)
	resp.Body.Close()

	logger.Debug().Int("status", resp.StatusCode).Msg("login response")

	if !isSuccess(resp.StatusCode) {
		return nil, &UpstreamError{Endpoint: "login", Status: resp.StatusCode, Body: loginBody}
	}

	req, err = http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(ProbePath), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build probe request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache, no-store")

	resp, err = c.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("probe request failed: %w", err)
	}
	defer resp.Body.Close()

	var probe probeResponse
	if err := json.NewDecoder(resp.Body).Decode(&probe); err != nil {
		logger.Debug().Err(err).Msg("probe body not decodable")
	}

	logger.Debug().Int("status", resp.StatusCode).Bool("success", probe.Success).Msg("probe response")

	if !isSuccess(resp.StatusCode) {
		return nil, &UpstreamError{Endpoint: "probe", Status: resp.StatusCode, Body: probe.Message}
	}
	if !probe.Success {
		if probe.Message != "" && probe.Message != ErrUnauthorized.Error() {
			return nil, fmt.Errorf("%w: %s", ErrUnauthorized, probe.Message)
		}
		return nil, ErrUnauthorized
	}

	return &probe, nil
}

func (c *Client) endpoint(path string) string {
	return c.baseURL.JoinPath(path).String()
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func readExcerpt(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, maxBodyExcerpt))
	return strings.TrimSpace(string(b))
}
