package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/Xepelin-BizOps/Cotizador-OV/internal/config"
	"github.com/Xepelin-BizOps/Cotizador-OV/internal/handshake"
	"github.com/Xepelin-BizOps/Cotizador-OV/internal/logger"
	"github.com/Xepelin-BizOps/Cotizador-OV/internal/models"
	"github.com/rs/zerolog"
)

// HandshakeCmd posts one authentication message to a running server the way
// the embedded page does, and prints the resulting state.
type HandshakeCmd struct {
	BaseURL string `arg:"" help:"base URL of the server, for example http://localhost:8080"`

	Origin             string        `help:"origin the message claims to come from, defaults to the server origin" default:""`
	Type               string        `help:"message type" default:"AUTH_SUCCESS" enum:"AUTH_SUCCESS,session-context-update,other"`
	Token              string        `help:"session token supplied by the host" default:""`
	CompanyID          string        `help:"company ID supplied by the host" default:""`
	BusinessIdentifier string        `help:"business identifier hint" default:""`
	UserEmail          string        `help:"user email hint" default:""`
	AllowedOrigins     string        `help:"comma separated trusted origins" default:"" env:"ALLOWED_ORIGINS"`
	Environment        string        `help:"deployment environment" default:"development" enum:"development,production" env:"APP_ENV"`
	Timeout            time.Duration `help:"bound on the login and probe exchange" default:"30s"`
	CacheDir           string        `help:"directory for the HTTP response cache, in memory when empty" type:"path" default:""`
}

type handshakeResult struct {
	Outcome    string          `json:"outcome"`
	Message    string          `json:"message,omitempty"`
	User       json.RawMessage `json:"user,omitempty"`
	Navigation string          `json:"navigation,omitempty"`
}

func (c *HandshakeCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx = log.WithContext(ctx)

	res, err := c.run(ctx)
	if err != nil {
		return err
	}

	if err := writeResult(os.Stdout, res); err != nil {
		return err
	}

	if res.Outcome != handshake.OutcomeSuccess.String() {
		return fmt.Errorf("handshake failed: %s", res.Message)
	}
	return nil
}

// run mounts a client on an in-process bus, posts one message and waits for
// the client to drop it or settle the handshake.
func (c *HandshakeCmd) run(ctx context.Context) (handshakeResult, error) {
	log := zerolog.Ctx(ctx)

	httpClient, err := handshake.NewHTTPClient(c.CacheDir)
	if err != nil {
		return handshakeResult{}, err
	}

	var (
		navigation atomic.Value
		settled    = make(chan handshake.State, 1)
		rejected   = make(chan error, 1)
	)

	client, err := handshake.NewClient(handshake.Config{
		BaseURL:         c.BaseURL,
		AllowList:       config.ParseAllowList(c.AllowedOrigins, c.Environment == "production"),
		HTTPClient:      httpClient,
		ExchangeTimeout: c.Timeout,
		Updater: handshake.FieldUpdater(func(key string, value any) {
			log.Debug().Str("key", key).Interface("value", value).Msg("session context updated")
		}),
		Navigate: func(path string) { navigation.Store(path) },
		OnSettle: func(s handshake.State) {
			select {
			case settled <- s:
			default:
			}
		},
		OnReject: func(err error) {
			select {
			case rejected <- err:
			default:
			}
		},
	})
	if err != nil {
		return handshakeResult{}, err
	}

	data, err := json.Marshal(c.payload())
	if err != nil {
		return handshakeResult{}, fmt.Errorf("failed to encode payload: %w", err)
	}

	origin := c.Origin
	if origin == "" {
		origin = client.SelfOrigin()
	}

	bus := handshake.NewChannelBus()
	unmount, err := client.Mount(ctx, bus)
	if err != nil {
		return handshakeResult{}, err
	}
	defer unmount()

	if err := bus.Post(ctx, handshake.Message{Origin: origin, Data: data}); err != nil {
		return handshakeResult{}, fmt.Errorf("failed to post message: %w", err)
	}

	select {
	case err := <-rejected:
		return handshakeResult{}, fmt.Errorf("message dropped: %w", err)
	case state := <-settled:
		nav, _ := navigation.Load().(string)
		return handshakeResult{
			Outcome:    state.Outcome.String(),
			Message:    state.Message,
			User:       state.User,
			Navigation: nav,
		}, nil
	case <-ctx.Done():
		return handshakeResult{}, ctx.Err()
	}
}

func (c *HandshakeCmd) payload() models.AuthPayload {
	p := models.AuthPayload{"type": c.Type}
	if c.Token != "" {
		p["token"] = c.Token
	}
	if c.CompanyID != "" {
		p["companyId"] = c.CompanyID
	}
	if c.BusinessIdentifier != "" {
		p["businessIdentifier"] = c.BusinessIdentifier
	}
	if c.UserEmail != "" {
		p["userEmail"] = c.UserEmail
	}
	return p
}

func writeResult(w io.Writer, res handshakeResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
