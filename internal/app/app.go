package app

import (
	"context"
	"fmt"
	"sync"

	"gopkg.in/op/go-logging.v1"

	"sibank/internal/instrument"
	"sibank/internal/protocol/channel"
	"sibank/internal/protocol/handshake"
	"sibank/internal/protocol/kex"
	"sibank/internal/protocol/trust"
	"sibank/internal/services/client"
	"sibank/internal/services/dispatch"
	"sibank/internal/services/session"
	"sibank/internal/transport"
)

// App runs a server endpoint for one trust anchor and hands out client
// sessions connected to it.
type App struct {
	w      *Wire
	anchor *trust.Anchor
	server *session.Server
	log    *logging.Logger
	wg     sync.WaitGroup
}

// New returns an App serving with anchor.
func New(w *Wire, anchor *trust.Anchor) *App {
	srv := session.NewServer(session.ServerOptions{
		Handshake:  handshake.ServerConfig{Anchor: anchor},
		Dispatcher: dispatch.New(w.Accounts, w.Metrics, w.Log.GetLogger("dispatch")),
		Metrics:    w.Metrics,
		Log:        w.Log.GetLogger("session"),
	})
	return &App{w: w, anchor: anchor, server: srv, log: w.Log.GetLogger("app")}
}

// Anchor returns the server trust anchor.
func (a *App) Anchor() *trust.Anchor { return a.anchor }

// Connect opens a new session. The certificate travels out of band; the
// client checks it against the configured identity and its pins. The
// server side of the session runs until the client closes or ctx is done.
func (a *App) Connect(ctx context.Context) (*client.Client, *session.Client, error) {
	cfg := a.w.Config
	clientConn, serverConn := transport.Pipe()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.server.Serve(ctx, serverConn); err != nil {
			a.log.Debugf("session ended: %v", err)
		}
	}()

	sess, err := session.Dial(ctx, clientConn, session.ClientOptions{
		Handshake: handshake.ClientConfig{
			Certificates: trust.Static(a.anchor.Certificate()),
			Verifier:     trust.Verifier{Identity: cfg.Server.Identity, Pins: a.w.Pins},
			Group:        kex.Group(cfg.Handshake.Group),
			Suite:        channel.Suite(cfg.Handshake.Suite),
		},
		RequestTimeout: cfg.Session.RequestTimeout,
		Log:            a.w.Log.GetLogger("client"),
	})
	if err != nil {
		_ = serverConn.Close()
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	return client.New(sess), sess, nil
}

// ServeMetrics exposes /metrics until ctx is done when metrics are enabled.
func (a *App) ServeMetrics(ctx context.Context) error {
	if !a.w.Config.Metrics.Enable {
		return nil
	}
	a.log.Noticef("metrics on http://%s/metrics", a.w.Config.Metrics.Address)
	return instrument.Serve(ctx, a.w.Config.Metrics.Address, a.w.Registry)
}

// Wait blocks until every server session has ended.
func (a *App) Wait() { a.wg.Wait() }
