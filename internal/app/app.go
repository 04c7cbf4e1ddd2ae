// Package app is the composition root. It wires the storage backend, the
// API client, and every feature store together so callers (the CLI, or an
// embedding UI shell) hold one object.
package app

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/resumeforge/resumeforge-go/internal/api"
	"github.com/resumeforge/resumeforge-go/internal/assistant"
	"github.com/resumeforge/resumeforge-go/internal/cv"
	"github.com/resumeforge/resumeforge-go/internal/download"
	"github.com/resumeforge/resumeforge-go/internal/prefs"
	"github.com/resumeforge/resumeforge-go/internal/session"
	"github.com/resumeforge/resumeforge-go/internal/storage"
	"github.com/resumeforge/resumeforge-go/internal/subscription"
	"github.com/resumeforge/resumeforge-go/internal/toast"
)

// Options configures the app.
type Options struct {
	BaseURL string
	Backend storage.Backend
	Saver   download.Saver
	Logger  *slog.Logger
}

// App bundles the API client and every store.
type App struct {
	Client       *api.Client
	Session      *session.Store
	CVs          *cv.Store
	Assistant    *assistant.Store
	Subscription *subscription.Store
	Prefs        *prefs.Store
	Toasts       *toast.Queue
}

// New wires the full store graph. A nil backend gets an in-memory one and a
// nil saver writes to the current directory.
func New(opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	backend := opts.Backend
	if backend == nil {
		backend = storage.NewMemory()
	}
	saver := opts.Saver
	if saver == nil {
		saver = &download.FileSaver{Dir: "."}
	}

	clientOpts := api.DefaultOptions()
	if opts.BaseURL != "" {
		clientOpts.BaseURL = opts.BaseURL
	}
	clientOpts.Logger = logger
	client := api.New(clientOpts)

	sess := session.New(client, backend, logger)
	cvs := cv.New(client, saver, logger)
	sub := subscription.New(client, logger)

	app := &App{
		Client:       client,
		Session:      sess,
		CVs:          cvs,
		Assistant:    assistant.New(client, cvs, backend, logger),
		Subscription: sub,
		Prefs:        prefs.New(backend, logger),
		Toasts:       toast.NewQueue(),
	}
	return app
}

// Authenticated reports whether a session token is present.
func (a *App) Authenticated() bool {
	return a.Session.Authenticated.Get()
}

// Refresh reloads the CV list, the subscription, and today's usage
// concurrently. The first failure cancels the rest.
func (a *App) Refresh(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := a.CVs.LoadCVs(ctx)
		return err
	})
	g.Go(func() error {
		_, err := a.Subscription.LoadCurrent(ctx)
		return err
	})
	g.Go(func() error {
		_, err := a.Subscription.LoadUsage(ctx)
		return err
	})
	return g.Wait()
}
