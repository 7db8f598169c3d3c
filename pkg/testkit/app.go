package testkit

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/farmlink/config"
	"github.com/shashiranjanraj/farmlink/internal/kernel"
	"github.com/shashiranjanraj/farmlink/pkg/mail"
	"github.com/shashiranjanraj/farmlink/pkg/storage"
)

// App is a fully wired farmlink kernel behind an httptest server, with
// in-memory database, sessions, queue and mailer.
type App struct {
	*kernel.Kernel
	Server *httptest.Server
	Mail   *mail.Memory
	Local  *storage.Local
}

// Config returns the configuration used by NewApp.
func Config() *config.Config {
	cfg := &config.Config{
		AppEnv:        "testing",
		AppPort:       "0",
		AppURL:        "http://farmlink.test",
		SecretKey:     "testkit-secret",
		DBDriver:      "sqlite",
		AdminEmail:    "admin@farmlink.test",
		ItemsPerPage:  10,
		TokenTTL:      30 * time.Minute,
		SessionTTL:    time.Hour,
		SessionCookie: "farmlink_session",
		ImageWorkers:  2,
		QueueWorkers:  1,
		QueueMaxRetry: 1,
	}
	cfg.Storage.Disk = "local"
	cfg.Storage.MediaURL = "/media"
	return cfg
}

// NewApp starts an App for t. mutate, when given, adjusts the config
// before wiring.
func NewApp(t testing.TB, mutate ...func(*config.Config)) *App {
	t.Helper()
	cfg := Config()
	cfg.Storage.UploadDir = t.TempDir()
	for _, fn := range mutate {
		fn(cfg)
	}

	disk, err := storage.NewLocal(cfg.Storage.UploadDir, cfg.Storage.MediaURL)
	require.NoError(t, err)
	mailer := &mail.Memory{}

	k, err := kernel.New(context.Background(), kernel.Deps{
		Config: cfg,
		DB:     DB(t),
		Mailer: mailer,
		Disk:   disk,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	k.Start(ctx)
	srv := httptest.NewServer(k.Handler())
	t.Cleanup(func() {
		srv.Close()
		cancel()
		k.Shutdown()
	})

	return &App{Kernel: k, Server: srv, Mail: mailer, Local: disk}
}

// Client returns a new cookie-keeping client for the app.
func (a *App) Client(t testing.TB) *Client {
	t.Helper()
	return NewClient(t, a.Server.URL)
}
