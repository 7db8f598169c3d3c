package logger_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/farmlink/pkg/logger"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, logger.ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, logger.ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, logger.ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, logger.ParseLevel("nonsense"))
}

func TestNewJSONInProduction(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, true, slog.LevelInfo)
	log.Info("product created", "product_id", 7)

	assert.Contains(t, buf.String(), `"msg":"product created"`)
	assert.Contains(t, buf.String(), `"product_id":7`)
}

func TestWithCtxFallsBackToBase(t *testing.T) {
	assert.Same(t, logger.L, logger.WithCtx(context.Background()))

	var buf bytes.Buffer
	reqLog := logger.New(&buf, false, slog.LevelInfo).With("request_id", "abc")
	ctx := logger.InjectLogger(context.Background(), reqLog)

	logger.WithCtx(ctx).Info("hello")
	assert.Contains(t, buf.String(), "request_id=abc")
}

func TestSetupWritesRotatingFile(t *testing.T) {
	prev := logger.L
	t.Cleanup(func() {
		logger.L = prev
		slog.SetDefault(prev)
	})

	path := filepath.Join(t.TempDir(), "logs", "app.log")
	closer, err := logger.Setup(logger.Options{Level: "info", File: path})
	require.NoError(t, err)

	logger.Info("farmer dashboard accessed", "user_id", 3)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "farmer dashboard accessed")
}
