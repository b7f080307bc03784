package tracing

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/INLOpen/fsprobe/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInit_Disabled(t *testing.T) {
	tp, cleanup, err := Init(context.Background(), config.TracingConfig{Enabled: false}, "test", discardLogger())
	require.NoError(t, err)
	require.NotNil(t, tp)
	defer cleanup()

	_, span := Tracer().Start(context.Background(), "noop")
	assert.True(t, span.SpanContext().IsValid(), "sdk provider still produces valid span contexts")
	span.End()
}

func TestInit_UnknownProtocol(t *testing.T) {
	_, _, err := Init(context.Background(), config.TracingConfig{Enabled: true, Protocol: "carrier-pigeon"}, "test", discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported tracing protocol")
}
