package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider_NoneExporterNeedsNoShutdown(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{ServiceName: "test", Exporter: ExporterNone})
	require.NoError(t, err)
	assert.NotNil(t, p.Tracer())
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_StdoutExporterStarts(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{ServiceName: "test", Exporter: ExporterStdout})
	require.NoError(t, err)
	assert.NotNil(t, p.Tracer())
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_RejectsUnknownExporter(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{ServiceName: "test", Exporter: "bogus"})
	assert.Error(t, err)
}

func TestStageSpan_StartsNamedSpan(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{ServiceName: "test", Exporter: ExporterNone})
	require.NoError(t, err)

	_, span := p.StageSpan(context.Background(), "complexity_check")
	defer span.End()
	assert.NotNil(t, span)
}
