package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSampleRatio(t *testing.T) {
	tests := map[float64]float64{
		0:    0,
		0.5:  0.5,
		1:    1,
		1.5:  1,
		-0.1: 1,
	}
	for in, want := range tests {
		assert.Equal(t, want, sampleRatio(in), "ratio %v", in)
	}
}

func TestSetupWithoutEndpointIsNoop(t *testing.T) {
	shutdown := Setup(context.Background(), "rayan-service", Exporter{}, nil)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
	assert.Contains(t, otel.GetTextMapPropagator().Fields(), "traceparent")
}
