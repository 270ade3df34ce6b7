package exporters

import (
	"context"
	"testing"
)

func TestNewMetricsReader_KnownExporters(t *testing.T) {
	ctx := context.Background()

	for _, name := range []string{"stdout", "prometheus", "none", ""} {
		t.Run("exporter_"+name, func(t *testing.T) {
			reader, err := NewMetricsReader(ctx, name)
			if err != nil {
				t.Fatalf("NewMetricsReader(%q) failed: %v", name, err)
			}
			if reader == nil {
				t.Fatalf("NewMetricsReader(%q) returned nil reader", name)
			}
			_ = reader.Shutdown(ctx)
		})
	}
}

func TestNewMetricsReader_Unknown(t *testing.T) {
	if _, err := NewMetricsReader(context.Background(), "statsd"); err == nil {
		t.Error("unknown exporter name should fail")
	}
}
