package observability

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/dappshunt/actions-backend/internal/config"
)

func TestSetupOTel_DisabledIsNoop(t *testing.T) {
	shutdown, err := SetupOTel(context.Background(), config.OTELConfig{Enabled: false}, "test")
	if err != nil {
		t.Fatalf("SetupOTel: %v", err)
	}
	if shutdown == nil {
		t.Fatal("shutdown must not be nil")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("noop shutdown: %v", err)
	}
}

func TestSetupOTel_ExporterError(t *testing.T) {
	orig := newOTLPExporterFn
	defer func() { newOTLPExporterFn = orig }()
	newOTLPExporterFn = func(context.Context, otlptrace.Client) (*otlptrace.Exporter, error) {
		return nil, errors.New("dial failed")
	}

	_, err := SetupOTel(context.Background(), config.OTELConfig{
		Enabled:     true,
		Endpoint:    "localhost:4317",
		Insecure:    true,
		ServiceName: "test",
		SampleRatio: 1,
	}, "test")
	if err == nil {
		t.Fatal("expected exporter error")
	}
}

func TestSetupOTel_ResourceError(t *testing.T) {
	origRes := newServiceResourceFn
	defer func() { newServiceResourceFn = origRes }()
	newServiceResourceFn = func(context.Context, string, string) (*resource.Resource, error) {
		return nil, errors.New("bad resource")
	}

	_, err := SetupOTel(context.Background(), config.OTELConfig{
		Enabled:     true,
		Endpoint:    "localhost:4317",
		Insecure:    true,
		ServiceName: "test",
		SampleRatio: 1,
	}, "test")
	if err == nil {
		t.Fatal("expected resource error")
	}
}
