package telemetry_test

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"

	"tribute/internal/telemetry"
)

func TestSetup_NoopWhenEndpointEmpty(t *testing.T) {
	t.Setenv(telemetry.EnabledEnv, "")

	shutdown, err := telemetry.Setup(context.Background(), telemetry.Config{Host: "play"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetup_NoopWhenExplicitlyDisabled(t *testing.T) {
	t.Setenv(telemetry.EnabledEnv, "false")

	shutdown, err := telemetry.Setup(context.Background(), telemetry.Config{Endpoint: "http://localhost:4318"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetup_CreatesProviderWhenEndpointSet(t *testing.T) {
	t.Setenv(telemetry.EnabledEnv, "")

	// Non-routable address so no export actually happens.
	shutdown, err := telemetry.Setup(context.Background(), telemetry.Config{
		Endpoint: "http://192.0.2.1:4318",
		Host:     "serve",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if telemetry.Tracer() == nil {
		t.Fatal("expected a tracer")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestResource_DescribesTheRun(t *testing.T) {
	res, err := telemetry.Resource(context.Background(), telemetry.Config{
		Host:   "play",
		Script: "default",
		Seed:   42,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[attribute.Key]attribute.Value{
		"service.name":      attribute.StringValue(telemetry.ServiceName),
		telemetry.HostKey:   attribute.StringValue("play"),
		telemetry.ScriptKey: attribute.StringValue("default"),
		telemetry.SeedKey:   attribute.Int64Value(42),
	}
	got := map[attribute.Key]attribute.Value{}
	for _, kv := range res.Attributes() {
		got[kv.Key] = kv.Value
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s: expected %v, got %v", k, v.Emit(), got[k].Emit())
		}
	}
}

func TestResource_OmitsUnsetFields(t *testing.T) {
	res, err := telemetry.Resource(context.Background(), telemetry.Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, kv := range res.Attributes() {
		switch kv.Key {
		case telemetry.HostKey, telemetry.ScriptKey, telemetry.SeedKey:
			t.Errorf("expected no %s attribute, got %v", kv.Key, kv.Value.Emit())
		}
	}
}
