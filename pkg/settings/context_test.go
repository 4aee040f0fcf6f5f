package settings

import (
	"context"
	"testing"
)

func TestIntoContextRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		settings *Run
	}{
		{name: "empty_settings", settings: &Run{}},
		{name: "settings_with_values", settings: &Run{NoColor: true, Output: "json", Width: 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := IntoContext(context.Background(), tt.settings)
			got, ok := FromContext(ctx)
			if !ok {
				t.Fatal("FromContext() failed to retrieve settings")
			}
			if got != tt.settings {
				t.Error("FromContext() returned a different pointer than stored")
			}
		})
	}
}

func TestFromContextMissing(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
	}{
		{name: "without_settings", ctx: context.Background()},
		{name: "wrong_type", ctx: context.WithValue(context.Background(), settingsContextKey, "wrong type")},
		{name: "nil_settings", ctx: IntoContext(context.Background(), nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if s, ok := FromContext(tt.ctx); ok || s != nil {
				t.Errorf("FromContext() = %v, %v; want nil, false", s, ok)
			}
		})
	}
}

func TestOrDefault(t *testing.T) {
	if got := OrDefault(context.Background()); got.Output != "table" {
		t.Errorf("OrDefault() without settings = %+v", got)
	}
	stored := &Run{Output: "yaml"}
	if got := OrDefault(IntoContext(context.Background(), stored)); got != stored {
		t.Error("OrDefault() should return the stored settings")
	}
}
