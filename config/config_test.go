package config_test

import (
	"testing"

	"github.com/meenmo/xvalib/config"
)

func TestParseDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.Parse([]byte("baseCurrency: USD\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Quantile != 0.95 {
		t.Fatalf("quantile default: got %v want 0.95", cfg.Quantile)
	}
	if cfg.CalculationType != "NoLag" {
		t.Fatalf("calculation type default: got %q want NoLag", cfg.CalculationType)
	}
	if cfg.AllocationMethod != "None" {
		t.Fatalf("allocation method default: got %q want None", cfg.AllocationMethod)
	}
	if !cfg.MultiPath {
		t.Fatalf("multiPath should default to true")
	}
	if cfg.KVA.Alpha != 1.4 || cfg.KVA.RegAdjustment != 12.5 || cfg.KVA.CapitalHurdle != 0.12 {
		t.Fatalf("KVA defaults: %+v", cfg.KVA)
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("log level default: got %q want info", cfg.Log.Level)
	}
}

func TestParseOverrides(t *testing.T) {
	t.Parallel()

	raw := []byte(`
baseCurrency: EUR
quantile: 0.99
calculationType: Lagged1
allocationMethod: RelativeXVA
multiPath: false
dvaName: BANK
analytics:
  kva: true
kva:
  alpha: 1.2
  capitalHurdle: 0.10
log:
  level: debug
`)
	cfg, err := config.Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.BaseCurrency != "EUR" || cfg.Quantile != 0.99 {
		t.Fatalf("overrides lost: %+v", cfg)
	}
	if cfg.MultiPath {
		t.Fatalf("multiPath override lost")
	}
	if !cfg.Analytics.KVA || cfg.Analytics.DIM {
		t.Fatalf("analytics toggles: %+v", cfg.Analytics)
	}
	if cfg.KVA.Alpha != 1.2 || cfg.KVA.CapitalHurdle != 0.10 {
		t.Fatalf("KVA overrides lost: %+v", cfg.KVA)
	}
	// Unset KVA fields keep their defaults.
	if cfg.KVA.RegAdjustment != 12.5 {
		t.Fatalf("KVA default clobbered: %+v", cfg.KVA)
	}
	if cfg.DVAName != "BANK" || cfg.Log.Level != "debug" {
		t.Fatalf("overrides lost: dva=%q level=%q", cfg.DVAName, cfg.Log.Level)
	}
}

func TestParseValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
	}{
		{"missing base currency", "quantile: 0.95\n"},
		{"bad base currency", "baseCurrency: DOLLARS\n"},
		{"quantile too high", "baseCurrency: USD\nquantile: 1.0\n"},
		{"quantile too low", "baseCurrency: USD\nquantile: 0\n"},
		{"negative hurdle", "baseCurrency: USD\nkva:\n  capitalHurdle: -0.1\n"},
		{"not yaml", "baseCurrency: [\n"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := config.Parse([]byte(tc.raw)); err == nil {
				t.Fatalf("expected error for %s", tc.name)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := config.Load("does-not-exist.yaml"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
