package config

import "testing"

func TestLoadUsesSafeDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DEFAULT_PLAIN_PRICE", "")
	t.Setenv("DEFAULT_COMBO_PRICE", "")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.DefaultPlainPrice != 12000 || cfg.DefaultComboPrice != 13000 {
		t.Fatalf("unexpected default prices: %d / %d", cfg.DefaultPlainPrice, cfg.DefaultComboPrice)
	}
}

func TestLoadRejectsNonPositivePriceDefaults(t *testing.T) {
	t.Setenv("DEFAULT_PLAIN_PRICE", "-5")
	t.Setenv("DEFAULT_COMBO_PRICE", "abc")

	cfg := Load()
	if cfg.DefaultPlainPrice != 12000 || cfg.DefaultComboPrice != 13000 {
		t.Fatalf("expected fallbacks for bad price envs, got %d / %d", cfg.DefaultPlainPrice, cfg.DefaultComboPrice)
	}
}
