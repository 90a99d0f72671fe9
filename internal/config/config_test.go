package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
gateway:
  environment: sandbox
  consumer_key: key
  consumer_secret: secret
  pass_key: pass
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Gateway.AuthTimeout != 10*time.Second || cfg.Gateway.PushTimeout != 15*time.Second || cfg.Gateway.QueryTimeout != 10*time.Second {
		t.Fatalf("unexpected timeouts: %+v", cfg.Gateway)
	}
	if cfg.Gateway.PendingResultCode != "1032" {
		t.Fatalf("unexpected pending code %q", cfg.Gateway.PendingResultCode)
	}
	if !cfg.Gateway.QueryFallback {
		t.Fatalf("query fallback should default to true")
	}
	if cfg.HTTPServer.Port != "8080" {
		t.Fatalf("unexpected http port %q", cfg.HTTPServer.Port)
	}
	if cfg.KafkaService.Enabled() {
		t.Fatalf("kafka must be disabled without brokers")
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
gateway:
  environment: sandbox
  push_timeout: 15s
`)
	t.Setenv("MPESA_PUSH_TIMEOUT", "3s")
	t.Setenv("MPESA_PENDING_RESULT_CODE", "4999")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Gateway.PushTimeout != 3*time.Second {
		t.Fatalf("env override ignored: %v", cfg.Gateway.PushTimeout)
	}
	if cfg.Gateway.PendingResultCode != "4999" {
		t.Fatalf("env override ignored: %q", cfg.Gateway.PendingResultCode)
	}
}

func TestLoadRejectsUnknownEnvironment(t *testing.T) {
	path := writeConfig(t, `
gateway:
  environment: staging
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestGatewayShortCodeAndBaseURL(t *testing.T) {
	sandbox := Gateway{Environment: EnvSandbox, BusinessShortCode: "7894520", PartyB: "7894520"}
	if sandbox.EffectiveShortCode() != SandboxShortCode || sandbox.EffectivePartyB() != SandboxShortCode {
		t.Fatalf("sandbox must use the test short code")
	}
	if sandbox.BaseURL() != "https://sandbox.safaricom.co.ke" {
		t.Fatalf("unexpected sandbox url %s", sandbox.BaseURL())
	}

	prod := Gateway{Environment: EnvProduction, BusinessShortCode: "7894520"}
	if prod.EffectiveShortCode() != "7894520" || prod.EffectivePartyB() != "7894520" {
		t.Fatalf("production must use the configured short code")
	}
	if prod.BaseURL() != "https://api.safaricom.co.ke" {
		t.Fatalf("unexpected production url %s", prod.BaseURL())
	}

	tillProd := Gateway{Environment: EnvProduction, BusinessShortCode: "600000", PartyB: "7894520"}
	if tillProd.EffectivePartyB() != "7894520" {
		t.Fatalf("explicit party b ignored")
	}

	override := Gateway{Environment: EnvSandbox, BaseURLOverride: "http://127.0.0.1:9999"}
	if override.BaseURL() != "http://127.0.0.1:9999" {
		t.Fatalf("base url override ignored")
	}
}
