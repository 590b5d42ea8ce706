package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "cadscribe.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CADSCRIBE_LISTEN",
		"CADSCRIBE_GENERATOR_BACKEND",
		"CADSCRIBE_GENERATOR_MODEL",
		"CADSCRIBE_GENERATOR_API_KEY",
		"OPENAI_API_KEY",
		"CADSCRIBE_SIGNED_AXIS_SCALING",
		"CADSCRIBE_TRAFFIC_DUMP_ENABLED",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	path := writeConfigFile(t, `
generator:
  model: "gpt-4o-mini"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if cfg.Server.Listen != ":8000" {
		t.Fatalf("default listen=%q", cfg.Server.Listen)
	}
	if cfg.Generator.Backend != "openai" {
		t.Fatalf("default backend=%q", cfg.Generator.Backend)
	}
	if cfg.Generator.MaxTokens != 100 || cfg.Generator.Temperature != 0.8 || cfg.Generator.TopP != 0.95 {
		t.Fatalf("sampling defaults: %+v", cfg.Generator)
	}
	if cfg.Artifacts.Dir != "./uploads" || cfg.Artifacts.Mount != "/uploads" {
		t.Fatalf("artifact defaults: %+v", cfg.Artifacts)
	}
	if len(cfg.CORS.AllowOrigins) != 1 || cfg.CORS.AllowOrigins[0] != "*" {
		t.Fatalf("cors default: %v", cfg.CORS.AllowOrigins)
	}
	if !cfg.EchoPrompt() || !cfg.MaskSecrets() || !cfg.AccessLogEnabled() || !cfg.MetricsEnabled() {
		t.Fatalf("bool defaults should be true")
	}
}

func TestDefault_NoConfigStartsWithEcho(t *testing.T) {
	clearEnv(t)
	cfg, err := Default()
	if err != nil {
		t.Fatalf("Default err=%v", err)
	}
	if cfg.Generator.Backend != "echo" {
		t.Fatalf("backend=%q want echo", cfg.Generator.Backend)
	}

	t.Setenv("CADSCRIBE_GENERATOR_MODEL", "gpt-4o-mini")
	cfg, err = Default()
	if err != nil {
		t.Fatalf("Default with model err=%v", err)
	}
	if cfg.Generator.Backend != "openai" {
		t.Fatalf("backend=%q want openai", cfg.Generator.Backend)
	}
	if cfg.UploadEnabled() {
		t.Fatalf("upload should be disabled without url")
	}
	if cfg.Modify.SignedAxisScaling {
		t.Fatalf("signed_axis_scaling should default to false")
	}
}

func TestLoad_ExplicitFalseSurvivesDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfigFile(t, `
generator:
  backend: echo
  echo_prompt: false
traffic_dump:
  mask_secrets: false
logging:
  access_log: false
metrics:
  enabled: false
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if cfg.EchoPrompt() || cfg.MaskSecrets() || cfg.AccessLogEnabled() || cfg.MetricsEnabled() {
		t.Fatalf("explicit false overridden: %+v", cfg)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfigFile(t, `
generator:
  backend: echo
`)
	t.Setenv("CADSCRIBE_LISTEN", ":9999")
	t.Setenv("CADSCRIBE_GENERATOR_BACKEND", "OpenAI")
	t.Setenv("CADSCRIBE_GENERATOR_MODEL", "local-gpt2")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("CADSCRIBE_READ_TIMEOUT_MS", "1234")
	t.Setenv("CADSCRIBE_TRAFFIC_DUMP_ENABLED", "1")
	t.Setenv("CADSCRIBE_SIGNED_AXIS_SCALING", "on")
	t.Setenv("CADSCRIBE_UPLOAD_URL", "http://127.0.0.1:9/import")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if cfg.Server.Listen != ":9999" || cfg.Server.ReadTimeoutMs != 1234 {
		t.Fatalf("server not overridden: %+v", cfg.Server)
	}
	if cfg.Generator.Backend != "openai" || cfg.Generator.Model != "local-gpt2" {
		t.Fatalf("generator not overridden: %+v", cfg.Generator)
	}
	if cfg.Generator.APIKey != "sk-env" {
		t.Fatalf("api key fallback not applied")
	}
	if !cfg.TrafficDump.Enabled || !cfg.Modify.SignedAxisScaling || !cfg.UploadEnabled() {
		t.Fatalf("flags not overridden: %+v", cfg)
	}
}

func TestLoad_Validation(t *testing.T) {
	clearEnv(t)
	cases := map[string]string{
		"missing model": `
generator:
  backend: openai
`,
		"unknown backend": `
generator:
  backend: gpt2
`,
		"temperature": `
generator:
  backend: echo
  temperature: 3
`,
		"top_p": `
generator:
  backend: echo
  top_p: 1.5
`,
		"max_tokens": `
generator:
  backend: echo
  max_tokens: -1
`,
		"mount": `
generator:
  backend: echo
artifacts:
  mount: "uploads"
`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfigFile(t, body)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestEnvBool(t *testing.T) {
	t.Setenv("X_BOOL", "maybe")
	if !envBool("X_BOOL", true) {
		t.Fatalf("unknown value should keep default")
	}
	t.Setenv("X_BOOL", "off")
	if envBool("X_BOOL", true) {
		t.Fatalf("off should be false")
	}
}
