package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Listen         string `yaml:"listen"`
		ReadTimeoutMs  int    `yaml:"read_timeout_ms"`
		WriteTimeoutMs int    `yaml:"write_timeout_ms"`
		PidFile        string `yaml:"pid_file"`
	} `yaml:"server"`

	Generator struct {
		// Backend is "openai" (any OpenAI-compatible chat endpoint) or "echo".
		Backend     string  `yaml:"backend"`
		BaseURL     string  `yaml:"base_url"`
		APIKey      string  `yaml:"api_key"`
		Model       string  `yaml:"model"`
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature float64 `yaml:"temperature"`
		TopP        float64 `yaml:"top_p"`
		TimeoutMs   int     `yaml:"timeout_ms"`
		// EchoPrompt prepends the prompt to the returned text. Pointer so an
		// explicit false survives defaults.
		EchoPrompt     *bool  `yaml:"echo_prompt"`
		PromptTemplate string `yaml:"prompt_template"`
	} `yaml:"generator"`

	Artifacts struct {
		Dir   string `yaml:"dir"`
		Mount string `yaml:"mount"`
	} `yaml:"artifacts"`

	Modify struct {
		SignedAxisScaling bool `yaml:"signed_axis_scaling"`
	} `yaml:"modify"`

	Upload struct {
		URL       string `yaml:"url"`
		APIKey    string `yaml:"api_key"`
		TimeoutMs int    `yaml:"timeout_ms"`
	} `yaml:"upload"`

	CORS struct {
		AllowOrigins []string `yaml:"allow_origins"`
	} `yaml:"cors"`

	TrafficDump struct {
		Enabled     bool   `yaml:"enabled"`
		Dir         string `yaml:"dir"`
		FilePath    string `yaml:"file_path"`
		MaxBytes    int    `yaml:"max_bytes"`
		MaskSecrets *bool  `yaml:"mask_secrets"`
	} `yaml:"traffic_dump"`

	Logging struct {
		Level         string `yaml:"level"`
		AccessLog     *bool  `yaml:"access_log"`
		AccessLogPath string `yaml:"access_log_path"`
	} `yaml:"logging"`

	Metrics struct {
		Enabled *bool  `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
}

// Load reads path, applies defaults and CADSCRIBE_* overrides, then validates.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return finish(&cfg)
}

// Default returns the configuration used when no file is given.
func Default() (*Config, error) {
	return finish(&Config{})
}

func finish(cfg *Config) (*Config, error) {
	applyDefaults(cfg)
	applyEnvOverrides(cfg)
	defaultBackend(cfg)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) EchoPrompt() bool { return boolOr(c.Generator.EchoPrompt, true) }
func (c *Config) MaskSecrets() bool { return boolOr(c.TrafficDump.MaskSecrets, true) }
func (c *Config) AccessLogEnabled() bool { return boolOr(c.Logging.AccessLog, true) }
func (c *Config) MetricsEnabled() bool { return boolOr(c.Metrics.Enabled, true) }
func (c *Config) UploadEnabled() bool { return strings.TrimSpace(c.Upload.URL) != "" }

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Server.Listen) == "" {
		cfg.Server.Listen = ":8000"
	}
	if cfg.Server.ReadTimeoutMs <= 0 {
		cfg.Server.ReadTimeoutMs = 60000
	}
	if cfg.Server.WriteTimeoutMs <= 0 {
		cfg.Server.WriteTimeoutMs = 120000
	}

	if cfg.Generator.MaxTokens == 0 {
		cfg.Generator.MaxTokens = 100
	}
	if cfg.Generator.Temperature == 0 {
		cfg.Generator.Temperature = 0.8
	}
	if cfg.Generator.TopP == 0 {
		cfg.Generator.TopP = 0.95
	}
	if cfg.Generator.TimeoutMs <= 0 {
		cfg.Generator.TimeoutMs = 60000
	}

	if strings.TrimSpace(cfg.Artifacts.Dir) == "" {
		cfg.Artifacts.Dir = "./uploads"
	}
	if strings.TrimSpace(cfg.Artifacts.Mount) == "" {
		cfg.Artifacts.Mount = "/uploads"
	}

	if cfg.Upload.TimeoutMs <= 0 {
		cfg.Upload.TimeoutMs = 30000
	}
	if cfg.CORS.AllowOrigins == nil {
		cfg.CORS.AllowOrigins = []string{"*"}
	}

	if strings.TrimSpace(cfg.TrafficDump.Dir) == "" {
		cfg.TrafficDump.Dir = "./dumps"
	}
	if strings.TrimSpace(cfg.TrafficDump.FilePath) == "" {
		cfg.TrafficDump.FilePath = "{{.request_id}}.log"
	}
	if cfg.TrafficDump.MaxBytes == 0 {
		cfg.TrafficDump.MaxBytes = 1 * 1024 * 1024
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if strings.TrimSpace(cfg.Metrics.Path) == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

// defaultBackend picks openai once a model is configured and echo otherwise,
// so a bare start needs no configuration.
func defaultBackend(cfg *Config) {
	b := strings.ToLower(strings.TrimSpace(cfg.Generator.Backend))
	if b == "" {
		if strings.TrimSpace(cfg.Generator.Model) != "" {
			b = "openai"
		} else {
			b = "echo"
		}
	}
	cfg.Generator.Backend = b
}

func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("CADSCRIBE_LISTEN")); v != "" {
		cfg.Server.Listen = v
	}
	if v := strings.TrimSpace(os.Getenv("CADSCRIBE_GENERATOR_BACKEND")); v != "" {
		cfg.Generator.Backend = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("CADSCRIBE_GENERATOR_BASE_URL")); v != "" {
		cfg.Generator.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("CADSCRIBE_GENERATOR_API_KEY")); v != "" {
		cfg.Generator.APIKey = v
	}
	if strings.TrimSpace(cfg.Generator.APIKey) == "" {
		cfg.Generator.APIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	}
	if v := strings.TrimSpace(os.Getenv("CADSCRIBE_GENERATOR_MODEL")); v != "" {
		cfg.Generator.Model = v
	}
	if v := strings.TrimSpace(os.Getenv("CADSCRIBE_ARTIFACTS_DIR")); v != "" {
		cfg.Artifacts.Dir = v
	}
	if v := strings.TrimSpace(os.Getenv("CADSCRIBE_UPLOAD_URL")); v != "" {
		cfg.Upload.URL = v
	}
	cfg.TrafficDump.Enabled = envBool("CADSCRIBE_TRAFFIC_DUMP_ENABLED", cfg.TrafficDump.Enabled)
	if v := strings.TrimSpace(os.Getenv("CADSCRIBE_TRAFFIC_DUMP_DIR")); v != "" {
		cfg.TrafficDump.Dir = v
	}
	if v := strings.TrimSpace(os.Getenv("CADSCRIBE_TRAFFIC_DUMP_MAX_BYTES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TrafficDump.MaxBytes = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("CADSCRIBE_LOG_LEVEL")); v != "" {
		cfg.Logging.Level = v
	}
	cfg.Modify.SignedAxisScaling = envBool("CADSCRIBE_SIGNED_AXIS_SCALING", cfg.Modify.SignedAxisScaling)
	if v := strings.TrimSpace(os.Getenv("CADSCRIBE_READ_TIMEOUT_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Server.ReadTimeoutMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("CADSCRIBE_WRITE_TIMEOUT_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Server.WriteTimeoutMs = n
		}
	}
}

func validate(cfg *Config) error {
	switch cfg.Generator.Backend {
	case "openai":
		if strings.TrimSpace(cfg.Generator.Model) == "" {
			return errors.New("generator.model is required for the openai backend (or set CADSCRIBE_GENERATOR_MODEL)")
		}
	case "echo":
	default:
		return fmt.Errorf("generator.backend %q is not supported (want openai or echo)", cfg.Generator.Backend)
	}
	if cfg.Generator.Temperature < 0 || cfg.Generator.Temperature > 2 {
		return errors.New("generator.temperature must be within [0, 2]")
	}
	if cfg.Generator.TopP <= 0 || cfg.Generator.TopP > 1 {
		return errors.New("generator.top_p must be within (0, 1]")
	}
	if cfg.Generator.MaxTokens <= 0 {
		return errors.New("generator.max_tokens must be positive")
	}
	if !strings.HasPrefix(cfg.Artifacts.Mount, "/") {
		return errors.New("artifacts.mount must start with /")
	}
	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return errors.New("metrics.path must start with /")
	}
	if cfg.TrafficDump.MaxBytes < 0 {
		return errors.New("traffic_dump.max_bytes must be non-negative")
	}
	return nil
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func envBool(name string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}
