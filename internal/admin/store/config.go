package store

import (
	"errors"
	"os"
	"strings"

	"github.com/r9s-ai/cadscribe/internal/config"
)

// LoadConfigIfExists returns nil without error when path is empty or absent.
func LoadConfigIfExists(path string) (*config.Config, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, nil
	}
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return config.Load(p)
}

// ResolveDumpsDir prefers flag, then cfg, then "./dumps".
func ResolveDumpsDir(cfg *config.Config, flag string) string {
	if v := strings.TrimSpace(flag); v != "" {
		return v
	}
	if cfg != nil && strings.TrimSpace(cfg.TrafficDump.Dir) != "" {
		return strings.TrimSpace(cfg.TrafficDump.Dir)
	}
	return "./dumps"
}

// ResolveArtifactsDir prefers flag, then cfg, then "./uploads".
func ResolveArtifactsDir(cfg *config.Config, flag string) string {
	if v := strings.TrimSpace(flag); v != "" {
		return v
	}
	if cfg != nil && strings.TrimSpace(cfg.Artifacts.Dir) != "" {
		return strings.TrimSpace(cfg.Artifacts.Dir)
	}
	return "./uploads"
}
