package cadserver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/r9s-ai/cadscribe/internal/artifact"
	"github.com/r9s-ai/cadscribe/internal/config"
	"github.com/r9s-ai/cadscribe/internal/generator"
	"github.com/r9s-ai/cadscribe/internal/metrics"
	"github.com/r9s-ai/cadscribe/internal/modify"
	"github.com/r9s-ai/cadscribe/internal/pipeline"
	"github.com/r9s-ai/cadscribe/internal/shapes"
	"github.com/r9s-ai/cadscribe/internal/upload"
)

// state is built once per process and shared read-only by handlers.
type state struct {
	svc      *pipeline.Service
	store    *artifact.Store
	uploader *upload.Client
	metrics  *metrics.Collector
	logger   *zap.Logger
	backend  string

	startedAt int64
}

// newState wires the service graph from cfg. gen overrides the configured
// backend when non-nil.
func newState(cfg *config.Config, gen generator.Generator, logger *zap.Logger) (*state, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	store, err := artifact.NewStore(cfg.Artifacts.Dir)
	if err != nil {
		return nil, err
	}

	var mc *metrics.Collector
	if cfg.MetricsEnabled() {
		mc = metrics.NewCollector("cadscribe", logger)
	}

	backend := cfg.Generator.Backend
	if gen == nil {
		gen, err = generator.New(generator.Config{
			Backend: cfg.Generator.Backend,
			BaseURL: cfg.Generator.BaseURL,
			APIKey:  cfg.Generator.APIKey,
			Model:   cfg.Generator.Model,
			Options: generator.Options{
				MaxTokens:   cfg.Generator.MaxTokens,
				Temperature: cfg.Generator.Temperature,
				TopP:        cfg.Generator.TopP,
			},
			EchoPrompt: cfg.EchoPrompt(),
			TimeoutMs:  cfg.Generator.TimeoutMs,
		})
		if err != nil {
			return nil, fmt.Errorf("init generator: %w", err)
		}
	}

	engine := modify.NewEngine(store, modify.Options{
		SignedAxisScaling: cfg.Modify.SignedAxisScaling,
	}, logger, mc)

	svc, err := pipeline.New(pipeline.Deps{
		Vocabulary:     shapes.Default(),
		Generator:      gen,
		Store:          store,
		Engine:         engine,
		Backend:        backend,
		PromptTemplate: cfg.Generator.PromptTemplate,
		Logger:         logger,
		Metrics:        mc,
	})
	if err != nil {
		return nil, err
	}

	st := &state{
		svc:       svc,
		store:     store,
		metrics:   mc,
		logger:    logger.With(zap.String("component", "cadserver")),
		backend:   backend,
		startedAt: time.Now().Unix(),
	}
	if cfg.UploadEnabled() {
		st.uploader, err = upload.New(upload.Params{
			URL:     cfg.Upload.URL,
			APIKey:  cfg.Upload.APIKey,
			Timeout: time.Duration(cfg.Upload.TimeoutMs) * time.Millisecond,
		})
		if err != nil {
			return nil, fmt.Errorf("init upload client: %w", err)
		}
	}
	return st, nil
}

// ownsArtifact reports whether p points at a file inside the artifact dir.
func (s *state) ownsArtifact(p string) bool {
	if strings.TrimSpace(p) == "" {
		return false
	}
	dir, err := filepath.Abs(s.store.Dir())
	if err != nil {
		return false
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(dir, abs)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") || strings.ContainsRune(rel, filepath.Separator) {
		return false
	}
	fi, err := os.Stat(abs)
	return err == nil && fi.Mode().IsRegular()
}
