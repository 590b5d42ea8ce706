// Package pipeline wires the text generator, shape vocabulary, artifact
// store and modification engine into the two service operations.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"text/template"
	"time"

	"go.uber.org/zap"

	"github.com/r9s-ai/cadscribe/internal/artifact"
	"github.com/r9s-ai/cadscribe/internal/generator"
	"github.com/r9s-ai/cadscribe/internal/metrics"
	"github.com/r9s-ai/cadscribe/internal/modify"
	"github.com/r9s-ai/cadscribe/internal/shapes"
)

var ErrInvalidSize = errors.New("size must be a finite number greater than zero")

const (
	DefaultSize       = 100.0
	DefaultComplexity = "medium"

	DefaultPromptTemplate = "Generate a 3D model of a shape from the following description: {{.prompt}}. Complexity: {{.complexity}}."
)

type GenerateRequest struct {
	Prompt     string
	Size       float64
	Complexity string
}

type GenerateResult struct {
	Path    string
	Keyword string
	Prompt  string
	Decoded string
}

type ModifyRequest struct {
	GenerateRequest
	Modification string
}

type ModifyResult struct {
	Base     GenerateResult
	Modified modify.Result
}

// Path is the file the caller should use.
func (r ModifyResult) Path() string { return r.Modified.Path }

type Deps struct {
	Vocabulary *shapes.Vocabulary
	Generator  generator.Generator
	Store      *artifact.Store
	Engine     *modify.Engine

	// Backend labels generator metrics.
	Backend        string
	PromptTemplate string

	Logger  *zap.Logger
	Metrics *metrics.Collector
}

// Service is built once at startup and shared by every request.
type Service struct {
	vocab   *shapes.Vocabulary
	gen     generator.Generator
	store   *artifact.Store
	engine  *modify.Engine
	backend string
	tmpl    *template.Template
	logger  *zap.Logger
	metrics *metrics.Collector
}

func New(d Deps) (*Service, error) {
	if d.Vocabulary == nil || d.Vocabulary.Len() == 0 {
		return nil, errors.New("pipeline: vocabulary is empty")
	}
	if d.Generator == nil {
		return nil, errors.New("pipeline: generator is nil")
	}
	if d.Store == nil {
		return nil, errors.New("pipeline: artifact store is nil")
	}
	src := strings.TrimSpace(d.PromptTemplate)
	if src == "" {
		src = DefaultPromptTemplate
	}
	tmpl, err := template.New("prompt").Option("missingkey=zero").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("pipeline: parse prompt template: %w", err)
	}
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	engine := d.Engine
	if engine == nil {
		engine = modify.NewEngine(d.Store, modify.Options{}, logger, d.Metrics)
	}
	backend := d.Backend
	if backend == "" {
		backend = "unknown"
	}
	return &Service{
		vocab:   d.Vocabulary,
		gen:     d.Generator,
		store:   d.Store,
		engine:  engine,
		backend: backend,
		tmpl:    tmpl,
		logger:  logger.With(zap.String("component", "pipeline")),
		metrics: d.Metrics,
	}, nil
}

func (s *Service) Vocabulary() *shapes.Vocabulary { return s.vocab }

// BuildPrompt renders the prompt template.
func (s *Service) BuildPrompt(prompt, complexity string) (string, error) {
	var buf bytes.Buffer
	err := s.tmpl.Execute(&buf, map[string]string{
		"prompt":     prompt,
		"complexity": complexity,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Generate runs generator, resolver and exporter for one request. A text
// that names no known shape yields shapes.ErrShapeNotRecognized.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error) {
	if math.IsNaN(req.Size) || math.IsInf(req.Size, 0) || req.Size <= 0 {
		return GenerateResult{}, fmt.Errorf("%w: got %v", ErrInvalidSize, req.Size)
	}
	complexity := req.Complexity
	if complexity == "" {
		complexity = DefaultComplexity
	}
	prompt, err := s.BuildPrompt(req.Prompt, complexity)
	if err != nil {
		return GenerateResult{}, fmt.Errorf("build prompt: %w", err)
	}

	start := time.Now()
	text, err := s.gen.Generate(ctx, prompt)
	if s.metrics != nil {
		s.metrics.RecordGeneration(s.backend, err == nil, time.Since(start))
	}
	if err != nil {
		return GenerateResult{}, fmt.Errorf("generate text: %w", err)
	}
	decoded := strings.ToLower(text)
	s.logger.Debug("generator output", zap.String("decoded", decoded))

	res := GenerateResult{Prompt: prompt, Decoded: decoded}
	entry, err := s.vocab.Resolve(decoded)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordResolve("")
		}
		return res, err
	}
	if s.metrics != nil {
		s.metrics.RecordResolve(entry.Keyword)
	}
	res.Keyword = entry.Keyword

	m := entry.Shape.Build(req.Size)
	path, err := s.store.Save(m, entry.Keyword)
	if err != nil {
		return res, fmt.Errorf("export %s: %w", entry.Keyword, err)
	}
	if s.metrics != nil {
		s.metrics.RecordArtifact(entry.Keyword)
	}
	res.Path = path
	s.logger.Info("model generated",
		zap.String("shape", entry.Keyword),
		zap.Float64("size", req.Size),
		zap.String("path", path),
	)
	return res, nil
}

// Modify generates a base artifact and then applies the modification to it.
// An empty or unparsable modification returns the base path.
func (s *Service) Modify(ctx context.Context, req ModifyRequest) (ModifyResult, error) {
	base, err := s.Generate(ctx, req.GenerateRequest)
	if err != nil {
		return ModifyResult{Base: base}, err
	}
	mod, err := s.engine.Modify(ctx, base.Path, req.Modification)
	if err != nil {
		return ModifyResult{Base: base}, fmt.Errorf("modify %s: %w", base.Path, err)
	}
	return ModifyResult{Base: base, Modified: mod}, nil
}
