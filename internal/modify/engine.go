package modify

import (
	"context"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/r9s-ai/cadscribe/internal/artifact"
	"github.com/r9s-ai/cadscribe/internal/mesh"
	"github.com/r9s-ai/cadscribe/internal/metrics"
)

// No-op reasons reported in Result.Reason.
const (
	ReasonLoad    = "load"
	ReasonPattern = "pattern"
)

// Result of a modification. When Applied is false, Path is the input path
// and no file was written.
type Result struct {
	Path        string
	Applied     bool
	Reason      string
	Instruction Instruction
	Factors     mgl64.Vec3
}

type Options struct {
	// SignedAxisScaling makes the length/width/height branches honour
	// "decrease". Off by default: those branches always grow by 1+delta.
	SignedAxisScaling bool
}

type Engine struct {
	store   *artifact.Store
	opts    Options
	logger  *zap.Logger
	metrics *metrics.Collector
}

// NewEngine builds an Engine. logger and mc may be nil.
func NewEngine(store *artifact.Store, opts Options, logger *zap.Logger, mc *metrics.Collector) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:   store,
		opts:    opts,
		logger:  logger.With(zap.String("component", "modify")),
		metrics: mc,
	}
}

// Modify loads path, applies instruction and exports a new "_modified"
// artifact. Unloadable files and unparsable instructions are no-ops that
// return path unchanged; export failures are returned as errors.
func (e *Engine) Modify(ctx context.Context, path, instruction string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	m, err := e.store.Load(path)
	if err != nil {
		e.logger.Warn("modification skipped: load failed", zap.String("path", path), zap.Error(err))
		e.record(ReasonLoad, "")
		return Result{Path: path, Reason: ReasonLoad}, nil
	}

	in, ok := Parse(instruction)
	if !ok {
		e.logger.Info("modification skipped: no valid pattern", zap.String("instruction", instruction))
		e.record(ReasonPattern, "")
		return Result{Path: path, Reason: ReasonPattern}, nil
	}

	factors := e.Factors(in)
	origin := mgl64.Vec3{}
	if in.Axis == Uniform {
		origin = m.Centroid()
	}
	m.Transform(mesh.ScaleAbout(factors, origin))

	out, err := e.store.Save(m, artifact.ModifiedSuffix)
	if err != nil {
		return Result{}, fmt.Errorf("export modified mesh: %w", err)
	}
	if e.metrics != nil {
		e.metrics.RecordArtifact(artifact.ModifiedSuffix)
	}
	e.record("applied", in.Axis.String())
	e.logger.Debug("modification applied",
		zap.String("src", path),
		zap.String("dst", out),
		zap.String("axis", in.Axis.String()),
		zap.Float64("value", in.Value),
	)
	return Result{Path: out, Applied: true, Instruction: in, Factors: factors}, nil
}

// Factors returns the per-axis scale for in.
func (e *Engine) Factors(in Instruction) mgl64.Vec3 {
	if in.Axis == Uniform {
		s := in.Scale()
		return mgl64.Vec3{s, s, s}
	}
	s := 1 + in.Delta()
	if e.opts.SignedAxisScaling {
		s = in.Scale()
	}
	f := mgl64.Vec3{1, 1, 1}
	f[int(in.Axis)-1] = s
	return f
}

func (e *Engine) record(result, axis string) {
	if e.metrics == nil {
		return
	}
	if result != "applied" {
		result = "noop_" + result
	}
	e.metrics.RecordModification(result, axis)
}
