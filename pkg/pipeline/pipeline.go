// Package pipeline runs turbomach source end to end: evaluate the DSL into
// a design graph, validate it, tessellate every placed part into a sink and
// optionally cross-check blades against a reference solid.
package pipeline

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/chazu/turbomach/internal/config"
	"github.com/chazu/turbomach/internal/logger"
	"github.com/chazu/turbomach/pkg/blade"
	"github.com/chazu/turbomach/pkg/engine"
	"github.com/chazu/turbomach/pkg/graph"
	"github.com/chazu/turbomach/pkg/kernel"
	"github.com/chazu/turbomach/pkg/kernel/sdfx"
	"github.com/chazu/turbomach/pkg/tessellate"
)

// colorPalette is a default palette used to assign distinct colors to parts.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// Pipeline wires an engine, a geometry kernel and the verification settings
// together. It is safe for concurrent use.
type Pipeline struct {
	engine *engine.Engine
	kernel kernel.Kernel
	verify config.VerifyConfig
}

// Problem is a located error or warning.
type Problem struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// Check is the outcome of one reference-solid comparison.
type Check struct {
	Part      string  `json:"part"`
	Volume    float64 `json:"volume"`     // enclosed by the lofted shell
	RefVolume float64 `json:"ref_volume"` // enclosed by the meshed reference solid
	Mismatch  float64 `json:"mismatch"`   // relative difference
	Passed    bool    `json:"passed"`
}

// Result is everything one run produced. Parts is empty whenever Errors
// is not.
type Result struct {
	Graph    *graph.DesignGraph `json:"-"`
	Parts    []tessellate.Part  `json:"-"`
	Errors   []Problem          `json:"errors"`
	Warnings []Problem          `json:"warnings"`
	Checks   []Check            `json:"checks,omitempty"`
}

// OK reports whether the run produced geometry without errors.
func (r *Result) OK() bool {
	return len(r.Errors) == 0
}

// New builds a pipeline from cfg. It also installs the process-wide logger
// described by cfg.Logging.
func New(cfg *config.Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, fmt.Errorf("pipeline: logging: %w", err)
	}
	return &Pipeline{
		engine: engine.NewEngineWithOptions(engine.Options{
			Timeout:       cfg.Engine.Timeout,
			Points:        cfg.Sampling.Points,
			SpanDivisions: cfg.Sampling.SpanDivisions,
		}),
		kernel: sdfx.NewWithResolution(cfg.Kernel.MeshCells),
		verify: cfg.Verify,
	}, nil
}

// Run evaluates source and creates one mesh per placed part in sink.
// Script, validation and sampling problems are reported in the Result; a
// non-nil error means the run could not complete (timeout, sink failure).
func (p *Pipeline) Run(source string, sink kernel.Sink) (*Result, error) {
	result := &Result{Errors: []Problem{}, Warnings: []Problem{}}

	// Step 1: Evaluate the Lisp source into a design graph.
	g, evalErrs, err := p.engine.Evaluate(source)
	if err != nil {
		logger.Error("evaluate failed", zap.Error(err))
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, Problem{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		return result, nil
	}
	result.Graph = g

	// Step 2: Structural and parameter validation. Errors block tessellation.
	vr := graph.ValidateAll(g)
	for _, w := range vr.Warnings {
		result.Warnings = append(result.Warnings, Problem{Message: w.Message})
	}
	if !vr.OK() {
		for _, e := range vr.Errors {
			result.Errors = append(result.Errors, Problem{Message: e.Message})
		}
		return result, nil
	}

	// Step 3: Tessellate the design graph into the sink.
	parts, err := tessellate.Tessellate(g, sink)
	if err != nil {
		logger.Error("tessellate failed", zap.Error(err))
		return nil, err
	}
	result.Parts = parts

	// Step 4: Optional reference-solid cross-check.
	if p.verify.Reference {
		checks, err := p.verifyParts(g, parts)
		if err != nil {
			return nil, err
		}
		result.Checks = checks
		for _, c := range checks {
			if !c.Passed {
				result.Warnings = append(result.Warnings, Problem{
					Message: fmt.Sprintf("blade %q: reference volume %g differs from shell volume %g by %.1f%%",
						c.Part, c.RefVolume, c.Volume, 100*c.Mismatch),
				})
			}
		}
	}

	logger.Info("pipeline finished",
		zap.Int("parts", len(parts)),
		zap.Int("warnings", len(result.Warnings)),
	)
	return result, nil
}

// verifyParts compares the volume enclosed by every blade shell with that
// of a reference solid meshed by the kernel. Each distinct blade is checked
// once.
func (p *Pipeline) verifyParts(g *graph.DesignGraph, parts []tessellate.Part) ([]Check, error) {
	var checks []Check
	seen := make(map[graph.NodeID]bool)
	for _, part := range parts {
		if part.Kind != graph.NodeBlade || seen[part.NodeID] {
			continue
		}
		seen[part.NodeID] = true

		n := g.Get(part.NodeID)
		params := n.Data.(graph.BladeData).Params
		shell, _, err := blade.Loft(params)
		if err != nil {
			return nil, fmt.Errorf("verify %q: %w", part.Name, err)
		}
		sm, err := kernel.NewMesh(n.Name, mgl64.Vec3{}, shell.Vertices, nil, shell.Faces)
		if err != nil {
			return nil, fmt.Errorf("verify %q: %w", part.Name, err)
		}
		solid, err := blade.Reference(params, p.kernel)
		if err != nil {
			return nil, fmt.Errorf("verify %q: %w", part.Name, err)
		}
		ref, err := p.kernel.ToMesh(solid)
		if err != nil {
			return nil, fmt.Errorf("verify %q: %w", part.Name, err)
		}

		c := Check{Part: n.Name, Volume: sm.SignedVolume(), RefVolume: math.Abs(ref.SignedVolume())}
		c.Mismatch = math.Abs(c.RefVolume-c.Volume) / c.Volume
		c.Passed = c.Mismatch <= p.verify.Tolerance
		logger.Debug("reference check",
			zap.String("part", c.Part),
			zap.Float64("volume", c.Volume),
			zap.Float64("ref_volume", c.RefVolume),
			zap.Bool("passed", c.Passed),
		)
		checks = append(checks, c)
	}
	return checks, nil
}

// MeshData is the JSON-serializable mesh format for viewers and exports.
type MeshData struct {
	Vertices []float32  `json:"vertices"`
	Normals  []float32  `json:"normals"`
	Indices  []uint32   `json:"indices"`
	Edges    []uint32   `json:"edges,omitempty"`
	Origin   [3]float64 `json:"origin"`
	PartName string     `json:"partName"`
	Color    string     `json:"color"`
}

// EvalResult is a Result together with the packed meshes.
type EvalResult struct {
	*Result
	Meshes []MeshData `json:"meshes"`
}

// Evaluate runs source into an in-memory sink and returns the packed meshes
// alongside the run's findings. Fatal failures are reported as errors in
// the result.
func (p *Pipeline) Evaluate(source string) EvalResult {
	sink := kernel.NewMemorySink()
	res, err := p.Run(source, sink)
	if err != nil {
		return EvalResult{
			Result: &Result{
				Errors:   []Problem{{Message: err.Error()}},
				Warnings: []Problem{},
			},
			Meshes: []MeshData{},
		}
	}

	out := EvalResult{Result: res, Meshes: []MeshData{}}
	for i, m := range sink.Meshes() {
		out.Meshes = append(out.Meshes, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			Edges:    m.Edges,
			Origin:   m.Origin,
			PartName: m.PartName,
			Color:    colorPalette[i%len(colorPalette)],
		})
	}
	return out
}
