package pipeline

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/turbomach/internal/config"
	"github.com/chazu/turbomach/internal/logger"
	"github.com/chazu/turbomach/pkg/blade"
	"github.com/chazu/turbomach/pkg/graph"
	"github.com/chazu/turbomach/pkg/kernel"
)

const rotorStage = `
;; one rotor row and a hub section
(defpart "rotor-blade"
  (blade :camber-root 4 :camber-tip 2 :camber-pos 40 :thickness 12
         :height 100 :twist 30 :root-chord 50 :tip-chord 30
         :center (vec2 25 0) :span 4 :points 12))
(defpart "hub" (airfoil :camber 2 :thickness 12 :camber-pos 40 :chord 60 :points 12))

(stage "rotor"
  (place (part "rotor-blade") :at (vec3 0 0 20) :rotate 0)
  (place (part "rotor-blade") :at (vec3 0 0 20) :rotate 180)
  (part "hub"))
`

func newPipeline(t *testing.T, edit func(*config.Config)) *Pipeline {
	t.Helper()
	cfg := config.Default()
	cfg.Kernel.MeshCells = 40
	if edit != nil {
		edit(cfg)
	}
	p, err := New(cfg)
	require.NoError(t, err)
	return p
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Sampling.Points = 1
	_, err := New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sampling.points")
}

func TestRunStage(t *testing.T) {
	p := newPipeline(t, nil)
	sink := kernel.NewMemorySink()

	res, err := p.Run(rotorStage, sink)
	require.NoError(t, err)
	require.True(t, res.OK(), "errors: %v", res.Errors)
	assert.Empty(t, res.Warnings)
	assert.Empty(t, res.Checks, "verification is off by default")
	require.NotNil(t, res.Graph)

	require.Len(t, res.Parts, 3)
	assert.Equal(t, "rotor-blade", res.Parts[0].Name)
	assert.Equal(t, "rotor-blade#2", res.Parts[1].Name)
	assert.Equal(t, "hub", res.Parts[2].Name)

	meshes := sink.Meshes()
	require.Len(t, meshes, 3)
	for _, m := range meshes[:2] {
		assert.Equal(t, (4+1)*2*12, m.VertexCount())
		assert.Equal(t, blade.FaceCount(12, 4), m.TriangleCount())
		assert.NoError(t, m.CheckClosed())
		assert.Equal(t, [3]float64{0, 0, 20}, m.Origin)
	}
	assert.Equal(t, 2*12-1, meshes[2].EdgeCount())
}

func TestRunSamplingDefaultsFromConfig(t *testing.T) {
	p := newPipeline(t, func(c *config.Config) {
		c.Sampling.Points = 8
		c.Sampling.SpanDivisions = 3
	})
	sink := kernel.NewMemorySink()

	res, err := p.Run(`(stage "s" (defpart "b" (blade :height 10 :root-chord 5)))`, sink)
	require.NoError(t, err)
	require.True(t, res.OK(), "errors: %v", res.Errors)

	m := sink.Lookup("b")
	require.NotNil(t, m)
	assert.Equal(t, (3+1)*2*8, m.VertexCount())
}

func TestRunEvalErrors(t *testing.T) {
	p := newPipeline(t, nil)
	sink := kernel.NewMemorySink()

	res, err := p.Run(`(stage "s" (part "missing"))`, sink)
	require.NoError(t, err)
	assert.False(t, res.OK())
	require.NotEmpty(t, res.Errors)
	assert.NotEmpty(t, res.Errors[0].Message)
	assert.Nil(t, res.Graph)
	assert.Empty(t, res.Parts)
	assert.Empty(t, sink.Meshes())
}

func TestRunValidationErrorsBlockTessellation(t *testing.T) {
	p := newPipeline(t, nil)
	sink := kernel.NewMemorySink()

	res, err := p.Run(`(stage "s" (defpart "b" (blade :height 10 :root-chord 5 :span 0)))`, sink)
	require.NoError(t, err)
	assert.False(t, res.OK())
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Message, `blade "b"`)
	assert.Contains(t, res.Errors[0].Message, "span_divisions")
	assert.Empty(t, sink.Meshes())
}

func TestRunWarningsDoNotBlock(t *testing.T) {
	p := newPipeline(t, nil)
	sink := kernel.NewMemorySink()

	res, err := p.Run(`(stage "s" (defpart "a" (airfoil :camber 150 :points 6)))`, sink)
	require.NoError(t, err)
	require.True(t, res.OK(), "errors: %v", res.Errors)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0].Message, "camber 150")
	require.Len(t, res.Parts, 1)
	require.Len(t, res.Parts[0].Report.Warnings, 1)
	assert.Equal(t, "camber", res.Parts[0].Report.Warnings[0].Field)
}

func TestRunOrphanPartIsWarningOnly(t *testing.T) {
	p := newPipeline(t, nil)
	sink := kernel.NewMemorySink()

	res, err := p.Run(`(defpart "spare" (airfoil))`, sink)
	require.NoError(t, err)
	require.True(t, res.OK())
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0].Message, "not reachable")
	assert.Empty(t, sink.Meshes(), "only parts reachable from a stage are emitted")
}

// straightStage places an untwisted blade of constant camber twice, which
// the reference extrusion reproduces up to meshing error.
const straightStage = `
(defpart "strut"
  (blade :camber-root 2 :camber-tip 2 :camber-pos 40 :thickness 30
         :height 20 :twist 0 :root-chord 20 :tip-chord 14
         :center (vec2 25 0) :span 4 :points 40))
(stage "struts"
  (place (part "strut") :at (vec3 0 0 0))
  (place (part "strut") :at (vec3 0 0 40)))
`

func TestRunReferenceVerification(t *testing.T) {
	p := newPipeline(t, func(c *config.Config) {
		c.Kernel.MeshCells = 120
		c.Verify.Reference = true
		c.Verify.Tolerance = 0.1
	})

	res, err := p.Run(straightStage, kernel.NewMemorySink())
	require.NoError(t, err)
	require.True(t, res.OK(), "errors: %v", res.Errors)

	// Two placements of one blade are checked once.
	require.Len(t, res.Checks, 1)
	c := res.Checks[0]
	assert.Equal(t, "strut", c.Part)
	assert.Greater(t, c.Volume, 0.0)
	assert.Greater(t, c.RefVolume, 0.0)
	assert.InDelta(t, math.Abs(c.RefVolume-c.Volume)/c.Volume, c.Mismatch, 1e-12)
	assert.True(t, c.Passed, "mismatch %g", c.Mismatch)
	assert.Empty(t, res.Warnings)
}

func TestRunReferenceVerificationTightToleranceFails(t *testing.T) {
	p := newPipeline(t, func(c *config.Config) {
		c.Verify.Reference = true
		c.Verify.Tolerance = 1e-9
	})

	res, err := p.Run(rotorStage, kernel.NewMemorySink())
	require.NoError(t, err)
	require.True(t, res.OK(), "a failed check is a warning, not an error")

	require.Len(t, res.Checks, 1)
	c := res.Checks[0]
	assert.Greater(t, c.Mismatch, 1e-9)
	assert.False(t, c.Passed)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0].Message, `blade "rotor-blade": reference volume`)
	assert.Len(t, res.Parts, 3, "geometry is still emitted")
}

func TestNewInstallsConfiguredLogger(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "turbomach.log")
	prev := logger.Log
	t.Cleanup(func() { logger.Log = prev })

	p := newPipeline(t, func(c *config.Config) {
		c.Logging.Level = "warn"
		c.Logging.LogFile = logFile
	})
	res, err := p.Run(`(stage "s" (defpart "a" (airfoil :camber 150 :points 6)))`, kernel.NewMemorySink())
	require.NoError(t, err)
	require.True(t, res.OK(), "errors: %v", res.Errors)
	logger.Sync()

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	log := string(content)
	assert.Equal(t, 1, strings.Count(log, "substituting default"), "log:\n%s", log)
	assert.Contains(t, log, "WARN")
	assert.NotContains(t, log, "pipeline finished", "info entries are below the configured level")
}

func TestRunTimeoutIsFatal(t *testing.T) {
	p := newPipeline(t, func(c *config.Config) {
		c.Engine.Timeout = time.Nanosecond
	})

	res, err := p.Run(rotorStage, kernel.NewMemorySink())
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Contains(t, err.Error(), "timed out")

	out := p.Evaluate(rotorStage)
	require.Len(t, out.Errors, 1)
	assert.Contains(t, out.Errors[0].Message, "timed out")
	assert.Empty(t, out.Meshes)
}

func TestEvaluatePacksMeshes(t *testing.T) {
	p := newPipeline(t, nil)

	out := p.Evaluate(rotorStage)
	require.True(t, out.OK(), "errors: %v", out.Errors)
	require.Len(t, out.Meshes, 3)

	for i, m := range out.Meshes {
		assert.Equal(t, colorPalette[i], m.Color)
		assert.Len(t, m.Normals, len(m.Vertices))
	}
	assert.Equal(t, "hub", out.Meshes[2].PartName)
	assert.Empty(t, out.Meshes[2].Indices)
	assert.NotEmpty(t, out.Meshes[2].Edges)

	raw, err := json.Marshal(out)
	require.NoError(t, err)
	var decoded struct {
		Errors []Problem  `json:"errors"`
		Meshes []MeshData `json:"meshes"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Empty(t, decoded.Errors)
	assert.Len(t, decoded.Meshes, 3)
}

func TestRunParts(t *testing.T) {
	p := newPipeline(t, nil)
	res, err := p.Run(rotorStage, kernel.NewMemorySink())
	require.NoError(t, err)

	for _, part := range res.Parts {
		n := res.Graph.Get(part.NodeID)
		require.NotNil(t, n)
		assert.Equal(t, n.Kind, part.Kind)
		assert.True(t, part.Kind.IsPart())
	}
	assert.Equal(t, graph.NodeBlade, res.Parts[0].Kind)
}
