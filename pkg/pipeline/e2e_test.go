package pipeline

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/turbomach/pkg/kernel"
)

// TestE2ERotorStageExample exercises the full path: Lisp source -> engine ->
// graph -> validation -> tessellate -> sink, on the bundled example.
func TestE2ERotorStageExample(t *testing.T) {
	source, err := os.ReadFile("../../examples/rotor_stage.lisp")
	require.NoError(t, err)

	p := newPipeline(t, nil)
	sink := kernel.NewMemorySink()
	res, err := p.Run(string(source), sink)
	require.NoError(t, err)
	for _, e := range res.Errors {
		t.Errorf("eval error (line %d): %s", e.Line, e.Message)
	}
	require.True(t, res.OK())
	assert.Empty(t, res.Warnings)

	expected := map[string]bool{
		"rotor-blade":   false,
		"rotor-blade#2": false,
		"rotor-blade#3": false,
		"hub-section":   false,
		"stator-vane":   false,
		"stator-vane#2": false,
	}
	require.Len(t, sink.Meshes(), len(expected))
	for _, m := range sink.Meshes() {
		_, ok := expected[m.PartName]
		if !assert.True(t, ok, "unexpected part name %q", m.PartName) {
			continue
		}
		expected[m.PartName] = true

		assert.NotEmpty(t, m.Vertices, "part %q: no vertices", m.PartName)
		assert.Len(t, m.Normals, len(m.Vertices), "part %q", m.PartName)
		if m.PartName == "hub-section" {
			assert.Equal(t, 2*40-1, m.EdgeCount())
			continue
		}
		assert.NoError(t, m.CheckClosed(), "part %q", m.PartName)
		assert.Greater(t, m.SignedVolume(), 0.0, "part %q should face outward", m.PartName)
	}
	for name, found := range expected {
		assert.True(t, found, "missing mesh for part %q", name)
	}

	stator := sink.Lookup("stator-vane")
	require.NotNil(t, stator)
	assert.Equal(t, [3]float64{0, 0, 150}, stator.Origin)
}

func TestE2EEmptyAndCommentOnlySources(t *testing.T) {
	p := newPipeline(t, nil)
	for _, src := range []string{"", "   \n\t ", ";; just a comment", "; one\n;; two\n"} {
		out := p.Evaluate(src)
		assert.True(t, out.OK(), "source %q: %v", src, out.Errors)
		assert.Empty(t, out.Meshes, "source %q", src)
	}
}

func TestE2ESyntaxError(t *testing.T) {
	p := newPipeline(t, nil)
	out := p.Evaluate("(defpart \"broken\"\n  (airfoil :camber 2")
	require.NotEmpty(t, out.Errors)
	assert.NotEmpty(t, out.Errors[0].Message)
	assert.Empty(t, out.Meshes)
}

func TestE2ESharedPartAcrossStages(t *testing.T) {
	p := newPipeline(t, nil)
	out := p.Evaluate(`
(defpart "vane" (blade :height 30 :root-chord 10 :span 2 :points 6))
(stage "row-1" (place (part "vane") :at (vec3 0 0 0)))
(stage "row-2" (place (part "vane") :at (vec3 0 0 50)))
`)
	require.True(t, out.OK(), "errors: %v", out.Errors)
	require.Len(t, out.Meshes, 2)
	assert.Equal(t, "vane", out.Meshes[0].PartName)
	assert.Equal(t, "vane#2", out.Meshes[1].PartName)
	assert.Equal(t, [3]float64{0, 0, 50}, out.Meshes[1].Origin)
}

func TestE2EColorPaletteWrapping(t *testing.T) {
	p := newPipeline(t, nil)
	src := `(defpart "s" (airfoil :points 4))
(stage "many"`
	for i := 0; i < len(colorPalette)+2; i++ {
		src += ` (place (part "s") :rotate 0)`
	}
	src += ")"

	out := p.Evaluate(src)
	require.True(t, out.OK(), "errors: %v", out.Errors)
	require.Len(t, out.Meshes, len(colorPalette)+2)
	assert.Equal(t, out.Meshes[0].Color, out.Meshes[len(colorPalette)].Color)
	assert.Equal(t, out.Meshes[1].Color, out.Meshes[len(colorPalette)+1].Color)
}

// Sequential evaluations alternating between valid and broken sources must
// recover cleanly.
func TestE2ERapidEvaluationAlternating(t *testing.T) {
	p := newPipeline(t, nil)
	sources := []string{
		`(stage "ok" (defpart "a" (airfoil :points 5)))`,
		`(defpart "broken"`,
		``,
		`(part "missing")`,
		`(stage "also-ok" (defpart "b" (blade :height 5 :root-chord 2 :span 1 :points 4)))`,
		`(+ 1 2)`,
		`(undefined-func 1 2 3)`,
		`(stage "last" (defpart "c" (airfoil :points 3)))`,
	}
	wantOK := []bool{true, false, true, false, true, true, false, true}

	for i, src := range sources {
		out := p.Evaluate(src)
		assert.Equal(t, wantOK[i], out.OK(), "source %d %q: %v", i, src, out.Errors)
	}
}
