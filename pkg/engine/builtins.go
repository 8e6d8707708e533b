package engine

import (
	"fmt"
	"math"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/chazu/turbomach/pkg/blade"
	"github.com/chazu/turbomach/pkg/graph"
	"github.com/chazu/turbomach/pkg/naca"
)

// Defaults for (airfoil ...) keywords that are omitted.
const (
	defaultAirfoilCamber         = 10.0
	defaultAirfoilThickness      = 10.0
	defaultAirfoilCamberPosition = 30.0
	defaultAirfoilChord          = 50.0
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpAirfoil wraps naca.Params so it can be returned from `airfoil`
// and consumed by `defpart`.
type sexpAirfoil struct {
	params naca.Params
}

func (a *sexpAirfoil) SexpString(ps *zygo.PrintState) string {
	p := a.params
	return fmt.Sprintf("(airfoil :camber %g :thickness %g :camber-pos %g :chord %g :points %d)",
		p.Camber, p.Thickness, p.CamberPosition, p.Chord, p.Points)
}
func (a *sexpAirfoil) Type() *zygo.RegisteredType { return nil }

// sexpBlade wraps blade.Params so it can be returned from `blade`
// and consumed by `defpart`.
type sexpBlade struct {
	params blade.Params
}

func (b *sexpBlade) SexpString(ps *zygo.PrintState) string {
	p := b.params
	return fmt.Sprintf("(blade :height %g :root-chord %g :tip-chord %g :twist %g :span %d :points %d)",
		p.Height, p.RootChord, p.TipChord, p.Twist, p.SpanDivisions, p.Points)
}
func (b *sexpBlade) Type() *zygo.RegisteredType { return nil }

// sexpNodeRef wraps a graph.NodeID so it can be passed between builtins.
type sexpNodeRef struct {
	id   graph.NodeID
	name string // human-readable name for error messages
}

func (n *sexpNodeRef) SexpString(ps *zygo.PrintState) string {
	if n.name != "" {
		return fmt.Sprintf("(noderef %q)", n.name)
	}
	return fmt.Sprintf("(noderef %s)", n.id.Short())
}
func (n *sexpNodeRef) Type() *zygo.RegisteredType { return nil }

// sexpVec2 wraps an mgl64.Vec2.
type sexpVec2 struct {
	vec mgl64.Vec2
}

func (v *sexpVec2) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec2 %g %g)", v.vec.X(), v.vec.Y())
}
func (v *sexpVec2) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps an mgl64.Vec3.
type sexpVec3 struct {
	vec mgl64.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X(), v.vec.Y(), v.vec.Z())
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	form       string
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(form string, args []zygo.Sexp) kwArgs {
	result := kwArgs{form: form, kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value; treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// number stores keyword key into dst if present.
func (pa kwArgs) number(key string, dst *float64) error {
	v, ok := pa.kw[key]
	if !ok {
		return nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", pa.form, key, err)
	}
	*dst = f
	return nil
}

// count stores keyword key into dst if present.
func (pa kwArgs) count(key string, dst *int) error {
	v, ok := pa.kw[key]
	if !ok {
		return nil
	}
	n, err := toInt(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", pa.form, key, err)
	}
	*dst = n
	return nil
}

// unknown reports the first keyword not in allowed.
func (pa kwArgs) unknown(allowed ...string) error {
	for k := range pa.kw {
		found := false
		for _, a := range allowed {
			if k == a {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%s: unknown keyword :%s", pa.form, k)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an integer count from a Sexp. Floats are accepted only
// when they hold a whole number.
func toInt(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		if v.Val == math.Trunc(v.Val) && math.Abs(v.Val) < math.MaxInt32 {
			return int(v.Val), nil
		}
		return 0, fmt.Errorf("expected whole number, got %g", v.Val)
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toNodeRef extracts a sexpNodeRef.
func toNodeRef(s zygo.Sexp) (*sexpNodeRef, error) {
	if ref, ok := s.(*sexpNodeRef); ok {
		return ref, nil
	}
	return nil, fmt.Errorf("expected node reference, got %T (%s)", s, s.SexpString(nil))
}

// toVec2 extracts a Vec2 from a sexpVec2.
func toVec2(s zygo.Sexp) (mgl64.Vec2, error) {
	if v, ok := s.(*sexpVec2); ok {
		return v.vec, nil
	}
	return mgl64.Vec2{}, fmt.Errorf("expected vec2, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a Vec3 from a sexpVec3.
func toVec3(s zygo.Sexp) (mgl64.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return mgl64.Vec3{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// ---------------------------------------------------------------------------
// Graph builder
// ---------------------------------------------------------------------------

// builder carries the per-evaluation state shared by the builtins.
type builder struct {
	g    *graph.DesignGraph
	opts Options
	seq  map[string]int
}

func newBuilder(g *graph.DesignGraph, opts Options) *builder {
	return &builder{g: g, opts: opts, seq: make(map[string]int)}
}

// nextPath returns prefix/n with n counting up per prefix, so repeated
// forms get distinct but reproducible node IDs.
func (b *builder) nextPath(prefix string) string {
	b.seq[prefix]++
	return fmt.Sprintf("%s/%d", prefix, b.seq[prefix])
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs all turbomach DSL builtins into a zygomys
// environment. The builtins populate b's graph during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, b *builder) {
	env.AddFunction("vec2", b.vec2)
	env.AddFunction("vec3", b.vec3)
	env.AddFunction("airfoil", b.airfoil)
	env.AddFunction("blade", b.blade)
	env.AddFunction("defpart", b.defpart)
	env.AddFunction("part", b.part)
	env.AddFunction("place", b.place)
	env.AddFunction("stage", b.stage)
}

// (vec2 25 0)
func (b *builder) vec2(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 2 {
		return zygo.SexpNull, fmt.Errorf("vec2 requires exactly 2 arguments, got %d", len(args))
	}
	x, err := toFloat64(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("vec2: x: %w", err)
	}
	y, err := toFloat64(args[1])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("vec2: y: %w", err)
	}
	return &sexpVec2{vec: mgl64.Vec2{x, y}}, nil
}

// (vec3 1 2 3)
func (b *builder) vec3(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 3 {
		return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
	}
	var v mgl64.Vec3
	for i, axis := range []string{"x", "y", "z"} {
		f, err := toFloat64(args[i])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: %s: %w", axis, err)
		}
		v[i] = f
	}
	return &sexpVec3{vec: v}, nil
}

// (airfoil :camber 2 :thickness 12 :camber-pos 40 :chord 50 :points 50)
func (b *builder) airfoil(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs("airfoil", args)
	if err := pa.unknown("camber", "thickness", "camber-pos", "chord", "points"); err != nil {
		return zygo.SexpNull, err
	}

	p := naca.Params{
		Camber:         defaultAirfoilCamber,
		Thickness:      defaultAirfoilThickness,
		CamberPosition: defaultAirfoilCamberPosition,
		Chord:          defaultAirfoilChord,
		Points:         b.opts.Points,
	}
	for _, err := range []error{
		pa.number("camber", &p.Camber),
		pa.number("thickness", &p.Thickness),
		pa.number("camber-pos", &p.CamberPosition),
		pa.number("chord", &p.Chord),
		pa.count("points", &p.Points),
	} {
		if err != nil {
			return zygo.SexpNull, err
		}
	}
	return &sexpAirfoil{params: p}, nil
}

// (blade :camber-root 4 :camber-tip 2 :camber-pos 40 :thickness 12
//        :height 100 :twist 30 :root-chord 50 :tip-chord 30
//        :center (vec2 25 0) :span 10 :points 50)
//
// :height and :root-chord are required. :camber-tip defaults to
// :camber-root and :tip-chord to :root-chord.
func (b *builder) blade(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs("blade", args)
	if err := pa.unknown("camber-root", "camber-tip", "camber-pos", "thickness", "height",
		"twist", "root-chord", "tip-chord", "center", "span", "points"); err != nil {
		return zygo.SexpNull, err
	}
	for _, req := range []string{"height", "root-chord"} {
		if _, ok := pa.kw[req]; !ok {
			return zygo.SexpNull, fmt.Errorf("blade: :%s is required", req)
		}
	}

	p := blade.Params{
		CamberPosition: naca.DefaultCamberPosition,
		Thickness:      naca.DefaultThickness,
		SpanDivisions:  b.opts.SpanDivisions,
		Points:         b.opts.Points,
	}
	for _, err := range []error{
		pa.number("camber-root", &p.CamberRoot),
		pa.number("camber-pos", &p.CamberPosition),
		pa.number("thickness", &p.Thickness),
		pa.number("height", &p.Height),
		pa.number("twist", &p.Twist),
		pa.number("root-chord", &p.RootChord),
		pa.count("span", &p.SpanDivisions),
		pa.count("points", &p.Points),
	} {
		if err != nil {
			return zygo.SexpNull, err
		}
	}

	p.CamberTip = p.CamberRoot
	if err := pa.number("camber-tip", &p.CamberTip); err != nil {
		return zygo.SexpNull, err
	}
	p.TipChord = p.RootChord
	if err := pa.number("tip-chord", &p.TipChord); err != nil {
		return zygo.SexpNull, err
	}
	if v, ok := pa.kw["center"]; ok {
		c, err := toVec2(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("blade: center: %w", err)
		}
		p.CenterOfTwist = c
	}

	return &sexpBlade{params: p}, nil
}

// (defpart "name" (blade ...)) or (defpart "name" (airfoil ...))
func (b *builder) defpart(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) < 2 {
		return zygo.SexpNull, fmt.Errorf("defpart requires a name and a body expression")
	}

	partName, err := toString(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("defpart: name: %w", err)
	}
	if partName == "" {
		return zygo.SexpNull, fmt.Errorf("defpart: name must not be empty")
	}
	if b.g.Lookup(partName) != nil {
		return zygo.SexpNull, fmt.Errorf("defpart: %q is already defined", partName)
	}

	node := &graph.Node{
		ID:   graph.NewNodeID("defpart/" + partName),
		Name: partName,
	}
	switch body := args[1].(type) {
	case *sexpAirfoil:
		node.Kind = graph.NodeAirfoil
		node.Data = graph.AirfoilData{Params: body.params}
	case *sexpBlade:
		node.Kind = graph.NodeBlade
		node.Data = graph.BladeData{Params: body.params}
	default:
		return zygo.SexpNull, fmt.Errorf("defpart: expected airfoil or blade expression, got %T", args[1])
	}
	b.g.AddNode(node)

	return &sexpNodeRef{id: node.ID, name: partName}, nil
}

// (part "name")
func (b *builder) part(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) < 1 {
		return zygo.SexpNull, fmt.Errorf("part requires a name argument")
	}

	partName, err := toString(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("part: name: %w", err)
	}

	n := b.g.Lookup(partName)
	if n == nil {
		return zygo.SexpNull, fmt.Errorf("part: no part named %q", partName)
	}

	return &sexpNodeRef{id: n.ID, name: partName}, nil
}

// (place (part "rotor-blade") :at (vec3 0 0 10) :rotate 15)
func (b *builder) place(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs("place", args)
	if err := pa.unknown("at", "rotate"); err != nil {
		return zygo.SexpNull, err
	}

	if len(pa.positional) != 1 {
		return zygo.SexpNull, fmt.Errorf("place requires exactly one part reference, got %d", len(pa.positional))
	}
	child, err := toNodeRef(pa.positional[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("place: part: %w", err)
	}

	td := graph.TransformData{}
	if v, ok := pa.kw["at"]; ok {
		vec, err := toVec3(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("place: at: %w", err)
		}
		td.Translation = &vec
	}
	if err := pa.number("rotate", &td.Rotation); err != nil {
		return zygo.SexpNull, err
	}

	label := child.name
	if label == "" {
		label = child.id.Short()
	}
	id := graph.NewNodeID(b.nextPath("place/" + label))
	b.g.AddNode(&graph.Node{
		ID:       id,
		Kind:     graph.NodeTransform,
		Children: []graph.NodeID{child.id},
		Data:     td,
	})

	return &sexpNodeRef{id: id}, nil
}

// (stage "name" (place ...) (part ...) ...)
func (b *builder) stage(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) < 1 {
		return zygo.SexpNull, fmt.Errorf("stage requires a name argument")
	}

	stageName, err := toString(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("stage: name: %w", err)
	}
	if b.g.Lookup(stageName) != nil {
		return zygo.SexpNull, fmt.Errorf("stage: %q is already defined", stageName)
	}

	var children []graph.NodeID
	for i := 1; i < len(args); i++ {
		ref, ok := args[i].(*sexpNodeRef)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("stage: child %d: expected node reference, got %T (%s)",
				i, args[i], args[i].SexpString(nil))
		}
		children = append(children, ref.id)
	}

	id := graph.NewNodeID("stage/" + stageName)
	b.g.AddNode(&graph.Node{
		ID:       id,
		Kind:     graph.NodeGroup,
		Name:     stageName,
		Children: children,
		Data:     graph.GroupData{},
	})
	b.g.AddRoot(id)

	return &sexpNodeRef{id: id, name: stageName}, nil
}
