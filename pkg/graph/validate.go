package graph

import (
	"fmt"
	"math"
	"sort"
)

// ValidationSeverity indicates whether a validation finding blocks evaluation
// or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks evaluation
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	NodeID   NodeID             // which node has the problem (zero if graph-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.NodeID.IsZero() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] node %s: %s", e.Severity, e.NodeID.Short(), e.Message)
}

// ValidationWarning describes a non-blocking advisory finding.
type ValidationWarning struct {
	NodeID  NodeID
	Message string
}

// ValidationResult bundles errors (blocking) and warnings (advisory)
// from all validation tiers.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// OK reports whether the graph may be tessellated.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Validate runs all structural validation checks on the design graph and
// returns a slice of validation findings. An empty slice means the graph is
// valid. This function is read-only and never mutates the graph.
func Validate(g *DesignGraph) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateDAG(g)...)
	errs = append(errs, validateReferences(g)...)
	errs = append(errs, validateNames(g)...)
	errs = append(errs, validateRoots(g)...)
	errs = append(errs, validateShapes(g)...)
	return errs
}

// ValidateAll runs the structural checks and the parameter checks and
// returns a ValidationResult with separated errors and warnings. Parameter
// findings are reported in node name order.
func ValidateAll(g *DesignGraph) ValidationResult {
	var result ValidationResult
	for _, e := range Validate(g) {
		if e.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, ValidationWarning{
				NodeID:  e.NodeID,
				Message: e.Message,
			})
		} else {
			result.Errors = append(result.Errors, e)
		}
	}

	paramErrs, paramWarnings := validateParameters(g)
	result.Errors = append(result.Errors, paramErrs...)
	result.Warnings = append(result.Warnings, paramWarnings...)
	return result
}

// validateDAG checks for cycles using DFS with 3-color marking.
// White (0) = unvisited, gray (1) = in current DFS path, black (2) = fully explored.
// If we encounter a gray node during traversal, we have found a cycle.
func validateDAG(g *DesignGraph) []ValidationError {
	const (
		white = iota
		gray
		black
	)

	color := make(map[NodeID]int) // default zero = white
	var errs []ValidationError

	var visit func(id NodeID) bool // returns true if cycle found
	visit = func(id NodeID) bool {
		switch color[id] {
		case black:
			return false
		case gray:
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("cycle detected: node %s is part of a cycle", id.Short()),
				Severity: SeverityError,
			})
			return true
		}

		color[id] = gray

		node, ok := g.Nodes[id]
		if !ok {
			// Dangling reference; handled by validateReferences.
			color[id] = black
			return false
		}

		for _, childID := range node.Children {
			if visit(childID) {
				return true
			}
		}

		color[id] = black
		return false
	}

	// Start DFS from every node to catch disconnected components.
	for _, id := range sortedIDs(g) {
		if color[id] == white {
			if visit(id) {
				// One cycle error is sufficient; stop early.
				break
			}
		}
	}

	return errs
}

// validateReferences checks that every child reference points to a node
// that actually exists in g.Nodes.
func validateReferences(g *DesignGraph) []ValidationError {
	var errs []ValidationError

	for _, id := range sortedIDs(g) {
		node := g.Nodes[id]
		for _, childID := range node.Children {
			if _, ok := g.Nodes[childID]; !ok {
				errs = append(errs, ValidationError{
					NodeID:   node.ID,
					Message:  fmt.Sprintf("child reference %s does not exist", childID.Short()),
					Severity: SeverityError,
				})
			}
		}
	}

	return errs
}

// validateNames checks that the NameIndex is injective (no two nodes share the
// same name) and that every entry in NameIndex points to an existing node.
func validateNames(g *DesignGraph) []ValidationError {
	var errs []ValidationError

	for name, id := range g.NameIndex {
		if _, ok := g.Nodes[id]; !ok {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("name index entry %q references non-existent node %s", name, id.Short()),
				Severity: SeverityError,
			})
		}
	}

	nameToNodes := make(map[string][]NodeID)
	for id, node := range g.Nodes {
		if node.Name != "" {
			nameToNodes[node.Name] = append(nameToNodes[node.Name], id)
		}
	}
	for name, ids := range nameToNodes {
		if len(ids) > 1 {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("duplicate name %q assigned to %d nodes", name, len(ids)),
				Severity: SeverityError,
			})
		}
	}

	return errs
}

// validateRoots checks that every root ID references an existing node and
// warns about orphan nodes (nodes unreachable from any root).
func validateRoots(g *DesignGraph) []ValidationError {
	var errs []ValidationError

	for _, rid := range g.Roots {
		if _, ok := g.Nodes[rid]; !ok {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("root reference %s does not exist", rid.Short()),
				Severity: SeverityError,
			})
		}
	}

	if len(g.Nodes) == 0 {
		return errs
	}

	reachable := make(map[NodeID]bool)
	queue := make([]NodeID, 0, len(g.Roots))
	for _, rid := range g.Roots {
		if _, ok := g.Nodes[rid]; ok && !reachable[rid] {
			reachable[rid] = true
			queue = append(queue, rid)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		node := g.Nodes[current]
		if node == nil {
			continue
		}
		for _, childID := range node.Children {
			if !reachable[childID] {
				reachable[childID] = true
				queue = append(queue, childID)
			}
		}
	}

	for _, id := range sortedIDs(g) {
		if reachable[id] {
			continue
		}
		node := g.Nodes[id]
		name := node.Name
		if name == "" {
			name = id.Short()
		}
		errs = append(errs, ValidationError{
			NodeID:   id,
			Message:  fmt.Sprintf("node %q is not reachable from any root (orphan)", name),
			Severity: SeverityWarning,
		})
	}

	return errs
}

// validateShapes checks that every node carries the payload its kind
// requires and has a sensible number of children.
func validateShapes(g *DesignGraph) []ValidationError {
	var errs []ValidationError
	add := func(n *Node, format string, args ...any) {
		errs = append(errs, ValidationError{
			NodeID:   n.ID,
			Message:  fmt.Sprintf(format, args...),
			Severity: SeverityError,
		})
	}

	for _, id := range sortedIDs(g) {
		n := g.Nodes[id]
		switch n.Kind {
		case NodeAirfoil:
			if _, ok := n.Data.(AirfoilData); !ok {
				add(n, "airfoil node has %T data", n.Data)
			}
		case NodeBlade:
			if _, ok := n.Data.(BladeData); !ok {
				add(n, "blade node has %T data", n.Data)
			}
		case NodeTransform:
			td, ok := n.Data.(TransformData)
			if !ok {
				add(n, "transform node has %T data", n.Data)
				break
			}
			if len(n.Children) != 1 {
				add(n, "transform must have exactly 1 child, has %d", len(n.Children))
			}
			if !finite(td.Rotation) {
				add(n, "rotation %g is not finite", td.Rotation)
			}
			if t := td.Translation; t != nil && !(finite(t.X()) && finite(t.Y()) && finite(t.Z())) {
				add(n, "translation %v is not finite", *t)
			}
		case NodeGroup:
			if _, ok := n.Data.(GroupData); !ok {
				add(n, "group node has %T data", n.Data)
			}
		default:
			add(n, "unknown node kind %d", int(n.Kind))
		}
		if n.Kind.IsPart() && len(n.Children) > 0 {
			add(n, "%s part cannot have children", n.Kind)
		}
	}

	return errs
}

// validateParameters runs the airfoil and blade parameter checks. Fatal
// parameter errors become validation errors; substituted defaults become
// warnings.
func validateParameters(g *DesignGraph) ([]ValidationError, []ValidationWarning) {
	var errs []ValidationError
	var warnings []ValidationWarning

	for _, n := range g.Parts() {
		var err error
		var messages []string
		switch d := n.Data.(type) {
		case AirfoilData:
			if err = d.Params.Validate(); err == nil {
				_, report := d.Params.Normalize()
				for _, w := range report.Warnings {
					messages = append(messages, w.String())
				}
			}
		case BladeData:
			if err = d.Params.Validate(); err == nil {
				_, report := d.Params.Normalize()
				for _, w := range report.Warnings {
					messages = append(messages, w.String())
				}
			}
		default:
			// Reported by validateShapes.
			continue
		}

		label := n.Name
		if label == "" {
			label = n.ID.Short()
		}
		if err != nil {
			errs = append(errs, ValidationError{
				NodeID:   n.ID,
				Message:  fmt.Sprintf("%s %q: %v", n.Kind, label, err),
				Severity: SeverityError,
			})
		}
		for _, m := range messages {
			warnings = append(warnings, ValidationWarning{
				NodeID:  n.ID,
				Message: fmt.Sprintf("%s %q: %s", n.Kind, label, m),
			})
		}
	}

	return errs, warnings
}

func sortedIDs(g *DesignGraph) []NodeID {
	ids := make([]NodeID, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
