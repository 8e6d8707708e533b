// Package graph defines the design graph types for turbomach.
// The design graph is an immutable DAG of airfoil sections, blades,
// placements and stages produced by evaluating a design script.
package graph
