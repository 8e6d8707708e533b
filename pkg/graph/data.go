package graph

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/chazu/turbomach/pkg/blade"
	"github.com/chazu/turbomach/pkg/naca"
)

// AirfoilData is a single NACA 4-digit section in the xy plane.
// Created by the (airfoil ...) form.
type AirfoilData struct {
	Params naca.Params `json:"params"`
}

func (AirfoilData) nodeData() {}

// BladeData is a lofted blade. Created by the (blade ...) form.
type BladeData struct {
	Params blade.Params `json:"params"`
}

func (BladeData) nodeData() {}

// TransformData places its child. Created by the (place ...) form.
type TransformData struct {
	Translation *mgl64.Vec3 `json:"translation,omitempty"`
	Rotation    float64     `json:"rotation,omitempty"` // degrees about the span (z) axis
}

func (TransformData) nodeData() {}

// GroupData is a stage or other logical grouping.
// Created by the (stage ...) form.
type GroupData struct {
	Description string `json:"description,omitempty"`
}

func (GroupData) nodeData() {}
