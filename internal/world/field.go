// Package world provides the spatial resource field and its stochastic generators.
package world

import "math"

// Cell is a discrete grid coordinate.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Distance returns the Euclidean distance between two cells.
func Distance(a, b Cell) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// Field is a dense square grid of non-negative resource densities.
// A nil Field reads as zero density everywhere.
type Field struct {
	size int
	data []float64
}

// NewField creates a zeroed field of size×size cells.
func NewField(size int) *Field {
	return &Field{
		size: size,
		data: make([]float64, size*size),
	}
}

// Size returns the grid edge length.
func (f *Field) Size() int {
	if f == nil {
		return 0
	}
	return f.size
}

// InBounds reports whether c lies on the grid.
func (f *Field) InBounds(c Cell) bool {
	return f != nil && c.X >= 0 && c.X < f.size && c.Y >= 0 && c.Y < f.size
}

// Density returns the resource density at c, or 0 for out-of-bounds cells
// and absent fields.
func (f *Field) Density(c Cell) float64 {
	if !f.InBounds(c) {
		return 0
	}
	return f.data[c.X*f.size+c.Y]
}

// Set stores a density value at c. Out-of-bounds writes are dropped.
func (f *Field) Set(c Cell, v float64) {
	if !f.InBounds(c) {
		return
	}
	f.data[c.X*f.size+c.Y] = v
}

// Fill sets every cell to v.
func (f *Field) Fill(v float64) {
	for i := range f.data {
		f.data[i] = v
	}
}

// Total returns the sum of all cell densities.
func (f *Field) Total() float64 {
	if f == nil {
		return 0
	}
	total := 0.0
	for _, v := range f.data {
		total += v
	}
	return total
}
