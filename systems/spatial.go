package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"
)

// Neighbor holds a nearby entity with precomputed planar distance.
type Neighbor struct {
	E      ecs.Entity
	DX, DZ float64 // Delta from query origin on the X-Z plane
	DistSq float64
}

type gridEntry struct {
	e   ecs.Entity
	pos r3.Vec
}

// SpatialGrid is a bounded cell grid over the arena floor used as a contact broadphase.
type SpatialGrid struct {
	cellSize float64
	cols     int
	rows     int
	minX     float64
	minZ     float64
	cells    [][]gridEntry
}

// NewSpatialGrid creates a grid covering a square of half-size halfExtent around center.
func NewSpatialGrid(center r3.Vec, halfExtent, cellSize float64) *SpatialGrid {
	n := int(math.Ceil(2*halfExtent/cellSize)) + 1
	cells := make([][]gridEntry, n*n)
	for i := range cells {
		cells[i] = make([]gridEntry, 0, 4)
	}
	return &SpatialGrid{
		cellSize: cellSize,
		cols:     n,
		rows:     n,
		minX:     center.X - halfExtent,
		minZ:     center.Z - halfExtent,
		cells:    cells,
	}
}

// Clear removes all entities from the grid.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert adds an entity at the given position. Positions outside the grid
// are stored in the nearest edge cell.
func (g *SpatialGrid) Insert(e ecs.Entity, pos r3.Vec) {
	col, row := g.cell(pos)
	idx := row*g.cols + col
	g.cells[idx] = append(g.cells[idx], gridEntry{e: e, pos: pos})
}

// QueryRadiusInto appends entities within radius of pos to dst.
func (g *SpatialGrid) QueryRadiusInto(dst []Neighbor, pos r3.Vec, radius float64, exclude ecs.Entity) []Neighbor {
	cellRadius := int(radius/g.cellSize) + 1
	centerCol, centerRow := g.cell(pos)
	radiusSq := radius * radius

	for dc := -cellRadius; dc <= cellRadius; dc++ {
		col := centerCol + dc
		if col < 0 || col >= g.cols {
			continue
		}
		for dr := -cellRadius; dr <= cellRadius; dr++ {
			row := centerRow + dr
			if row < 0 || row >= g.rows {
				continue
			}
			for _, entry := range g.cells[row*g.cols+col] {
				if entry.e == exclude {
					continue
				}
				dx := entry.pos.X - pos.X
				dz := entry.pos.Z - pos.Z
				distSq := dx*dx + dz*dz
				if distSq <= radiusSq {
					dst = append(dst, Neighbor{E: entry.e, DX: dx, DZ: dz, DistSq: distSq})
				}
			}
		}
	}
	return dst
}

// cell returns the clamped grid cell for a position.
func (g *SpatialGrid) cell(pos r3.Vec) (col, row int) {
	col = int(math.Floor((pos.X - g.minX) / g.cellSize))
	row = int(math.Floor((pos.Z - g.minZ) / g.cellSize))

	if col < 0 {
		col = 0
	} else if col >= g.cols {
		col = g.cols - 1
	}
	if row < 0 {
		row = 0
	} else if row >= g.rows {
		row = g.rows - 1
	}
	return col, row
}
