package sampling

import (
	"math"
	"math/rand"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/ecopia-map/pcd_lod_tiler/internal/data"
	"github.com/ecopia-map/pcd_lod_tiler/internal/geometry"
	"github.com/ecopia-map/pcd_lod_tiler/internal/octree"
)

// PoissonDiskSampler thins the cell points so that no two survivors lie
// within a minimum radius of each other, yielding previews that stay evenly
// spaced regardless of local density. Candidates are visited in a
// pseudo random order seeded from the cell address, so repeated runs pick
// the same subset.
type PoissonDiskSampler struct {
	fallback Sampler
}

func NewPoissonDiskSampler() Sampler {
	return &PoissonDiskSampler{
		fallback: NewUniformSampler(),
	}
}

type gridIndex struct {
	x int32
	y int32
	z int32
}

func (s *PoissonDiskSampler) SamplePreview(arena []data.Point, indices []int32, bounds *geometry.BoundingBox, limit int32, address octree.Address) []int32 {
	if int32(len(indices)) <= limit || limit <= 0 {
		return indices
	}

	ex, ey, ez := bounds.Extent()
	maxExtent := math.Max(ex, math.Max(ey, ez))
	if maxExtent == 0 {
		// coincident points carry no spacing to preserve
		return s.fallback.SamplePreview(arena, indices, bounds, limit, address)
	}

	// radius sized so that close packed survivors approach the preview limit
	radius := maxExtent / math.Cbrt(float64(limit))
	radiusSquared := radius * radius

	// grid cell size per Bridson, one accepted point per cell at most
	cellSize := radius / math.Sqrt(3)
	grid := make(map[gridIndex][]int32)

	seed := xxhash.Sum64String(address.String())
	order := rand.New(rand.NewSource(int64(seed))).Perm(len(indices))

	sampled := make([]int32, 0, limit)
	for _, candidate := range order {
		index := indices[candidate]
		point := &arena[index]

		cell := gridIndex{
			x: int32((point.X - bounds.Xmin) / cellSize),
			y: int32((point.Y - bounds.Ymin) / cellSize),
			z: int32((point.Z - bounds.Zmin) / cellSize),
		}

		if s.hasNeighborWithin(arena, grid, cell, point, radiusSquared) {
			continue
		}

		grid[cell] = append(grid[cell], index)
		sampled = append(sampled, index)
		if int32(len(sampled)) == limit {
			break
		}
	}

	sort.Slice(sampled, func(i, j int) bool { return sampled[i] < sampled[j] })
	return sampled
}

// Scans the accepted points in the neighborhood of cell, two grid cells on
// each side cover every position closer than the radius
func (s *PoissonDiskSampler) hasNeighborWithin(arena []data.Point, grid map[gridIndex][]int32, cell gridIndex, point *data.Point, radiusSquared float64) bool {
	for dz := int32(-2); dz <= 2; dz++ {
		for dy := int32(-2); dy <= 2; dy++ {
			for dx := int32(-2); dx <= 2; dx++ {
				neighbors := grid[gridIndex{x: cell.x + dx, y: cell.y + dy, z: cell.z + dz}]
				for _, neighborIndex := range neighbors {
					neighbor := &arena[neighborIndex]
					distX := neighbor.X - point.X
					distY := neighbor.Y - point.Y
					distZ := neighbor.Z - point.Z
					if distX*distX+distY*distY+distZ*distZ < radiusSquared {
						return true
					}
				}
			}
		}
	}
	return false
}
