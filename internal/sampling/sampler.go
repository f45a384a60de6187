package sampling

import (
	"github.com/ecopia-map/pcd_lod_tiler/internal/data"
	"github.com/ecopia-map/pcd_lod_tiler/internal/geometry"
	"github.com/ecopia-map/pcd_lod_tiler/internal/octree"
)

// Sampler selects the preview subset rasterized for a subdivided cell.
// Implementations must be deterministic for a given cell and must be safe
// for concurrent use, the build subdivides sibling subtrees in parallel.
type Sampler interface {
	SamplePreview(arena []data.Point, indices []int32, bounds *geometry.BoundingBox, limit int32, address octree.Address) []int32
}

// UniformSampler keeps every stride-th point in arena order, with the stride
// chosen so that at most limit points survive
type UniformSampler struct{}

func NewUniformSampler() Sampler {
	return &UniformSampler{}
}

func (s *UniformSampler) SamplePreview(arena []data.Point, indices []int32, bounds *geometry.BoundingBox, limit int32, address octree.Address) []int32 {
	n := int32(len(indices))
	if n <= limit || limit <= 0 {
		return indices
	}

	stride := (n + limit - 1) / limit
	sampled := make([]int32, 0, n/stride+1)
	for i := int32(0); i < n; i += stride {
		sampled = append(sampled, indices[i])
	}
	return sampled
}
