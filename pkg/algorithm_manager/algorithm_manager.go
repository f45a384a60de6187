package algorithm_manager

import (
	"github.com/ecopia-map/pcd_lod_tiler/internal/converters"
	"github.com/ecopia-map/pcd_lod_tiler/internal/octree"
	"github.com/ecopia-map/pcd_lod_tiler/internal/sampling"
)

type AlgorithmManager interface {
	GetShiftAlgorithm() converters.ShiftResolver
	GetElevationCorrectionAlgorithm() converters.ElevationCorrector
	GetSamplingAlgorithm() sampling.Sampler
	GetTreeAlgorithm() octree.ITree
}
