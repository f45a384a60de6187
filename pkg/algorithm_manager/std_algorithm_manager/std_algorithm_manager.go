package std_algorithm_manager

import (
	"github.com/golang/glog"

	"github.com/ecopia-map/pcd_lod_tiler/internal/converters"
	"github.com/ecopia-map/pcd_lod_tiler/internal/converters/elevation/offset_elevation_corrector"
	"github.com/ecopia-map/pcd_lod_tiler/internal/converters/shift"
	"github.com/ecopia-map/pcd_lod_tiler/internal/octree"
	"github.com/ecopia-map/pcd_lod_tiler/internal/octree/density_tree"
	"github.com/ecopia-map/pcd_lod_tiler/internal/sampling"
	"github.com/ecopia-map/pcd_lod_tiler/internal/tiler"
	"github.com/ecopia-map/pcd_lod_tiler/pkg/algorithm_manager"
)

type StandardAlgorithmManager struct {
	options            *tiler.TilerOptions
	shiftResolver      converters.ShiftResolver
	elevationCorrector converters.ElevationCorrector
	sampler            sampling.Sampler
}

// NewAlgorithmManager resolves the algorithms requested by the index options.
// A malformed shift reference is a configuration error and aborts the run.
func NewAlgorithmManager(opts *tiler.TilerOptions) algorithm_manager.AlgorithmManager {
	return &StandardAlgorithmManager{
		options:            opts,
		shiftResolver:      shiftResolverFromOptions(opts.TilerIndexOptions),
		elevationCorrector: offset_elevation_corrector.NewOffsetElevationCorrector(opts.ZOffset),
		sampler:            samplerFromOptions(opts.TilerIndexOptions),
	}
}

func (algorithmManager *StandardAlgorithmManager) GetShiftAlgorithm() converters.ShiftResolver {
	return algorithmManager.shiftResolver
}

func (algorithmManager *StandardAlgorithmManager) GetElevationCorrectionAlgorithm() converters.ElevationCorrector {
	return algorithmManager.elevationCorrector
}

func (algorithmManager *StandardAlgorithmManager) GetSamplingAlgorithm() sampling.Sampler {
	return algorithmManager.sampler
}

func (algorithmManager *StandardAlgorithmManager) GetTreeAlgorithm() octree.ITree {
	return density_tree.NewDensityTree(
		algorithmManager.shiftResolver,
		algorithmManager.elevationCorrector,
		algorithmManager.sampler,
		algorithmManager.options.TilerIndexOptions.DensityLimit,
		algorithmManager.options.TilerIndexOptions.MaxLevel,
	)
}

func shiftResolverFromOptions(indexOptions *tiler.TilerIndexOptions) converters.ShiftResolver {
	if indexOptions.ShiftReference != "" {
		resolver, err := shift.NewReferenceShiftResolver(indexOptions.ShiftReference)
		if err != nil {
			glog.Fatal(err)
		}
		return resolver
	}
	if indexOptions.ApplyGlobalShift {
		return shift.NewMinCornerShiftResolver()
	}
	return shift.NewDisabledShiftResolver()
}

func samplerFromOptions(indexOptions *tiler.TilerIndexOptions) sampling.Sampler {
	if indexOptions.Sampling == tiler.SamplingPoisson {
		return sampling.NewPoissonDiskSampler()
	}
	return sampling.NewUniformSampler()
}
