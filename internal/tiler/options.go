package tiler

import "strings"

type SamplingStrategy string
type PrecisionMode string

const (

	// Uniform stride pick over the cell points in arena order. Cheap and stable,
	// previews will mirror the density of the underlying cloud.
	SamplingUniform SamplingStrategy = "UNIFORM"

	// Poisson disk thinning of the cell points. Previews will tend to be evenly
	// spaced regardless of local density, at some extra build cost. The pick
	// order is derived from the cell address so repeated runs stay identical.
	SamplingPoisson SamplingStrategy = "POISSON"
)

const (
	// Position rasters carry 8 bits per axis.
	PrecisionStandard PrecisionMode = "STD"

	// Additionally emit the quad quadrant raster carrying 32 bits per axis.
	PrecisionQuad PrecisionMode = "QUAD"
)

func (e SamplingStrategy) String() string {
	return string(e)
}

func ParseSamplingStrategy(value string) SamplingStrategy {
	normalizedValue := strings.Trim(strings.ToUpper(value), " ")
	if normalizedValue == "UNIFORM" {
		return SamplingUniform
	} else if normalizedValue == "POISSON" {
		return SamplingPoisson
	}
	return ""
}

func (e PrecisionMode) String() string {
	return string(e)
}

func ParsePrecisionMode(value string) PrecisionMode {
	normalizedValue := strings.Trim(strings.ToUpper(value), " ")
	if normalizedValue == "STD" {
		return PrecisionStandard
	} else if normalizedValue == "QUAD" {
		return PrecisionQuad
	}
	return ""
}

// Contains the options needed for the tiling pipeline
type TilerOptions struct {
	Input            string  // Input point cloud file/folder
	FolderProcessing bool    // Enables the processing of all supported files in folder
	Recursive        bool    // Recursive lookup of point cloud files in subfolders
	ZOffset          float64 // Z Offset to apply to points during ingestion
	Silent           bool    // Suppress progress output

	Command            string
	TilerIndexOptions  *TilerIndexOptions
	TilerVerifyOptions *TilerVerifyOptions
}

type TilerIndexOptions struct {
	Output           string           // Output LOD folder
	DensityLimit     int32            // Maximum allowed number of points per cell before subdivision
	MaxLevel         int32            // Subdivision depth cap
	ApplyGlobalShift bool             // Subtract the cloud minimum corner from all coordinates before building
	ShiftReference   string           // "x,y,z" reference point overriding the minimum corner shift
	Sampling         SamplingStrategy // Preview sampling strategy for subdivided cells
	Precision        PrecisionMode    // Raster precision mode
	ConverterPath    string           // External converter binary invoked on unsupported input formats
	NumWorkers       int              // Number of consumer goroutines, defaults to the number of CPUs
}

type TilerVerifyOptions struct {
	PrintDigests bool // Print the per file content digests while verifying
}
