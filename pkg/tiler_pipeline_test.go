package pkg

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecopia-map/pcd_lod_tiler/internal/io"
	"github.com/ecopia-map/pcd_lod_tiler/internal/tiler"
	"github.com/ecopia-map/pcd_lod_tiler/pkg/algorithm_manager/std_algorithm_manager"
	"github.com/ecopia-map/pcd_lod_tiler/tools"
)

func silenceProgress(t *testing.T) {
	t.Helper()
	tools.DisableLogger()
	t.Cleanup(tools.EnableLogger)
}

// writeCloudFixture writes a colored 4x4x4 grid cloud with 2.5 spacing,
// one octant of 8 points per root octant once subdivided with density 8
func writeCloudFixture(t *testing.T, folder string, name string, origin [3]float64) string {
	t.Helper()
	var cloud strings.Builder
	for i := 0; i < 64; i++ {
		x := origin[0] + float64(i%4)*2.5
		y := origin[1] + float64((i/4)%4)*2.5
		z := origin[2] + float64(i/16)*2.5
		fmt.Fprintf(&cloud, "%f %f %f %d %d %d\n", x, y, z, 40+i, 80+i, 120+i)
	}
	filePath := filepath.Join(folder, name)
	require.NoError(t, os.WriteFile(filePath, []byte(cloud.String()), 0644))
	return filePath
}

func indexRunOptions(input string, output string, precision tiler.PrecisionMode) *tiler.TilerOptions {
	return &tiler.TilerOptions{
		Input:   input,
		Silent:  true,
		Command: tools.CommandIndex,
		TilerIndexOptions: &tiler.TilerIndexOptions{
			Output:       output,
			DensityLimit: 8,
			MaxLevel:     4,
			Sampling:     tiler.SamplingUniform,
			Precision:    precision,
			NumWorkers:   2,
		},
	}
}

func runIndex(t *testing.T, opts *tiler.TilerOptions) {
	t.Helper()
	err := NewTilerIndex(tools.NewStandardFileFinder(), std_algorithm_manager.NewAlgorithmManager(opts)).RunTiler(opts)
	require.NoError(t, err)
}

func runVerify(outputFolder string) error {
	opts := &tiler.TilerOptions{
		Input:              outputFolder,
		Silent:             true,
		Command:            tools.CommandVerify,
		TilerVerifyOptions: &tiler.TilerVerifyOptions{},
	}
	return NewTilerVerify().RunTiler(opts)
}

func TestRunTiler_IndexedFolderPassesVerification(t *testing.T) {
	silenceProgress(t)
	cloudFile := writeCloudFixture(t, t.TempDir(), "cloud.xyz", [3]float64{0, 0, 0})
	outputFolder := t.TempDir()

	runIndex(t, indexRunOptions(cloudFile, outputFolder, tiler.PrecisionStandard))

	meta, err := io.ReadMetaFile(filepath.Join(outputFolder, io.MetaFileName))
	require.NoError(t, err)
	assert.EqualValues(t, 1, meta.Lod)
	assert.Len(t, meta.Coordinates["0"], 1)
	assert.Len(t, meta.Coordinates["1"], 8)

	require.NoError(t, runVerify(outputFolder))
}

func TestRunTiler_QuadPrecisionRoundTrip(t *testing.T) {
	silenceProgress(t)
	cloudFile := writeCloudFixture(t, t.TempDir(), "cloud.xyz", [3]float64{0, 0, 0})
	outputFolder := t.TempDir()

	runIndex(t, indexRunOptions(cloudFile, outputFolder, tiler.PrecisionQuad))

	assert.FileExists(t, filepath.Join(outputFolder, "0", "0-0-0-quad.png"))
	require.NoError(t, runVerify(outputFolder))
}

func TestRunTiler_GlobalShiftRecordedInIndex(t *testing.T) {
	silenceProgress(t)
	cloudFile := writeCloudFixture(t, t.TempDir(), "cloud.xyz", [3]float64{1000, 2000, 3000})
	outputFolder := t.TempDir()

	opts := indexRunOptions(cloudFile, outputFolder, tiler.PrecisionStandard)
	opts.TilerIndexOptions.ApplyGlobalShift = true
	runIndex(t, opts)

	meta, err := io.ReadMetaFile(filepath.Join(outputFolder, io.MetaFileName))
	require.NoError(t, err)
	assert.True(t, meta.Shift.Enabled)
	assert.Equal(t, [3]float64{1000, 2000, 3000}, meta.Shift.Offset)
	assert.Equal(t, 0.0, meta.Bounds.Xmin)
	assert.Equal(t, 7.5, meta.Bounds.Xmax)

	require.NoError(t, runVerify(outputFolder))
}

func TestRunTiler_FolderInputMergesIntoOneTree(t *testing.T) {
	silenceProgress(t)
	inputFolder := t.TempDir()
	writeCloudFixture(t, inputFolder, "east.xyz", [3]float64{0, 0, 0})
	writeCloudFixture(t, inputFolder, "west.xyz", [3]float64{2000, 0, 0})
	outputFolder := t.TempDir()

	opts := indexRunOptions(inputFolder, outputFolder, tiler.PrecisionStandard)
	opts.FolderProcessing = true
	runIndex(t, opts)

	meta, err := io.ReadMetaFile(filepath.Join(outputFolder, io.MetaFileName))
	require.NoError(t, err)
	assert.Len(t, meta.Coordinates["0"], 1)
	assert.Equal(t, 0.0, meta.Bounds.Xmin)
	assert.Equal(t, 2007.5, meta.Bounds.Xmax)

	require.NoError(t, runVerify(outputFolder))
}

func TestRunTiler_NoSupportedFilesInFolder(t *testing.T) {
	silenceProgress(t)
	inputFolder := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(inputFolder, "notes.md"), []byte("no clouds here"), 0644))

	opts := indexRunOptions(inputFolder, t.TempDir(), tiler.PrecisionStandard)
	opts.FolderProcessing = true

	err := NewTilerIndex(tools.NewStandardFileFinder(), std_algorithm_manager.NewAlgorithmManager(opts)).RunTiler(opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no point cloud files")
}

func TestRunTiler_VerifyFlagsStrayRaster(t *testing.T) {
	silenceProgress(t)
	cloudFile := writeCloudFixture(t, t.TempDir(), "cloud.xyz", [3]float64{0, 0, 0})
	outputFolder := t.TempDir()
	runIndex(t, indexRunOptions(cloudFile, outputFolder, tiler.PrecisionStandard))

	content, err := os.ReadFile(filepath.Join(outputFolder, "0", "0-0-0.png"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(outputFolder, "0", "7-7-7.png"), content, 0644))

	err = runVerify(outputFolder)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no index entry")
}

func TestRunTiler_VerifyFlagsCorruptRaster(t *testing.T) {
	silenceProgress(t)
	cloudFile := writeCloudFixture(t, t.TempDir(), "cloud.xyz", [3]float64{0, 0, 0})
	outputFolder := t.TempDir()
	runIndex(t, indexRunOptions(cloudFile, outputFolder, tiler.PrecisionStandard))

	require.NoError(t, os.WriteFile(filepath.Join(outputFolder, "0", "0-0-0-color.png"), []byte("junk"), 0644))

	err := runVerify(outputFolder)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cell 0/0-0-0")
	assert.Contains(t, err.Error(), "decoding")
}

func TestRunTiler_EmptyCloudFails(t *testing.T) {
	silenceProgress(t)
	inputFolder := t.TempDir()
	cloudFile := filepath.Join(inputFolder, "empty.xyz")
	require.NoError(t, os.WriteFile(cloudFile, []byte("\n\n"), 0644))

	opts := indexRunOptions(cloudFile, t.TempDir(), tiler.PrecisionStandard)
	err := NewTilerIndex(tools.NewStandardFileFinder(), std_algorithm_manager.NewAlgorithmManager(opts)).RunTiler(opts)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}
