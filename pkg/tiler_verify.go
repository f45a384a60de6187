package pkg

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/ecopia-map/pcd_lod_tiler/internal/geometry"
	"github.com/ecopia-map/pcd_lod_tiler/internal/io"
	"github.com/ecopia-map/pcd_lod_tiler/internal/octree"
	"github.com/ecopia-map/pcd_lod_tiler/internal/raster"
	"github.com/ecopia-map/pcd_lod_tiler/internal/tiler"
	"github.com/ecopia-map/pcd_lod_tiler/tools"
)

type TilerVerify struct {
	// raster files named by the index document, tracked so files on disk
	// without an index entry can be flagged
	expectedFiles map[string]bool
	runDigest     *xxhash.Digest
	printDigests  bool
}

func NewTilerVerify() tiler.ITiler {
	return &TilerVerify{
		expectedFiles: make(map[string]bool),
		runDigest:     xxhash.New(),
	}
}

// Verifies a LOD folder produced by the index command against its index
// document. Every violated check lands in the combined report and the
// remaining cells are still verified, the command exits non zero when the
// report is non empty.
func (tilerVerify *TilerVerify) RunTiler(opts *tiler.TilerOptions) error {
	inputFolder := opts.Input
	tilerVerify.printDigests = opts.TilerVerifyOptions.PrintDigests

	tools.LogOutput("> reading index document...", inputFolder)
	meta, err := io.ReadMetaFile(path.Join(inputFolder, io.MetaFileName))
	if err != nil {
		return err
	}

	tools.LogOutput("> verifying cells...")
	report := tilerVerify.verifyCells(inputFolder, meta)
	report = multierr.Append(report, tilerVerify.verifyNoStrayRasters(inputFolder))

	if tilerVerify.printDigests {
		fmt.Printf("%016x  combined\n", tilerVerify.runDigest.Sum64())
	}

	if report != nil {
		return errors.Wrapf(report, "%d findings in %s", len(multierr.Errors(report)), inputFolder)
	}

	tools.LogOutput("> verify passed", inputFolder)
	return nil
}

func (tilerVerify *TilerVerify) verifyCells(inputFolder string, meta *io.LodMeta) error {
	var report error

	type indexedLevel struct {
		level int
		key   string
	}
	levels := make([]indexedLevel, 0, len(meta.Coordinates))
	for levelKey := range meta.Coordinates {
		level, err := strconv.Atoi(levelKey)
		if err != nil || level < 0 {
			report = multierr.Append(report, errors.Errorf("malformed level key %q in the index", levelKey))
			continue
		}
		levels = append(levels, indexedLevel{level: level, key: levelKey})
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i].level < levels[j].level })

	for _, entry := range levels {
		cells := meta.Coordinates[entry.key]
		cellNames := make([]string, 0, len(cells))
		for cellName := range cells {
			cellNames = append(cellNames, cellName)
		}
		sort.Strings(cellNames)

		for _, cellName := range cellNames {
			address, err := octree.ParseAddress(int32(entry.level), cellName)
			if err != nil {
				report = multierr.Append(report, err)
				continue
			}

			cellBox := cells[cellName]
			report = multierr.Append(report, tilerVerify.verifyCellGeometry(meta, address, cellBox))
			if cellBox != nil {
				report = multierr.Append(report, tilerVerify.verifyCellRasters(inputFolder, address, cellBox))
			}
		}

		glog.Infoln("verified level", entry.level, ", cells:", len(cellNames))
	}

	return report
}

// Checks that the cell box is the octant bisected out of the dataset bounds
// by its address and that every non root cell has its parent in the index
func (tilerVerify *TilerVerify) verifyCellGeometry(meta *io.LodMeta, address octree.Address, cellBox *geometry.BoundingBox) error {
	if cellBox == nil {
		return errors.Errorf("cell %s has no bounding box in the index", address.String())
	}

	if address.Level > 0 {
		parent := octree.Address{Level: address.Level - 1, X: address.X / 2, Y: address.Y / 2, Z: address.Z / 2}
		if meta.Coordinates[strconv.Itoa(int(parent.Level))][parent.CellName()] == nil {
			return errors.Errorf("cell %s has no parent entry %s in the index", address.String(), parent.String())
		}
	}

	if !boxesAlmostEqual(address.BoundingBoxIn(meta.Bounds), cellBox) {
		return errors.Errorf("cell %s box does not bisect out of the dataset bounds", address.String())
	}

	return nil
}

func boxesAlmostEqual(a *geometry.BoundingBox, b *geometry.BoundingBox) bool {
	return tools.IsFloatEqual(a.Xmin, b.Xmin) && tools.IsFloatEqual(a.Xmax, b.Xmax) &&
		tools.IsFloatEqual(a.Ymin, b.Ymin) && tools.IsFloatEqual(a.Ymax, b.Ymax) &&
		tools.IsFloatEqual(a.Zmin, b.Zmin) && tools.IsFloatEqual(a.Zmax, b.Zmax)
}

// Decodes the raster pair of one cell and checks the codec invariants, the
// near square dimension rule, matching valid pixel sets across the pair and
// decoded positions lying inside the cell box within quantization tolerance
func (tilerVerify *TilerVerify) verifyCellRasters(inputFolder string, address octree.Address, box *geometry.BoundingBox) error {
	levelFolder := path.Join(inputFolder, strconv.Itoa(int(address.Level)))
	positionImg, err := tilerVerify.loadRasterFile(path.Join(levelFolder, address.CellName()+".png"))
	if err != nil {
		return errors.Wrapf(err, "cell %s", address.String())
	}
	colorImg, err := tilerVerify.loadRasterFile(path.Join(levelFolder, address.CellName()+"-color.png"))
	if err != nil {
		return errors.Wrapf(err, "cell %s", address.String())
	}

	var findings error

	positions, err := raster.DecodePositions(positionImg, box)
	if err != nil {
		findings = multierr.Append(findings, err)
	} else {
		expectedWidth, expectedHeight := raster.DimensionsFor(len(positions))
		bounds := positionImg.Bounds()
		if bounds.Dx() != expectedWidth || bounds.Dy() != expectedHeight {
			findings = multierr.Append(findings, errors.Errorf(
				"position raster is %dx%d but %d points pack into %dx%d",
				bounds.Dx(), bounds.Dy(), len(positions), expectedWidth, expectedHeight))
		}

		eps := quantizationTolerance(box)
		for i, position := range positions {
			if !box.ContainsCoordinate(position.X, position.Y, position.Z, eps) {
				findings = multierr.Append(findings, errors.Errorf(
					"decoded position %d (%f, %f, %f) lies outside the cell box", i, position.X, position.Y, position.Z))
				break
			}
		}
	}

	if !masksEqual(raster.ValidMask(positionImg), raster.ValidMask(colorImg)) {
		findings = multierr.Append(findings, errors.New("position and color rasters disagree on their valid pixels"))
	}

	positionBounds := positionImg.Bounds()
	findings = multierr.Append(findings, tilerVerify.verifyQuadRaster(levelFolder, address, box, positionBounds.Dx()*positionBounds.Dy()))

	if findings != nil {
		return errors.Wrapf(findings, "cell %s", address.String())
	}
	return nil
}

// The quad raster is optional, emitted only by quad precision runs. When the
// file exists it must decode against the cell box and cover the same points
// as the position raster.
func (tilerVerify *TilerVerify) verifyQuadRaster(levelFolder string, address octree.Address, box *geometry.BoundingBox, positionSlots int) error {
	quadPath := path.Join(levelFolder, address.CellName()+"-quad.png")
	if _, err := os.Stat(quadPath); err != nil {
		return nil
	}

	quadImg, err := tilerVerify.loadRasterFile(quadPath)
	if err != nil {
		return err
	}

	quadBounds := quadImg.Bounds()
	if quadBounds.Dx()*quadBounds.Dy() != 4*positionSlots {
		return errors.Errorf("quad raster is %dx%d, expected four quadrants over %d slots", quadBounds.Dx(), quadBounds.Dy(), positionSlots)
	}

	quadPositions, err := raster.DecodeQuadPositions(quadImg, box)
	if err != nil {
		return err
	}

	eps := quantizationTolerance(box)
	for i, position := range quadPositions {
		if !box.ContainsCoordinate(position.X, position.Y, position.Z, eps) {
			return errors.Errorf("decoded quad position %d (%f, %f, %f) lies outside the cell box", i, position.X, position.Y, position.Z)
		}
	}

	return nil
}

// Reads one raster file, folds its content digest into the run digest and
// decodes the png payload
func (tilerVerify *TilerVerify) loadRasterFile(filePath string) (image.Image, error) {
	tilerVerify.expectedFiles[filepath.Clean(filePath)] = true

	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	digest := xxhash.Sum64(content)
	if tilerVerify.printDigests {
		fmt.Printf("%016x  %s\n", digest, filePath)
	}
	var digestValue [8]byte
	binary.BigEndian.PutUint64(digestValue[:], digest)
	tilerVerify.runDigest.Write(digestValue[:])

	img, err := png.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", filePath)
	}

	return img, nil
}

// Flags raster files found under the level folders that the index document
// never mentioned. The index is written after every raster, the two sets
// must match exactly.
func (tilerVerify *TilerVerify) verifyNoStrayRasters(inputFolder string) error {
	entries, err := os.ReadDir(inputFolder)
	if err != nil {
		return errors.Wrapf(err, "listing %s", inputFolder)
	}

	var report error
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := strconv.Atoi(entry.Name()); err != nil {
			continue
		}

		levelFolder := path.Join(inputFolder, entry.Name())
		rasterFiles, err := os.ReadDir(levelFolder)
		if err != nil {
			report = multierr.Append(report, errors.Wrapf(err, "listing %s", levelFolder))
			continue
		}
		for _, rasterFile := range rasterFiles {
			if rasterFile.IsDir() || !strings.HasSuffix(rasterFile.Name(), ".png") {
				continue
			}
			rasterPath := filepath.Clean(path.Join(levelFolder, rasterFile.Name()))
			if !tilerVerify.expectedFiles[rasterPath] {
				report = multierr.Append(report, errors.Errorf("raster %s has no index entry", rasterPath))
			}
		}
	}

	return report
}

// quantizationTolerance is the largest absolute error the 8 bit position
// encoding may introduce on any axis of the given box
func quantizationTolerance(box *geometry.BoundingBox) float64 {
	extentX, extentY, extentZ := box.Extent()
	return math.Max(extentX, math.Max(extentY, extentZ)) / 255
}

func masksEqual(a, b []bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
