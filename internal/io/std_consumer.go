package io

import (
	"image"
	"image/png"
	"os"
	"path"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/ecopia-map/pcd_lod_tiler/internal/data"
	"github.com/ecopia-map/pcd_lod_tiler/internal/raster"
	"github.com/ecopia-map/pcd_lod_tiler/internal/tiler"
	"github.com/ecopia-map/pcd_lod_tiler/tools"
)

const (
	colorRasterSuffix = "-color"
	quadRasterSuffix  = "-quad"
	rasterExtension   = ".png"
)

type StandardConsumer struct {
	arena     []data.Point
	collector *MetaCollector
}

func NewStandardConsumer(arena []data.Point, collector *MetaCollector) *StandardConsumer {
	return &StandardConsumer{
		arena:     arena,
		collector: collector,
	}
}

// Continually consumes WorkUnits submitted to a work channel, writing the raster pair
// of each cell. A failed cell is reported on the error channel and must not stop the
// remaining cells, the consumer only quits once the work channel is closed.
func (c *StandardConsumer) Consume(workchan chan *WorkUnit, errchan chan error, waitGroup *sync.WaitGroup) {
	for {
		// get work from channel
		work, ok := <-workchan
		if !ok {
			// channel was closed by producer, quit infinite loop
			break
		}

		if err := c.doWork(work); err != nil {
			errchan <- err
		}
	}

	// signal waitgroup finished work
	waitGroup.Done()
}

// Takes a workunit and writes the corresponding raster files of the cell
func (c *StandardConsumer) doWork(workUnit *WorkUnit) error {
	node := workUnit.Node
	address := node.GetAddress()

	encoder, err := raster.NewEncoder(c.arena, node.GetPointIndices(), node.GetBoundingBox())
	if err != nil {
		return errors.Wrapf(err, "cell %s", address.String())
	}

	levelFolder := path.Join(workUnit.BasePath, strconv.Itoa(int(address.Level)))
	if err := tools.CreateDirectoryIfDoesNotExist(levelFolder); err != nil {
		return errors.Wrapf(err, "cell %s", address.String())
	}

	cellName := address.CellName()
	if err := c.writePngFile(path.Join(levelFolder, cellName+rasterExtension), encoder.PositionRaster()); err != nil {
		return errors.Wrapf(err, "cell %s", address.String())
	}
	if err := c.writePngFile(path.Join(levelFolder, cellName+colorRasterSuffix+rasterExtension), encoder.ColorRaster()); err != nil {
		return errors.Wrapf(err, "cell %s", address.String())
	}
	if workUnit.Opts.TilerIndexOptions.Precision == tiler.PrecisionQuad {
		if err := c.writePngFile(path.Join(levelFolder, cellName+quadRasterSuffix+rasterExtension), encoder.QuadRaster()); err != nil {
			return errors.Wrapf(err, "cell %s", address.String())
		}
	}

	// the cell is on disk, index it and drop its point list
	c.collector.RecordCell(address, node.GetBoundingBox())
	node.ReleasePointIndices()

	return nil
}

// Writes the png encoding of the given image to the given file
func (c *StandardConsumer) writePngFile(filePath string, img image.Image) (err error) {
	file, err := os.Create(filePath)
	if err != nil {
		return errors.Wrapf(err, "creating %s", filePath)
	}
	defer func() {
		err = multierr.Append(err, file.Close())
	}()

	if err := png.Encode(file, img); err != nil {
		return errors.Wrapf(err, "encoding %s", filePath)
	}

	return nil
}
