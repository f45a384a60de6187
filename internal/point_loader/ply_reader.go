package point_loader

import (
	"math"
	"os"

	"github.com/EliCDavis/polyform/formats/ply"
	"github.com/EliCDavis/polyform/modeling"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/ecopia-map/pcd_lod_tiler/internal/data"
)

// readPlyFile parses a point topology PLY mesh into the loader, taking the
// position attribute and, when present, the color attribute scaled from the
// unit range to 8 bits per channel.
func readPlyFile(filePath string, loader Sink) (err error) {
	file, err := os.Open(filePath)
	if err != nil {
		return errors.Wrapf(err, "opening ply file %s", filePath)
	}
	defer func() {
		err = multierr.Append(err, file.Close())
	}()

	mesh, err := ply.ReadMesh(file)
	if err != nil {
		return errors.Wrapf(err, "parsing ply file %s", filePath)
	}
	if mesh.Topology() != modeling.PointTopology {
		return errors.Errorf("ply file %s carries topology %d, expected a point cloud", filePath, mesh.Topology())
	}

	view := mesh.View()
	positions := view.Float3Data[modeling.PositionAttribute]
	colors, hasColor := view.Float3Data[modeling.ColorAttribute]
	hasColor = hasColor && len(colors) == len(positions)

	for i, position := range positions {
		if hasColor {
			color := colors[i]
			loader.AddPoint(data.NewPoint(
				position.X(), position.Y(), position.Z(),
				colorChannelToByte(color.X()), colorChannelToByte(color.Y()), colorChannelToByte(color.Z()),
			))
		} else {
			loader.AddPoint(data.NewColorlessPoint(position.X(), position.Y(), position.Z()))
		}
	}

	return nil
}

func colorChannelToByte(value float64) uint8 {
	scaled := math.Round(value * 255)
	if scaled < 0 {
		return 0
	}
	if scaled > 255 {
		return 255
	}
	return uint8(scaled)
}
