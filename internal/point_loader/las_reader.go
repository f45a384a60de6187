package point_loader

import (
	"github.com/edaniels/lidario"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/ecopia-map/pcd_lod_tiler/internal/data"
)

// readLasFile parses a LAS file into the loader. X, Y and Z come from the
// scaled point record. RGB is taken from the point color data when the file's
// point format carries color, downscaled from 16 to 8 bits per channel.
func readLasFile(filePath string, loader Sink) (err error) {
	lasFile, err := lidario.NewLasFile(filePath, "r")
	if err != nil {
		return errors.Wrapf(err, "opening las file %s", filePath)
	}
	defer func() {
		err = multierr.Append(err, lasFile.Close())
	}()

	formatHasColor := lasFile.Header.PointFormatID == 2 || lasFile.Header.PointFormatID == 3

	for i := 0; i < lasFile.Header.NumberPoints; i++ {
		lasPoint, err := lasFile.LasPoint(i)
		if err != nil {
			return errors.Wrapf(err, "reading point %d of las file %s", i, filePath)
		}
		pointData := lasPoint.PointData()

		if formatHasColor && lasPoint.RgbData() != nil {
			rgb := lasPoint.RgbData()
			loader.AddPoint(data.NewPoint(
				pointData.X, pointData.Y, pointData.Z,
				uint8(rgb.Red/256), uint8(rgb.Green/256), uint8(rgb.Blue/256),
			))
		} else {
			loader.AddPoint(data.NewColorlessPoint(pointData.X, pointData.Y, pointData.Z))
		}
	}

	return nil
}
