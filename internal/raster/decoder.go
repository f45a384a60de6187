package raster

import (
	"image"
	"math"

	"github.com/pkg/errors"

	"github.com/ecopia-map/pcd_lod_tiler/internal/geometry"
)

// ValidMask reports which pixel slots of a raster carry a point, in row
// major order. A slot is valid when its alpha is fully opaque.
func ValidMask(img image.Image) []bool {
	bounds := img.Bounds()
	mask := make([]bool, bounds.Dx()*bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			_, _, _, alpha := img.At(x, y).RGBA()
			mask[(y-bounds.Min.Y)*bounds.Dx()+(x-bounds.Min.X)] = alpha == math.MaxUint16
		}
	}
	return mask
}

// DecodePositions reverses PositionRaster, denormalizing every valid pixel
// with the cell bounding box. Trailing transparent slots must form one
// contiguous run, anything after the first sentinel being valid again is an
// encoding violation.
func DecodePositions(img image.Image, box *geometry.BoundingBox) ([]geometry.Coordinate, error) {
	extentX, extentY, extentZ := box.Extent()

	mask := ValidMask(img)
	count := 0
	for i, valid := range mask {
		if !valid {
			break
		}
		count = i + 1
	}
	for i := count; i < len(mask); i++ {
		if mask[i] {
			return nil, errors.Errorf("valid pixel at slot %d after the sentinel run began at %d", i, count)
		}
	}
	if count == 0 {
		return nil, errors.New("raster carries no valid pixels")
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	positions := make([]geometry.Coordinate, count)
	for i := 0; i < count; i++ {
		r, g, b, _ := img.At(bounds.Min.X+i%width, bounds.Min.Y+i/width).RGBA()
		positions[i] = geometry.Coordinate{
			X: box.Xmin + float64(r>>8)/math.MaxUint8*extentX,
			Y: box.Ymin + float64(g>>8)/math.MaxUint8*extentY,
			Z: box.Zmin + float64(b>>8)/math.MaxUint8*extentZ,
		}
	}

	return positions, nil
}

// DecodeQuadPositions reverses QuadRaster, reassembling the 32 bit fixed
// point coordinates from the four quadrants of the image.
func DecodeQuadPositions(img image.Image, box *geometry.BoundingBox) ([]geometry.Coordinate, error) {
	bounds := img.Bounds()
	if bounds.Dx()%2 != 0 || bounds.Dy()%2 != 0 {
		return nil, errors.Errorf("quad raster dimensions %dx%d are not even", bounds.Dx(), bounds.Dy())
	}
	width, height := bounds.Dx()/2, bounds.Dy()/2

	extentX, extentY, extentZ := box.Extent()

	var positions []geometry.Coordinate
	for i := 0; i < width*height; i++ {
		x, y := i%width, i/width

		var qx, qy, qz uint32
		valid := true
		for part := uint(0); part < 4; part++ {
			px := bounds.Min.X + x + int(part&1)*width
			py := bounds.Min.Y + y + int(part>>1)*height
			r, g, b, alpha := img.At(px, py).RGBA()
			if alpha != math.MaxUint16 {
				valid = false
				break
			}
			qx |= uint32(r>>8) << (8 * part)
			qy |= uint32(g>>8) << (8 * part)
			qz |= uint32(b>>8) << (8 * part)
		}
		if !valid {
			break
		}

		positions = append(positions, geometry.Coordinate{
			X: box.Xmin + float64(qx)/math.MaxUint32*extentX,
			Y: box.Ymin + float64(qy)/math.MaxUint32*extentY,
			Z: box.Zmin + float64(qz)/math.MaxUint32*extentZ,
		})
	}

	if len(positions) == 0 {
		return nil, errors.New("quad raster carries no valid pixels")
	}

	return positions, nil
}
