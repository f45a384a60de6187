package raster

import (
	"image"
	"image/color"
	"math"

	"github.com/pkg/errors"

	"github.com/ecopia-map/pcd_lod_tiler/internal/data"
	"github.com/ecopia-map/pcd_lod_tiler/internal/geometry"
)

// MaxRasterDimension is the largest side length an emitted raster may have
const MaxRasterDimension = 16384

// Channel value written to the color raster for points carrying no color
const defaultColorChannel = 128

// ErrRasterOverflow reports a cell whose point count cannot be packed within
// the maximum raster dimensions
var ErrRasterOverflow = errors.New("cell point count exceeds the maximum raster size")

// Encoder quantizes the points of one octree cell into raster images.
// Positions are normalized into the unit cube with the cell bounding box
// before quantization, so the address geometry alone reverses the encoding.
type Encoder struct {
	arena      []data.Point
	indices    []int32
	normalized []geometry.Coordinate
	width      int
	height     int
}

// NewEncoder prepares an encoder for the given cell points. The box must be
// the cell's own bounding box. Axes with zero extent normalize to 0 so that
// degenerate cells still encode without dividing by zero.
func NewEncoder(arena []data.Point, indices []int32, box *geometry.BoundingBox) (*Encoder, error) {
	if len(indices) == 0 {
		return nil, errors.New("cannot rasterize a cell with no points")
	}

	width, height := DimensionsFor(len(indices))
	if width > MaxRasterDimension {
		return nil, errors.Wrapf(ErrRasterOverflow, "%d points need a %dx%d raster", len(indices), width, height)
	}

	extentX, extentY, extentZ := box.Extent()
	if extentX == 0 {
		extentX = 1.0
	}
	if extentY == 0 {
		extentY = 1.0
	}
	if extentZ == 0 {
		extentZ = 1.0
	}

	normalized := make([]geometry.Coordinate, len(indices))
	for i, index := range indices {
		point := &arena[index]
		normalized[i] = geometry.Coordinate{
			X: (point.X - box.Xmin) / extentX,
			Y: (point.Y - box.Ymin) / extentY,
			Z: (point.Z - box.Zmin) / extentZ,
		}
	}

	return &Encoder{
		arena:      arena,
		indices:    indices,
		normalized: normalized,
		width:      width,
		height:     height,
	}, nil
}

// Dimensions returns the raster width and height, the smallest near square
// rectangle holding one pixel per point
func (e *Encoder) Dimensions() (width, height int) {
	return e.width, e.height
}

// PositionRaster encodes the normalized positions, one point per pixel in
// row major order. The RGB channels carry the 8 bit quantization of x, y
// and z, valid pixels carry alpha 255 and unused trailing slots stay fully
// transparent so a decoder can tell them from a valid zero coordinate.
func (e *Encoder) PositionRaster() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, e.width, e.height))
	for i, norm := range e.normalized {
		img.SetNRGBA(i%e.width, i/e.width, color.NRGBA{
			R: quantize8(norm.X),
			G: quantize8(norm.Y),
			B: quantize8(norm.Z),
			A: math.MaxUint8,
		})
	}
	return img
}

// ColorRaster encodes the point colors index aligned with the position
// raster. Points without color get a fixed mid gray.
func (e *Encoder) ColorRaster() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, e.width, e.height))
	for i, index := range e.indices {
		point := &e.arena[index]
		r, g, b := uint8(defaultColorChannel), uint8(defaultColorChannel), uint8(defaultColorChannel)
		if point.HasColor {
			r, g, b = point.R, point.G, point.B
		}
		img.SetNRGBA(i%e.width, i/e.width, color.NRGBA{R: r, G: g, B: b, A: math.MaxUint8})
	}
	return img
}

// QuadRaster encodes the normalized positions at 32 bit fixed point
// precision. The image is twice the base raster in both dimensions and its
// four quadrants carry one byte of the coordinate each, the least
// significant byte at quadrant (0,0), then (1,0), (0,1) and (1,1).
func (e *Encoder) QuadRaster() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 2*e.width, 2*e.height))
	for i, norm := range e.normalized {
		x, y := i%e.width, i/e.width
		qx := quantize32(norm.X)
		qy := quantize32(norm.Y)
		qz := quantize32(norm.Z)

		for part := uint(0); part < 4; part++ {
			px := x + int(part&1)*e.width
			py := y + int(part>>1)*e.height
			img.SetNRGBA(px, py, color.NRGBA{
				R: uint8(qx >> (8 * part)),
				G: uint8(qy >> (8 * part)),
				B: uint8(qz >> (8 * part)),
				A: math.MaxUint8,
			})
		}
	}
	return img
}

// DimensionsFor picks the smallest near square rectangle with at least
// count pixels, width = ceil(sqrt(count)) and height = ceil(count / width)
func DimensionsFor(count int) (width, height int) {
	width = int(math.Ceil(math.Sqrt(float64(count))))
	if width == 0 {
		width = 1
	}
	height = (count + width - 1) / width
	return width, height
}

func quantize8(norm float64) uint8 {
	scaled := math.Round(norm * math.MaxUint8)
	if scaled <= 0 {
		return 0
	}
	if scaled >= math.MaxUint8 {
		return math.MaxUint8
	}
	return uint8(scaled)
}

func quantize32(norm float64) uint32 {
	if norm <= 0 {
		return 0
	}
	if norm >= 1 {
		return math.MaxUint32
	}
	return uint32(math.Floor(norm * float64(math.MaxUint32)))
}
