package geometry

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// BoundingBox represents an axis aligned box storing the extremes
// on the three axes together with the precomputed midpoints
type BoundingBox struct {
	Xmin float64
	Xmax float64
	Ymin float64
	Ymax float64
	Zmin float64
	Zmax float64
	Xmid float64
	Ymid float64
	Zmid float64
}

// Instantiates a new BoundingBox from the given extremes
func NewBoundingBox(xmin, xmax, ymin, ymax, zmin, zmax float64) *BoundingBox {
	return &BoundingBox{
		Xmin: xmin,
		Xmax: xmax,
		Ymin: ymin,
		Ymax: ymax,
		Zmin: zmin,
		Zmax: zmax,
		Xmid: (xmin + xmax) / 2,
		Ymid: (ymin + ymax) / 2,
		Zmid: (zmin + zmax) / 2,
	}
}

// Returns the bounding box of the given octant of the parent bounding box.
// Octant bit 1 selects the upper X half, bit 2 the upper Y half and
// bit 4 the upper Z half.
func NewBoundingBoxFromParent(parent *BoundingBox, octant uint8) *BoundingBox {
	xmin, xmax := parent.Xmin, parent.Xmid
	if octant&1 != 0 {
		xmin, xmax = parent.Xmid, parent.Xmax
	}
	ymin, ymax := parent.Ymin, parent.Ymid
	if octant&2 != 0 {
		ymin, ymax = parent.Ymid, parent.Ymax
	}
	zmin, zmax := parent.Zmin, parent.Zmid
	if octant&4 != 0 {
		zmin, zmax = parent.Zmid, parent.Zmax
	}
	return NewBoundingBox(xmin, xmax, ymin, ymax, zmin, zmax)
}

// Extent returns the size of the box along each axis
func (b *BoundingBox) Extent() (x, y, z float64) {
	return b.Xmax - b.Xmin, b.Ymax - b.Ymin, b.Zmax - b.Zmin
}

// Translated returns a copy of the box moved by the given deltas
func (b *BoundingBox) Translated(dx, dy, dz float64) *BoundingBox {
	return NewBoundingBox(b.Xmin+dx, b.Xmax+dx, b.Ymin+dy, b.Ymax+dy, b.Zmin+dz, b.Zmax+dz)
}

// Contains reports whether other lies entirely inside the box
func (b *BoundingBox) Contains(other *BoundingBox) bool {
	return other.Xmin >= b.Xmin && other.Xmax <= b.Xmax &&
		other.Ymin >= b.Ymin && other.Ymax <= b.Ymax &&
		other.Zmin >= b.Zmin && other.Zmax <= b.Zmax
}

// ContainsCoordinate reports whether the given position lies inside the box
// expanded by eps on every side. The expansion absorbs quantization error
// when checking decoded positions.
func (b *BoundingBox) ContainsCoordinate(x, y, z, eps float64) bool {
	return x >= b.Xmin-eps && x <= b.Xmax+eps &&
		y >= b.Ymin-eps && y <= b.Ymax+eps &&
		z >= b.Zmin-eps && z <= b.Zmax+eps
}

type boundingBoxJSON struct {
	Min [3]float64 `json:"min"`
	Max [3]float64 `json:"max"`
}

// MarshalJSON encodes the box in the index document shape, the min and max
// corners serialized as three element arrays
func (b *BoundingBox) MarshalJSON() ([]byte, error) {
	return json.Marshal(boundingBoxJSON{
		Min: [3]float64{b.Xmin, b.Ymin, b.Zmin},
		Max: [3]float64{b.Xmax, b.Ymax, b.Zmax},
	})
}

func (b *BoundingBox) UnmarshalJSON(data []byte) error {
	var repr boundingBoxJSON
	if err := json.Unmarshal(data, &repr); err != nil {
		return err
	}
	for i := 0; i < 3; i++ {
		if repr.Min[i] > repr.Max[i] {
			return errors.Errorf("invalid bounding box, min %v exceeds max %v", repr.Min, repr.Max)
		}
	}
	*b = *NewBoundingBox(repr.Min[0], repr.Max[0], repr.Min[1], repr.Max[1], repr.Min[2], repr.Max[2])
	return nil
}
