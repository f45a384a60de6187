package octree

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/ecopia-map/pcd_lod_tiler/internal/geometry"
)

// Address identifies an octree cell, the subdivision depth plus the octant
// coordinates within that depth, each in [0, 2^level). The root cell is
// {0, 0, 0, 0}.
type Address struct {
	Level int32
	X     int32
	Y     int32
	Z     int32
}

// String renders the address for logs and error reports
func (a Address) String() string {
	return fmt.Sprintf("%d/%d-%d-%d", a.Level, a.X, a.Y, a.Z)
}

// CellName renders the octant coordinates joined by dashes, the form used
// for raster file names and index keys within a level
func (a Address) CellName() string {
	return fmt.Sprintf("%d-%d-%d", a.X, a.Y, a.Z)
}

// Child returns the address of the given octant one level down.
// Octant bit 1 selects the upper X half, bit 2 the upper Y half and
// bit 4 the upper Z half.
func (a Address) Child(octant uint8) Address {
	return Address{
		Level: a.Level + 1,
		X:     a.X*2 + int32(octant&1),
		Y:     a.Y*2 + int32(octant>>1&1),
		Z:     a.Z*2 + int32(octant>>2&1),
	}
}

// BoundingBoxIn derives the cell bounding box by bisecting the given root
// box level times, using only the address geometry
func (a Address) BoundingBoxIn(root *geometry.BoundingBox) *geometry.BoundingBox {
	box := root
	for i := a.Level - 1; i >= 0; i-- {
		octant := uint8(a.X>>i&1) | uint8(a.Y>>i&1)<<1 | uint8(a.Z>>i&1)<<2
		box = geometry.NewBoundingBoxFromParent(box, octant)
	}
	return box
}

// ParseAddress rebuilds an Address from a level and a "x-y-z" cell name,
// validating that the coordinates are representable at that level
func ParseAddress(level int32, cellName string) (Address, error) {
	parts := strings.Split(cellName, "-")
	if len(parts) != 3 {
		return Address{}, errors.Errorf("malformed cell name %q, expected x-y-z", cellName)
	}

	var coords [3]int32
	for i, part := range parts {
		value, err := strconv.ParseInt(part, 10, 32)
		if err != nil {
			return Address{}, errors.Wrapf(err, "malformed cell name %q", cellName)
		}
		if value < 0 || (level < 31 && value >= int64(1)<<uint(level)) {
			return Address{}, errors.Errorf("cell name %q out of range for level %d", cellName, level)
		}
		coords[i] = int32(value)
	}

	return Address{Level: level, X: coords[0], Y: coords[1], Z: coords[2]}, nil
}
