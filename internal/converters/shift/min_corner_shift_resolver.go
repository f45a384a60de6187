package shift

import (
	"github.com/ecopia-map/pcd_lod_tiler/internal/converters"
	"github.com/ecopia-map/pcd_lod_tiler/internal/geometry"
)

// MinCornerShiftResolver shifts the cloud so that the bounding box minimum
// corner lands at the origin, keeping coordinate magnitudes small for
// geodetically large inputs.
type MinCornerShiftResolver struct{}

func NewMinCornerShiftResolver() converters.ShiftResolver {
	return &MinCornerShiftResolver{}
}

func (r *MinCornerShiftResolver) ResolveShift(bounds *geometry.BoundingBox) *converters.GlobalShift {
	return &converters.GlobalShift{
		Enabled: true,
		Offset: geometry.Coordinate{
			X: bounds.Xmin,
			Y: bounds.Ymin,
			Z: bounds.Zmin,
		},
	}
}
