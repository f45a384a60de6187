package shift

import (
	"github.com/ecopia-map/pcd_lod_tiler/internal/converters"
	"github.com/ecopia-map/pcd_lod_tiler/internal/geometry"
)

// DisabledShiftResolver leaves coordinates untouched.
type DisabledShiftResolver struct{}

func NewDisabledShiftResolver() converters.ShiftResolver {
	return &DisabledShiftResolver{}
}

func (r *DisabledShiftResolver) ResolveShift(bounds *geometry.BoundingBox) *converters.GlobalShift {
	return &converters.GlobalShift{}
}
