package converters

import (
	"github.com/ecopia-map/pcd_lod_tiler/internal/geometry"
)

// GlobalShift records the offset subtracted from every ingested coordinate.
// Consumers restore original coordinates by adding the offset back.
type GlobalShift struct {
	Enabled bool
	Offset  geometry.Coordinate
}

// ShiftResolver decides the global offset for a freshly loaded cloud
// given its bounding box.
type ShiftResolver interface {
	ResolveShift(bounds *geometry.BoundingBox) *GlobalShift
}
