package shift

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/ecopia-map/pcd_lod_tiler/internal/converters"
	"github.com/ecopia-map/pcd_lod_tiler/internal/geometry"
)

// ReferenceShiftResolver shifts the cloud by a fixed operator supplied
// reference point instead of the bounding box corner, so that multiple
// clouds of the same survey share one offset.
type ReferenceShiftResolver struct {
	offset geometry.Coordinate
}

// Parses a "x,y,z" triple. Components go through the decimal grammar,
// NaN, infinities and hex float forms are rejected.
func NewReferenceShiftResolver(reference string) (converters.ShiftResolver, error) {
	parts := strings.Split(reference, ",")
	if len(parts) != 3 {
		return nil, errors.Errorf("malformed shift reference %q, expected x,y,z", reference)
	}

	var components [3]float64
	for i, part := range parts {
		value, err := decimal.NewFromString(strings.TrimSpace(part))
		if err != nil {
			return nil, errors.Wrapf(err, "malformed shift reference component %q", part)
		}
		components[i], _ = value.Float64()
	}

	return &ReferenceShiftResolver{
		offset: geometry.Coordinate{
			X: components[0],
			Y: components[1],
			Z: components[2],
		},
	}, nil
}

func (r *ReferenceShiftResolver) ResolveShift(bounds *geometry.BoundingBox) *converters.GlobalShift {
	return &converters.GlobalShift{
		Enabled: true,
		Offset:  r.offset,
	}
}
