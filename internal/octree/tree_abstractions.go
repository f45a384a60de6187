package octree

import (
	"github.com/ecopia-map/pcd_lod_tiler/internal/converters"
	"github.com/ecopia-map/pcd_lod_tiler/internal/data"
	"github.com/ecopia-map/pcd_lod_tiler/internal/geometry"
)

type ITree interface {
	Build() error
	GetRootNode() INode
	IsBuilt() bool
	Clear() bool
	// Adds a Point to the Tree
	AddPoint(point *data.Point)
	// Returns the shared backing arena of loaded points. Read only after Build
	GetPoints() []data.Point
	// Returns the shift applied to the cloud during Build
	GetAppliedShift() *converters.GlobalShift
}

type INode interface {
	GetAddress() Address
	GetBoundingBox() *geometry.BoundingBox
	GetChildren() [8]INode
	GetParent() INode
	// Indices into the arena, every owned point for leaves, the sampled
	// preview for subdivided cells
	GetPointIndices() []int32
	// Drops the index list once the cell has been rasterized
	ReleasePointIndices()
	NumberOfPoints() int32
	TotalNumberOfPoints() int64
	IsLeaf() bool
	IsRoot() bool
}
