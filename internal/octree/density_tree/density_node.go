package density_tree

import (
	"github.com/ecopia-map/pcd_lod_tiler/internal/data"
	"github.com/ecopia-map/pcd_lod_tiler/internal/geometry"
	"github.com/ecopia-map/pcd_lod_tiler/internal/octree"
)

// Models a cell of the octree, either a leaf holding every point that falls
// inside its bounding box or a subdivided cell holding a bounded preview of
// them. Points are referenced as indices into the arena owned by the tree,
// the node never copies point data.
type DensityNode struct {
	address             octree.Address
	boundingBox         *geometry.BoundingBox
	parent              *DensityNode
	children            [8]*DensityNode
	points              []int32
	numberOfPoints      int32
	totalNumberOfPoints int64
	leaf                bool
}

// Instantiates a new DensityNode
func NewDensityNode(address octree.Address, boundingBox *geometry.BoundingBox, parent *DensityNode) *DensityNode {
	node := DensityNode{
		address:     address,
		boundingBox: boundingBox,
		parent:      parent,
		leaf:        true,
	}

	return &node
}

func (node *DensityNode) GetAddress() octree.Address {
	return node.address
}

func (node *DensityNode) GetBoundingBox() *geometry.BoundingBox {
	return node.boundingBox
}

func (node *DensityNode) GetChildren() [8]octree.INode {
	var children [8]octree.INode
	for i, child := range node.children {
		if child != nil {
			children[i] = child
		}
	}
	return children
}

func (node *DensityNode) GetParent() octree.INode {
	if node.parent == nil {
		return nil
	}
	return node.parent
}

func (node *DensityNode) GetPointIndices() []int32 {
	return node.points
}

func (node *DensityNode) ReleasePointIndices() {
	node.points = nil
}

func (node *DensityNode) NumberOfPoints() int32 {
	return node.numberOfPoints
}

func (node *DensityNode) TotalNumberOfPoints() int64 {
	return node.totalNumberOfPoints
}

func (node *DensityNode) IsLeaf() bool {
	return node.leaf
}

func (node *DensityNode) IsRoot() bool {
	return node.parent == nil
}

// storePoints records the indices this cell will rasterize, the full set for
// leaves or the sampled preview for subdivided cells
func (node *DensityNode) storePoints(indices []int32) {
	node.points = indices
	node.numberOfPoints = int32(len(indices))
}

// Returns the index of the octant that contains the given Point within this boundingBox
func getOctantFromElement(element *data.Point, bbox *geometry.BoundingBox) uint8 {
	var result uint8 = 0
	if element.X > bbox.Xmid {
		result += 1
	}
	if element.Y > bbox.Ymid {
		result += 2
	}
	if element.Z > bbox.Zmid {
		result += 4
	}
	return result
}

// partitionByOctant distributes the given indices among the eight octants of
// the bounding box. Appending in input order keeps the partition stable, so
// the concurrent build is indistinguishable from the sequential one.
func partitionByOctant(arena []data.Point, indices []int32, bbox *geometry.BoundingBox) [8][]int32 {
	var buckets [8][]int32
	for _, index := range indices {
		octant := getOctantFromElement(&arena[index], bbox)
		buckets[octant] = append(buckets[octant], index)
	}
	return buckets
}
