package density_tree

import (
	"log"
	"math"
	"sync"

	"github.com/pkg/errors"

	"github.com/ecopia-map/pcd_lod_tiler/internal/converters"
	"github.com/ecopia-map/pcd_lod_tiler/internal/data"
	"github.com/ecopia-map/pcd_lod_tiler/internal/geometry"
	"github.com/ecopia-map/pcd_lod_tiler/internal/octree"
	"github.com/ecopia-map/pcd_lod_tiler/internal/point_loader"
	"github.com/ecopia-map/pcd_lod_tiler/internal/sampling"
	"github.com/ecopia-map/pcd_lod_tiler/tools"
)

// Subtrees rooted above this level are built in their own goroutine,
// deeper ones are built synchronously by whoever reaches them
const parallelSplitMaxLevel = 2

// ErrEmptyCloud is returned by Build when no point was loaded
var ErrEmptyCloud = errors.New("no points to index, the cloud is empty")

// Represents a DensityTree of points and contains all information needed
// to propagate points in the tree
type DensityTree struct {
	rootNode           *DensityNode
	built              bool
	densityLimit       int32
	maxLevel           int32
	appliedShift       *converters.GlobalShift
	shiftResolver      converters.ShiftResolver
	elevationCorrector converters.ElevationCorrector
	sampler            sampling.Sampler
	point_loader.Loader
	sync.RWMutex
}

// Builds an empty DensityTree initializing its properties to the correct defaults
func NewDensityTree(
	shiftResolver converters.ShiftResolver,
	elevationCorrector converters.ElevationCorrector,
	sampler sampling.Sampler,
	densityLimit int32,
	maxLevel int32,
) octree.ITree {
	return &DensityTree{
		built:              false,
		densityLimit:       densityLimit,
		maxLevel:           maxLevel,
		Loader:             point_loader.NewSequentialLoader(),
		shiftResolver:      shiftResolver,
		elevationCorrector: elevationCorrector,
		sampler:            sampler,
	}
}

// AddPoint corrects the point elevation and stores it in the backing loader
func (tree *DensityTree) AddPoint(point *data.Point) {
	point.Z = tree.elevationCorrector.CorrectElevation(point.X, point.Y, point.Z)
	tree.Loader.AddPoint(point)
}

// Builds the hierarchical tree structure
func (tree *DensityTree) Build() error {
	tree.Lock()
	defer tree.Unlock()

	if tree.built {
		return errors.New("octree already built")
	}

	count := tree.Loader.Count()
	if count == 0 {
		return ErrEmptyCloud
	}
	if count > math.MaxInt32 {
		return errors.Errorf("point count %d exceeds the maximum indexable arena size", count)
	}

	rootBox := tree.init()

	arena := tree.Loader.GetPoints()
	indices := make([]int32, len(arena))
	for i := range indices {
		indices[i] = int32(i)
	}

	tree.rootNode = NewDensityNode(octree.Address{}, rootBox, nil)

	var waitGroup sync.WaitGroup
	tree.subdivideNode(tree.rootNode, indices, &waitGroup)
	waitGroup.Wait()

	tree.built = true

	return nil
}

func (tree *DensityTree) GetRootNode() octree.INode {
	return tree.rootNode
}

func (tree *DensityTree) IsBuilt() bool {
	tree.RLock()
	defer tree.RUnlock()
	return tree.built
}

func (tree *DensityTree) GetAppliedShift() *converters.GlobalShift {
	return tree.appliedShift
}

func (tree *DensityTree) Clear() bool {
	tree.Lock()
	defer tree.Unlock()
	tree.rootNode = nil
	tree.Loader.ClearLoader()
	return true
}

// init resolves the cloud bounds and the global shift, mutating the arena in
// place when a shift applies, and returns the root bounding box
func (tree *DensityTree) init() *geometry.BoundingBox {
	box := tree.GetBounds()

	// box  {minX, maxX, minY, maxY, minZ, maxZ}
	log.Println("tree.box(minX,maxX,minY,maxY,minZ,maxZ):" + tools.FmtJSONString(box))
	log.Println("x:", box[1]-box[0], ", y:", box[3]-box[2], ", z:", box[5]-box[4])

	rootBox := geometry.NewBoundingBox(box[0], box[1], box[2], box[3], box[4], box[5])

	shift := tree.shiftResolver.ResolveShift(rootBox)
	tree.appliedShift = shift
	if !shift.Enabled {
		return rootBox
	}

	arena := tree.Loader.GetPoints()
	for i := range arena {
		arena[i].X -= shift.Offset.X
		arena[i].Y -= shift.Offset.Y
		arena[i].Z -= shift.Offset.Z
	}

	return rootBox.Translated(-shift.Offset.X, -shift.Offset.Y, -shift.Offset.Z)
}

// subdivideNode recursively partitions the given indices into the octants of
// the node until the density limit or the maximum level is reached. Shallow
// subtrees are handed to their own goroutine tracked by the wait group.
func (tree *DensityTree) subdivideNode(node *DensityNode, indices []int32, waitGroup *sync.WaitGroup) {
	node.totalNumberOfPoints = int64(len(indices))

	if int32(len(indices)) <= tree.densityLimit || node.address.Level == tree.maxLevel {
		node.storePoints(indices)
		return
	}

	arena := tree.Loader.GetPoints()

	node.leaf = false
	node.storePoints(tree.sampler.SamplePreview(arena, indices, node.boundingBox, tree.densityLimit, node.address))

	buckets := partitionByOctant(arena, indices, node.boundingBox)
	for octant := uint8(0); octant < 8; octant++ {
		childIndices := buckets[octant]
		if len(childIndices) == 0 {
			continue
		}

		child := NewDensityNode(
			node.address.Child(octant),
			geometry.NewBoundingBoxFromParent(node.boundingBox, octant),
			node,
		)
		node.children[octant] = child

		if node.address.Level < parallelSplitMaxLevel {
			waitGroup.Add(1)
			go func(child *DensityNode, childIndices []int32) {
				defer waitGroup.Done()
				tree.subdivideNode(child, childIndices, waitGroup)
			}(child, childIndices)
		} else {
			tree.subdivideNode(child, childIndices, waitGroup)
		}
	}
}
