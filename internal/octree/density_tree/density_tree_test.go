package density_tree

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecopia-map/pcd_lod_tiler/internal/converters/elevation/offset_elevation_corrector"
	"github.com/ecopia-map/pcd_lod_tiler/internal/converters/shift"
	"github.com/ecopia-map/pcd_lod_tiler/internal/data"
	"github.com/ecopia-map/pcd_lod_tiler/internal/octree"
	"github.com/ecopia-map/pcd_lod_tiler/internal/sampling"
)

func newTestTree(densityLimit int32, maxLevel int32) octree.ITree {
	return NewDensityTree(
		shift.NewDisabledShiftResolver(),
		offset_elevation_corrector.NewOffsetElevationCorrector(0),
		sampling.NewUniformSampler(),
		densityLimit,
		maxLevel,
	)
}

// corners of the unit cube in octant order plus its center
func addCubeWithCenter(tree octree.ITree) {
	tree.AddPoint(data.NewColorlessPoint(0, 0, 0))
	tree.AddPoint(data.NewColorlessPoint(1, 0, 0))
	tree.AddPoint(data.NewColorlessPoint(0, 1, 0))
	tree.AddPoint(data.NewColorlessPoint(1, 1, 0))
	tree.AddPoint(data.NewColorlessPoint(0, 0, 1))
	tree.AddPoint(data.NewColorlessPoint(1, 0, 1))
	tree.AddPoint(data.NewColorlessPoint(0, 1, 1))
	tree.AddPoint(data.NewColorlessPoint(1, 1, 1))
	tree.AddPoint(data.NewColorlessPoint(0.5, 0.5, 0.5))
}

func visitTree(node octree.INode, visit func(node octree.INode)) {
	visit(node)
	for _, child := range node.GetChildren() {
		if child != nil {
			visitTree(child, visit)
		}
	}
}

func TestBuild_NinePointCube(t *testing.T) {
	tree := newTestTree(4, 3)
	addCubeWithCenter(tree)

	require.NoError(t, tree.Build())
	require.True(t, tree.IsBuilt())

	root := tree.GetRootNode()
	assert.False(t, root.IsLeaf())
	assert.True(t, root.IsRoot())
	assert.EqualValues(t, 9, root.TotalNumberOfPoints())
	// preview of nine points under a limit of four keeps indices 0, 3, 6
	assert.EqualValues(t, 3, root.NumberOfPoints())

	children := root.GetChildren()
	for octant, child := range children {
		require.NotNil(t, child, "octant %d missing", octant)
		assert.True(t, child.IsLeaf())
		assert.EqualValues(t, 1, child.GetAddress().Level)
	}

	// the center ties on every axis and lands in the lower octant
	assert.EqualValues(t, 2, children[0].NumberOfPoints())
	for octant := 1; octant < 8; octant++ {
		assert.EqualValues(t, 1, children[octant].NumberOfPoints(), "octant %d", octant)
	}
}

func TestBuild_NinePointCube_LeavesPartitionTheCloud(t *testing.T) {
	tree := newTestTree(4, 3)
	addCubeWithCenter(tree)
	require.NoError(t, tree.Build())

	seen := make(map[int32]int)
	visitTree(tree.GetRootNode(), func(node octree.INode) {
		if !node.IsLeaf() {
			return
		}
		for _, index := range node.GetPointIndices() {
			seen[index]++
		}
	})

	require.Len(t, seen, 9)
	for index, count := range seen {
		assert.Equal(t, 1, count, "point %d owned by %d leaves", index, count)
	}
}

func TestBuild_SinglePointDegenerateBox(t *testing.T) {
	tree := newTestTree(16, 10)
	tree.AddPoint(data.NewColorlessPoint(5, 5, 5))

	require.NoError(t, tree.Build())

	root := tree.GetRootNode()
	assert.True(t, root.IsLeaf())
	assert.EqualValues(t, 1, root.NumberOfPoints())

	box := root.GetBoundingBox()
	assert.Equal(t, box.Xmin, box.Xmax)
	assert.Equal(t, box.Ymin, box.Ymax)
	assert.Equal(t, box.Zmin, box.Zmax)

	require.NotNil(t, tree.GetAppliedShift())
	assert.False(t, tree.GetAppliedShift().Enabled)
}

func TestBuild_EmptyCloud(t *testing.T) {
	tree := newTestTree(16, 10)

	err := tree.Build()

	assert.ErrorIs(t, err, ErrEmptyCloud)
}

func TestBuild_Twice(t *testing.T) {
	tree := newTestTree(16, 10)
	tree.AddPoint(data.NewColorlessPoint(1, 2, 3))

	require.NoError(t, tree.Build())
	assert.Error(t, tree.Build())
}

func TestBuild_CoincidentPointsStopAtMaxLevel(t *testing.T) {
	tree := newTestTree(4, 2)
	for i := 0; i < 20; i++ {
		tree.AddPoint(data.NewColorlessPoint(1, 1, 1))
	}

	require.NoError(t, tree.Build())

	node := tree.GetRootNode()
	for !node.IsLeaf() {
		children := node.GetChildren()
		var next octree.INode
		for _, child := range children {
			if child != nil {
				require.Nil(t, next, "coincident points must stay in one octant")
				next = child
			}
		}
		require.NotNil(t, next)
		node = next
	}

	// the leaf at the maximum level keeps every point even over the limit
	assert.EqualValues(t, 2, node.GetAddress().Level)
	assert.EqualValues(t, 20, node.NumberOfPoints())
}

func TestBuild_MinCornerShift(t *testing.T) {
	tree := NewDensityTree(
		shift.NewMinCornerShiftResolver(),
		offset_elevation_corrector.NewOffsetElevationCorrector(0),
		sampling.NewUniformSampler(),
		16,
		10,
	)
	tree.AddPoint(data.NewColorlessPoint(100, 200, 300))
	tree.AddPoint(data.NewColorlessPoint(101, 202, 303))

	require.NoError(t, tree.Build())

	appliedShift := tree.GetAppliedShift()
	require.NotNil(t, appliedShift)
	assert.True(t, appliedShift.Enabled)
	assert.Equal(t, 100.0, appliedShift.Offset.X)
	assert.Equal(t, 200.0, appliedShift.Offset.Y)
	assert.Equal(t, 300.0, appliedShift.Offset.Z)

	box := tree.GetRootNode().GetBoundingBox()
	assert.InDelta(t, 0, box.Xmin, 1e-12)
	assert.InDelta(t, 0, box.Ymin, 1e-12)
	assert.InDelta(t, 0, box.Zmin, 1e-12)
	assert.InDelta(t, 1, box.Xmax, 1e-12)
	assert.InDelta(t, 2, box.Ymax, 1e-12)
	assert.InDelta(t, 3, box.Zmax, 1e-12)

	points := tree.GetPoints()
	require.Len(t, points, 2)
	assert.InDelta(t, 0, points[0].X, 1e-12)
	assert.InDelta(t, 1, points[1].X, 1e-12)
}

func addRandomCloud(tree octree.ITree, n int, seed int64) {
	generator := rand.New(rand.NewSource(seed))
	for i := 0; i < n; i++ {
		tree.AddPoint(data.NewColorlessPoint(
			generator.Float64()*100,
			generator.Float64()*100,
			generator.Float64()*50,
		))
	}
}

func TestBuild_DensityInvariant(t *testing.T) {
	const densityLimit = 32
	const maxLevel = 10
	tree := newTestTree(densityLimit, maxLevel)
	addRandomCloud(tree, 500, 42)

	require.NoError(t, tree.Build())

	seen := make(map[int32]int)
	visitTree(tree.GetRootNode(), func(node octree.INode) {
		if node.IsLeaf() {
			if node.GetAddress().Level < maxLevel {
				assert.LessOrEqual(t, node.NumberOfPoints(), int32(densityLimit))
			}
			for _, index := range node.GetPointIndices() {
				seen[index]++
			}
			return
		}
		// previews stay bounded too
		assert.LessOrEqual(t, node.NumberOfPoints(), int32(densityLimit))
	})

	require.Len(t, seen, 500)
	for _, count := range seen {
		require.Equal(t, 1, count)
	}
}

func TestBuild_ChildBoxesNestInParent(t *testing.T) {
	tree := newTestTree(32, 10)
	addRandomCloud(tree, 500, 7)

	require.NoError(t, tree.Build())

	visitTree(tree.GetRootNode(), func(node octree.INode) {
		for _, child := range node.GetChildren() {
			if child == nil {
				continue
			}
			assert.True(t, node.GetBoundingBox().Contains(child.GetBoundingBox()))
			assert.Equal(t, node.GetAddress().Level+1, child.GetAddress().Level)
		}
	})
}

func TestBuild_Deterministic(t *testing.T) {
	buildFingerprint := func() map[string]int32 {
		tree := newTestTree(16, 8)
		addRandomCloud(tree, 800, 99)
		require.NoError(t, tree.Build())

		fingerprint := make(map[string]int32)
		visitTree(tree.GetRootNode(), func(node octree.INode) {
			fingerprint[node.GetAddress().String()] = node.NumberOfPoints()
		})
		return fingerprint
	}

	assert.Equal(t, buildFingerprint(), buildFingerprint())
}

func TestAddPoint_AppliesElevationOffset(t *testing.T) {
	tree := NewDensityTree(
		shift.NewDisabledShiftResolver(),
		offset_elevation_corrector.NewOffsetElevationCorrector(5),
		sampling.NewUniformSampler(),
		16,
		10,
	)

	tree.AddPoint(data.NewColorlessPoint(1, 2, 3))

	points := tree.GetPoints()
	require.Len(t, points, 1)
	assert.Equal(t, 8.0, points[0].Z)
}
