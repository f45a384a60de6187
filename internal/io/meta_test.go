package io

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecopia-map/pcd_lod_tiler/internal/converters"
	"github.com/ecopia-map/pcd_lod_tiler/internal/geometry"
	"github.com/ecopia-map/pcd_lod_tiler/internal/octree"
)

func newPopulatedCollector() (*MetaCollector, *geometry.BoundingBox) {
	collector := NewMetaCollector()
	rootBox := geometry.NewBoundingBox(0, 8, 0, 8, 0, 8)
	collector.RecordCell(octree.Address{Level: 0, X: 0, Y: 0, Z: 0}, rootBox)
	collector.RecordCell(octree.Address{Level: 1, X: 1, Y: 0, Z: 1}, geometry.NewBoundingBox(4, 8, 0, 4, 4, 8))
	return collector, rootBox
}

func TestMetaCollector_BuildMeta(t *testing.T) {
	collector, rootBox := newPopulatedCollector()
	collector.RecordCell(octree.Address{Level: 2, X: 2, Y: 0, Z: 2}, geometry.NewBoundingBox(4, 6, 0, 2, 4, 6))
	assert.Equal(t, 3, collector.CellCount())

	appliedShift := &converters.GlobalShift{
		Enabled: true,
		Offset:  geometry.Coordinate{X: 100, Y: 200, Z: 300},
	}
	meta := collector.BuildMeta(rootBox, appliedShift)

	assert.Equal(t, int32(2), meta.Lod)
	assert.True(t, meta.Shift.Enabled)
	assert.Equal(t, [3]float64{100, 200, 300}, meta.Shift.Offset)
	assert.Same(t, rootBox, meta.Bounds)

	require.Contains(t, meta.Coordinates, "1")
	require.Contains(t, meta.Coordinates["1"], "1-0-1")
	assert.Equal(t, 4.0, meta.Coordinates["1"]["1-0-1"].Xmin)
	assert.Equal(t, 8.0, meta.Coordinates["1"]["1-0-1"].Zmax)
}

func TestMetaCollector_BuildMetaWithoutShift(t *testing.T) {
	collector, rootBox := newPopulatedCollector()

	meta := collector.BuildMeta(rootBox, &converters.GlobalShift{})
	assert.False(t, meta.Shift.Enabled)
	assert.Equal(t, [3]float64{0, 0, 0}, meta.Shift.Offset)

	meta = collector.BuildMeta(rootBox, nil)
	assert.False(t, meta.Shift.Enabled)
	assert.Equal(t, int32(1), meta.Lod)
}

func TestMetaCollector_ConcurrentRecord(t *testing.T) {
	collector := NewMetaCollector()
	box := geometry.NewBoundingBox(0, 1, 0, 1, 0, 1)

	var waitGroup sync.WaitGroup
	for worker := 0; worker < 8; worker++ {
		waitGroup.Add(1)
		go func(worker int32) {
			defer waitGroup.Done()
			for i := int32(0); i < 50; i++ {
				collector.RecordCell(octree.Address{Level: 3, X: worker, Y: i, Z: 0}, box)
			}
		}(int32(worker))
	}
	waitGroup.Wait()

	assert.Equal(t, 400, collector.CellCount())
	assert.Equal(t, int32(3), collector.BuildMeta(box, nil).Lod)
}

func TestWriteThenReadMetaFile(t *testing.T) {
	collector, rootBox := newPopulatedCollector()
	appliedShift := &converters.GlobalShift{
		Enabled: true,
		Offset:  geometry.Coordinate{X: 1.5, Y: -2.5, Z: 10},
	}

	metaPath := filepath.Join(t.TempDir(), MetaFileName)
	require.NoError(t, collector.WriteMetaFile(metaPath, rootBox, appliedShift))

	content, err := os.ReadFile(metaPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "\t\"lod\"")

	meta, err := ReadMetaFile(metaPath)
	require.NoError(t, err)
	assert.Equal(t, int32(1), meta.Lod)
	assert.True(t, meta.Shift.Enabled)
	assert.Equal(t, [3]float64{1.5, -2.5, 10}, meta.Shift.Offset)
	assert.Equal(t, rootBox.Xmin, meta.Bounds.Xmin)
	assert.Equal(t, rootBox.Zmax, meta.Bounds.Zmax)
	require.Contains(t, meta.Coordinates, "1")
	require.Contains(t, meta.Coordinates["1"], "1-0-1")
	assert.Equal(t, 4.0, meta.Coordinates["1"]["1-0-1"].Xmin)
}

func TestWriteMetaFile_InsertionOrderIndependent(t *testing.T) {
	addresses := []octree.Address{
		{Level: 0, X: 0, Y: 0, Z: 0},
		{Level: 1, X: 0, Y: 1, Z: 0},
		{Level: 1, X: 1, Y: 0, Z: 1},
		{Level: 2, X: 3, Y: 2, Z: 1},
	}
	box := geometry.NewBoundingBox(0, 4, 0, 4, 0, 4)

	forward := NewMetaCollector()
	for _, address := range addresses {
		forward.RecordCell(address, box)
	}
	backward := NewMetaCollector()
	for i := len(addresses) - 1; i >= 0; i-- {
		backward.RecordCell(addresses[i], box)
	}

	folder := t.TempDir()
	forwardPath := filepath.Join(folder, "forward.json")
	backwardPath := filepath.Join(folder, "backward.json")
	require.NoError(t, forward.WriteMetaFile(forwardPath, box, nil))
	require.NoError(t, backward.WriteMetaFile(backwardPath, box, nil))

	forwardContent, err := os.ReadFile(forwardPath)
	require.NoError(t, err)
	backwardContent, err := os.ReadFile(backwardPath)
	require.NoError(t, err)
	assert.Equal(t, forwardContent, backwardContent)
}

func TestReadMetaFile_Errors(t *testing.T) {
	folder := t.TempDir()

	_, err := ReadMetaFile(filepath.Join(folder, "missing.json"))
	assert.Error(t, err)

	brokenPath := filepath.Join(folder, "broken.json")
	require.NoError(t, os.WriteFile(brokenPath, []byte("not a json document"), 0666))
	_, err = ReadMetaFile(brokenPath)
	assert.ErrorContains(t, err, "parsing")

	boundlessPath := filepath.Join(folder, "boundless.json")
	require.NoError(t, os.WriteFile(boundlessPath, []byte(`{"lod": 1}`), 0666))
	_, err = ReadMetaFile(boundlessPath)
	assert.ErrorContains(t, err, "carries no bounds")

	invertedPath := filepath.Join(folder, "inverted.json")
	inverted := `{"lod": 0, "bounds": {"min": [5, 0, 0], "max": [1, 1, 1]}}`
	require.NoError(t, os.WriteFile(invertedPath, []byte(inverted), 0666))
	_, err = ReadMetaFile(invertedPath)
	assert.ErrorContains(t, err, "invalid bounding box")
}
