package io

import (
	"encoding/json"
	"os"
	"strconv"
	"sync"

	"github.com/pkg/errors"

	"github.com/ecopia-map/pcd_lod_tiler/internal/converters"
	"github.com/ecopia-map/pcd_lod_tiler/internal/geometry"
	"github.com/ecopia-map/pcd_lod_tiler/internal/octree"
)

// MetaFileName is the index document written at the output root
const MetaFileName = "meta.json"

type ShiftMeta struct {
	Enabled bool       `json:"enabled"`
	Offset  [3]float64 `json:"offset"`
}

// LodMeta is the index document describing one emitted LOD dataset. The
// coordinates map goes level, then "x-y-z" cell name, to the cell bounding
// box, covering exactly the cells whose rasters were written.
type LodMeta struct {
	Lod         int32                                       `json:"lod"`
	Shift       ShiftMeta                                   `json:"shift"`
	Bounds      *geometry.BoundingBox                       `json:"bounds"`
	Coordinates map[string]map[string]*geometry.BoundingBox `json:"coordinates"`
}

// MetaCollector accumulates the per cell entries of the index document while
// consumers rasterize cells in parallel. Insertion is mutex guarded, every
// other access must wait for the parallel phase to finish.
type MetaCollector struct {
	mutex    sync.Mutex
	maxLevel int32
	cells    map[string]map[string]*geometry.BoundingBox
}

func NewMetaCollector() *MetaCollector {
	return &MetaCollector{
		cells: make(map[string]map[string]*geometry.BoundingBox),
	}
}

// RecordCell registers an emitted cell under its address. Called by
// consumers once the cell rasters are on disk.
func (collector *MetaCollector) RecordCell(address octree.Address, box *geometry.BoundingBox) {
	collector.mutex.Lock()
	defer collector.mutex.Unlock()

	levelKey := strconv.Itoa(int(address.Level))
	level, ok := collector.cells[levelKey]
	if !ok {
		level = make(map[string]*geometry.BoundingBox)
		collector.cells[levelKey] = level
	}
	level[address.CellName()] = box

	if address.Level > collector.maxLevel {
		collector.maxLevel = address.Level
	}
}

// CellCount returns the number of recorded cells across all levels
func (collector *MetaCollector) CellCount() int {
	collector.mutex.Lock()
	defer collector.mutex.Unlock()

	count := 0
	for _, level := range collector.cells {
		count += len(level)
	}
	return count
}

// BuildMeta assembles the index document from the recorded cells. The lod
// field is the deepest level actually emitted.
func (collector *MetaCollector) BuildMeta(bounds *geometry.BoundingBox, appliedShift *converters.GlobalShift) *LodMeta {
	meta := &LodMeta{
		Lod:         collector.maxLevel,
		Bounds:      bounds,
		Coordinates: collector.cells,
	}
	if appliedShift != nil {
		meta.Shift = ShiftMeta{
			Enabled: appliedShift.Enabled,
			Offset:  [3]float64{appliedShift.Offset.X, appliedShift.Offset.Y, appliedShift.Offset.Z},
		}
	}
	return meta
}

// WriteMetaFile serializes the index document to filePath. Serialization is
// deterministic, map keys are emitted in sorted order.
func (collector *MetaCollector) WriteMetaFile(filePath string, bounds *geometry.BoundingBox, appliedShift *converters.GlobalShift) error {
	meta := collector.BuildMeta(bounds, appliedShift)

	jsonData, err := json.MarshalIndent(meta, "", "\t")
	if err != nil {
		return errors.Wrapf(err, "serializing %s", filePath)
	}

	if err := os.WriteFile(filePath, jsonData, 0666); err != nil {
		return errors.Wrapf(err, "writing %s", filePath)
	}

	return nil
}

// ReadMetaFile parses a previously written index document
func ReadMetaFile(filePath string) (*LodMeta, error) {
	jsonData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", filePath)
	}

	var meta LodMeta
	if err := json.Unmarshal(jsonData, &meta); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", filePath)
	}
	if meta.Bounds == nil {
		return nil, errors.Errorf("index document %s carries no bounds", filePath)
	}

	return &meta, nil
}
