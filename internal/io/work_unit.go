package io

import (
	"github.com/ecopia-map/pcd_lod_tiler/internal/octree"
	"github.com/ecopia-map/pcd_lod_tiler/internal/tiler"
)

// Contains the minimal data needed to rasterize a single octree cell, i.e. its
// position and color raster pair plus the optional high precision quad raster
type WorkUnit struct {
	Node     octree.INode
	Opts     *tiler.TilerOptions
	BasePath string
}
