package io

import (
	"sync"

	"github.com/ecopia-map/pcd_lod_tiler/internal/octree"
)

type Producer interface {
	Produce(work chan *WorkUnit, wg *sync.WaitGroup, node octree.INode)
}
