package io

import (
	"sync"

	"github.com/ecopia-map/pcd_lod_tiler/internal/octree"
	"github.com/ecopia-map/pcd_lod_tiler/internal/tiler"
)

type StandardProducer struct {
	basePath string
	options  *tiler.TilerOptions
}

var _ Producer = (*StandardProducer)(nil)

func NewStandardProducer(basePath string, options *tiler.TilerOptions) *StandardProducer {
	return &StandardProducer{
		basePath: basePath,
		options:  options,
	}
}

// Walks a built tree depth first and submits one WorkUnit per cell holding
// points to the provided workchannel. Should be called only on the tree root node.
// Closes the channel when all work is submitted.
func (p *StandardProducer) Produce(work chan *WorkUnit, wg *sync.WaitGroup, node octree.INode) {
	p.produce(node, work)
	close(work)
	wg.Done()
}

func (p *StandardProducer) produce(node octree.INode, work chan *WorkUnit) {
	// only cells holding points become rasters
	if node.NumberOfPoints() > 0 {
		work <- &WorkUnit{
			Node:     node,
			BasePath: p.basePath,
			Opts:     p.options,
		}
	}

	// iterate all non nil children and recursively submit all work units
	for _, child := range node.GetChildren() {
		if child != nil {
			p.produce(child, work)
		}
	}
}
