package point_loader

import (
	"math"
	"sync"

	"github.com/ecopia-map/pcd_lod_tiler/internal/data"
)

// Sink receives the points produced by a reader. Satisfied by the Loader
// implementations and by the octree, which ingests while loading
type Sink interface {
	// Adds a Point to the Sink
	AddPoint(e *data.Point)
}

// Loader accumulates ingested points into a single backing arena while
// tracking the running cloud bounds
type Loader interface {
	Sink
	// Returns the arena of stored points. The slice is shared, not copied
	GetPoints() []data.Point
	// Returns the bounds of the stored cloud as minX, maxX, minY, maxY, minZ, maxZ
	GetBounds() []float64
	// Number of stored points
	Count() int64
	// Releases the arena
	ClearLoader()
}

// SequentialLoader stores points in ingestion order
type SequentialLoader struct {
	points []data.Point
	minX   float64
	maxX   float64
	minY   float64
	maxY   float64
	minZ   float64
	maxZ   float64
	sync.Mutex
}

func NewSequentialLoader() Loader {
	return &SequentialLoader{
		minX: math.MaxFloat64,
		maxX: -math.MaxFloat64,
		minY: math.MaxFloat64,
		maxY: -math.MaxFloat64,
		minZ: math.MaxFloat64,
		maxZ: -math.MaxFloat64,
	}
}

func (loader *SequentialLoader) AddPoint(e *data.Point) {
	loader.Lock()
	loader.points = append(loader.points, *e)
	loader.recomputeBoundsFromElement(e)
	loader.Unlock()
}

func (loader *SequentialLoader) GetPoints() []data.Point {
	return loader.points
}

func (loader *SequentialLoader) GetBounds() []float64 {
	return []float64{loader.minX, loader.maxX, loader.minY, loader.maxY, loader.minZ, loader.maxZ}
}

func (loader *SequentialLoader) Count() int64 {
	return int64(len(loader.points))
}

func (loader *SequentialLoader) ClearLoader() {
	loader.points = nil
}

// Updates the running cloud bounds as they would be if the given element
// was added to the cloud
func (loader *SequentialLoader) recomputeBoundsFromElement(element *data.Point) {
	loader.minX = math.Min(loader.minX, element.X)
	loader.maxX = math.Max(loader.maxX, element.X)
	loader.minY = math.Min(loader.minY, element.Y)
	loader.maxY = math.Max(loader.maxY, element.Y)
	loader.minZ = math.Min(loader.minZ, element.Z)
	loader.maxZ = math.Max(loader.maxZ, element.Z)
}
