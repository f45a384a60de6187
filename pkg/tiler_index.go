package pkg

import (
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/ecopia-map/pcd_lod_tiler/internal/io"
	"github.com/ecopia-map/pcd_lod_tiler/internal/octree"
	"github.com/ecopia-map/pcd_lod_tiler/internal/point_loader"
	"github.com/ecopia-map/pcd_lod_tiler/internal/tiler"
	"github.com/ecopia-map/pcd_lod_tiler/pkg/algorithm_manager"
	"github.com/ecopia-map/pcd_lod_tiler/tools"
)

type TilerIndex struct {
	fileFinder       tools.FileFinder
	algorithmManager algorithm_manager.AlgorithmManager
}

func NewTilerIndex(fileFinder tools.FileFinder, algorithmManager algorithm_manager.AlgorithmManager) tiler.ITiler {
	return &TilerIndex{
		fileFinder:       fileFinder,
		algorithmManager: algorithmManager,
	}
}

// Starts the indexing pipeline, ingest, build, rasterize, index document.
// Ingestion errors abort before any output is written. Failures of single
// cells during the raster phase are collected instead, the remaining cells
// and the index document are still written and the combined report is
// returned so the run exits non zero.
func (tilerIndex *TilerIndex) RunTiler(opts *tiler.TilerOptions) error {
	glog.Infoln("Preparing list of files to process...")

	// Prepare list of files to process
	cloudFiles := tilerIndex.fileFinder.GetPointCloudFilesToProcess(opts)
	glog.Infoln("cloud_file list", cloudFiles)
	for i, filePath := range cloudFiles {
		glog.Infof("cloud_file path %d [%s]", i+1, filePath)
	}
	if len(cloudFiles) == 0 {
		return errors.Errorf("no point cloud files to process in %s", opts.Input)
	}

	// every input file feeds the same cloud, the run emits a single LOD tree
	tree := tilerIndex.algorithmManager.GetTreeAlgorithm()
	for i, filePath := range cloudFiles {
		tools.LogOutput("Processing file " + strconv.Itoa(i+1) + "/" + strconv.Itoa(len(cloudFiles)))
		if err := tilerIndex.ingestFile(tree, filePath, opts); err != nil {
			return err
		}
	}

	if err := tilerIndex.prepareDataStructure(tree); err != nil {
		return err
	}

	report := tilerIndex.exportToLodFolder(tree, opts)
	if report != nil {
		return report
	}

	tools.LogOutput("> done processing", opts.Input)
	return nil
}

// Reads a single input file into the tree. Unsupported formats are routed
// through the external converter binary when one is configured.
func (tilerIndex *TilerIndex) ingestFile(tree octree.ITree, filePath string, opts *tiler.TilerOptions) error {
	tools.LogOutput("> reading data from file...", filepath.Base(filePath))

	if tools.IsSupportedPointCloudFile(filePath) {
		return point_loader.ReadFile(filePath, tree)
	}

	converterPath := opts.TilerIndexOptions.ConverterPath
	if converterPath == "" {
		return errors.Errorf("unsupported point cloud format %q in %s and no converter configured", filepath.Ext(filePath), filePath)
	}

	tools.LogOutput("> converting file...", filepath.Base(filePath))
	conversionFolder, err := os.MkdirTemp("", "pcd_lod_conversion")
	if err != nil {
		return errors.Wrap(err, "creating the conversion folder")
	}
	defer func() {
		if removeErr := os.RemoveAll(conversionFolder); removeErr != nil {
			glog.Infoln("remove conversion folder failed.", removeErr.Error())
		}
	}()

	convertedPath := path.Join(conversionFolder, getFilenameWithoutExtension(filePath)+".txt")
	if err := point_loader.ConvertToAscii(converterPath, filePath, convertedPath); err != nil {
		return err
	}

	return point_loader.ReadFile(convertedPath, tree)
}

func (tilerIndex *TilerIndex) prepareDataStructure(tree octree.ITree) error {
	// Build tree hierarchical structure
	tools.LogOutput("> building data structure...")

	if err := tree.Build(); err != nil {
		return err
	}

	rootNode := tree.GetRootNode()
	glog.Infoln("root_node num_of_points:", rootNode.NumberOfPoints(), ", total_num_of_points:", rootNode.TotalNumberOfPoints())

	return nil
}

// Rasterizes every cell of the built tree into the output folder, then writes
// the index document. The index is written last so it only ever names cells
// whose rasters are on disk.
func (tilerIndex *TilerIndex) exportToLodFolder(tree octree.ITree, opts *tiler.TilerOptions) error {
	tools.LogOutput("> exporting data...")

	outputFolder := opts.TilerIndexOptions.Output
	if err := tools.CreateDirectoryIfDoesNotExist(outputFolder); err != nil {
		return errors.Wrapf(err, "creating the output folder %s", outputFolder)
	}

	collector := io.NewMetaCollector()
	report := tilerIndex.exportTreeAsRasters(tree, opts, collector)

	tools.LogOutput("> writing index document...")
	metaPath := path.Join(outputFolder, io.MetaFileName)
	if err := collector.WriteMetaFile(metaPath, tree.GetRootNode().GetBoundingBox(), tree.GetAppliedShift()); err != nil {
		return multierr.Append(report, err)
	}

	glog.Infoln("emitted cells:", collector.CellCount(), ", index:", metaPath)

	return report
}

// Exports the cells of the given built octree as raster pairs according to the
// options specified in the TilerOptions instance
func (tilerIndex *TilerIndex) exportTreeAsRasters(tree octree.ITree, opts *tiler.TilerOptions, collector *io.MetaCollector) error {
	// if octree is not built, exit
	if !tree.IsBuilt() {
		return errors.New("octree not built, data structure not initialized")
	}

	// a consumer goroutine per CPU unless overridden
	numConsumers := runtime.NumCPU()
	if opts.TilerIndexOptions.NumWorkers > 0 {
		numConsumers = opts.TilerIndexOptions.NumWorkers
	}

	// init channel where to submit work with a buffer 5 times greater than the number of consumer
	workChannel := make(chan *io.WorkUnit, numConsumers*5)

	// init channel where consumers submit the errors that failed single cells
	errorChannel := make(chan error)

	// drain cell errors as they are reported, consumers never block on the
	// error channel while sibling cells are still being written
	var report error
	reportDone := make(chan struct{})
	go func() {
		for err := range errorChannel {
			glog.Infoln(err)
			report = multierr.Append(report, err)
		}
		close(reportDone)
	}()

	var waitGroup sync.WaitGroup

	// add producer to waitgroup and launch producer goroutine
	waitGroup.Add(1)
	producer := io.NewStandardProducer(opts.TilerIndexOptions.Output, opts)
	go producer.Produce(workChannel, &waitGroup, tree.GetRootNode())

	// add consumers to waitgroup and launch them
	for i := 0; i < numConsumers; i++ {
		waitGroup.Add(1)
		consumer := io.NewStandardConsumer(tree.GetPoints(), collector)
		go consumer.Consume(workChannel, errorChannel, &waitGroup)
	}

	// wait for producers and consumers to finish
	waitGroup.Wait()

	// close error chan and wait for the drain goroutine to fold up the report
	close(errorChannel)
	<-reportDone

	if report != nil {
		return errors.Wrapf(report, "%d cells failed", len(multierr.Errors(report)))
	}

	return nil
}

func getFilenameWithoutExtension(filePath string) string {
	nameWext := filepath.Base(filePath)
	extension := filepath.Ext(nameWext)
	return nameWext[0 : len(nameWext)-len(extension)]
}
