package tools

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ecopia-map/pcd_lod_tiler/internal/tiler"
)

// Extensions the ingestion layer reads natively. Files with other extensions
// are only accepted as direct -input targets, where the external converter
// hook may take over.
var supportedExtensions = map[string]bool{
	".las": true,
	".ply": true,
	".txt": true,
	".csv": true,
	".xyz": true,
}

func IsSupportedPointCloudFile(path string) bool {
	name := strings.ToLower(path)
	name = strings.TrimSuffix(name, ".gz")
	return supportedExtensions[filepath.Ext(name)]
}

type FileFinder interface {
	GetPointCloudFilesToProcess(opts *tiler.TilerOptions) []string
}

type StandardFileFinder struct{}

func NewStandardFileFinder() FileFinder {
	return &StandardFileFinder{}
}

func (f *StandardFileFinder) GetPointCloudFilesToProcess(opts *tiler.TilerOptions) []string {
	// If folder processing is not enabled the input file is given by the -input flag,
	// otherwise look for supported files in the -input folder, eventually excluding
	// nested folders if the Recursive flag is disabled
	if !opts.FolderProcessing {
		return []string{opts.Input}
	}

	return f.getPointCloudFilesFromInputFolder(opts)
}

func (f *StandardFileFinder) getPointCloudFilesFromInputFolder(opts *tiler.TilerOptions) []string {
	var cloudFiles = make([]string, 0)

	baseInfo, _ := os.Stat(opts.Input)
	err := filepath.Walk(
		opts.Input,
		func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() && !opts.Recursive && !os.SameFile(info, baseInfo) {
				return filepath.SkipDir
			} else {
				if IsSupportedPointCloudFile(info.Name()) {
					cloudFiles = append(cloudFiles, path)
				}
			}
			return nil
		},
	)

	if err != nil {
		log.Fatal(err)
	}

	return cloudFiles
}
