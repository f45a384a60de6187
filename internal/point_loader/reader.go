package point_loader

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// ReadFile parses the point cloud file at filePath into the given loader,
// dispatching on the lowercased file extension. A trailing .gz extension
// strips one gzip layer and dispatches on the inner extension.
func ReadFile(filePath string, loader Sink) error {
	ext := strings.ToLower(filepath.Ext(filePath))
	if ext == ".gz" {
		return readGzippedFile(filePath, loader)
	}

	switch ext {
	case ".las":
		return readLasFile(filePath, loader)
	case ".ply":
		return readPlyFile(filePath, loader)
	case ".txt", ".csv", ".xyz":
		return readPlainAsciiFile(filePath, loader)
	default:
		return errors.Errorf("unsupported point cloud format %q in %s", ext, filePath)
	}
}

func readPlainAsciiFile(filePath string, loader Sink) (err error) {
	file, err := os.Open(filePath)
	if err != nil {
		return errors.Wrapf(err, "opening %s", filePath)
	}
	defer func() {
		err = multierr.Append(err, file.Close())
	}()

	return readAsciiPoints(file, filePath, loader)
}

func readGzippedFile(filePath string, loader Sink) (err error) {
	inner := strings.ToLower(filepath.Ext(strings.TrimSuffix(filePath, filepath.Ext(filePath))))
	switch inner {
	case ".txt", ".csv", ".xyz":
	default:
		return errors.Errorf("unsupported compressed point cloud format %q in %s", inner+".gz", filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return errors.Wrapf(err, "opening %s", filePath)
	}
	defer func() {
		err = multierr.Append(err, file.Close())
	}()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		return errors.Wrapf(err, "reading gzip header of %s", filePath)
	}
	defer func() {
		err = multierr.Append(err, gzipReader.Close())
	}()

	return readAsciiPoints(gzipReader, filePath, loader)
}
