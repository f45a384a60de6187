package tools

import (
	"os"
	"path/filepath"

	"github.com/golang/glog"
)

// GetWorkDirectory returns the directory relative input and output paths
// resolve against, the PCD_LOD_TILER_WORKDIR environment variable when set,
// the process working directory otherwise.
func GetWorkDirectory() string {
	workdirFromEnv := os.Getenv("PCD_LOD_TILER_WORKDIR")
	if workdirFromEnv != "" {
		return workdirFromEnv
	}

	wd, err := os.Getwd()
	if err != nil {
		glog.Fatal("cannot retrieve working directory: ", err)
	}
	return wd
}

func ResolvePath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(GetWorkDirectory(), path)
}

func CreateDirectoryIfDoesNotExist(directory string) error {
	if _, err := os.Stat(directory); os.IsNotExist(err) {
		err := os.MkdirAll(directory, 0777)
		if err != nil {
			return err
		}
	}
	return nil
}
