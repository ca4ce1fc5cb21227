package restyutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// Output receives one dump per HTTP exchange.
type Output interface {
	Write(id string, contents string) error
}

// FilesystemOutput writes each dump to `<directory>/<id>.txt`.
type FilesystemOutput struct {
	directory string
}

// NewFilesystemOutput creates `dir` if needed. Dumps from an earlier run are
// left in place, ids are prefixed with the run's start time by the caller.
func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	err := os.MkdirAll(dir, 0777)
	if err != nil {
		return FilesystemOutput{}, fmt.Errorf("create http dump directory: %w", err)
	}
	return FilesystemOutput{directory: dir}, nil
}

func (o FilesystemOutput) Write(id string, contents string) error {
	return os.WriteFile(filepath.Join(o.directory, id+".txt"), []byte(contents), 0600)
}
