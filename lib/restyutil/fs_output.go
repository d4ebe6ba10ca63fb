package restyutil

import (
	"log/slog"
	"os"
	"path/filepath"
)

// FilesystemOutput writes request/response dumps to a directory, one
// file per exchange. The directory is wiped on creation so a run only
// contains its own traffic.
type FilesystemOutput struct {
	directory string
}

func NewFilesystemOutput(dir string) FilesystemOutput {
	os.RemoveAll(dir)
	if err := os.MkdirAll(dir, 0o777); err != nil {
		panic(err)
	}
	return FilesystemOutput{directory: dir}
}

func (o FilesystemOutput) Write(id string, contents string) {
	path := filepath.Join(o.directory, id+".txt")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		slog.Warn("failed to write exchange dump", "id", id, "err", err)
	}
}
