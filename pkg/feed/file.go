package feed

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/snappy"
	"golang.org/x/exp/mmap"

	"github.com/dd0wney/zonemap/pkg/mapdata"
)

// CompressedExt marks snapshot files stored as snappy blocks.
const CompressedExt = ".sz"

// FileSource reads a recorded snapshot in YAML or JSON, optionally snappy
// compressed. The file is re-read on every Fetch so it can be replaced
// while the map is running.
type FileSource struct {
	path string
}

// NewFileSource creates a source for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Kind implements Source.
func (s *FileSource) Kind() string {
	return KindFile
}

// Fetch implements Source.
func (s *FileSource) Fetch(ctx context.Context) (mapdata.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return mapdata.Snapshot{}, err
	}

	data, err := s.read()
	if err != nil {
		return mapdata.Snapshot{}, &FetchError{Source: KindFile, Target: s.path, Cause: err}
	}

	snap, err := mapdata.DecodeSnapshot(data)
	if err != nil {
		return mapdata.Snapshot{}, &FetchError{Source: KindFile, Target: s.path, Cause: err}
	}
	return snap, nil
}

func (s *FileSource) read() ([]byte, error) {
	reader, err := mmap.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	buf := make([]byte, reader.Len())
	if _, err := reader.ReadAt(buf, 0); err != nil {
		return nil, err
	}

	if filepath.Ext(s.path) == CompressedExt {
		decoded, err := snappy.Decode(nil, buf)
		if err != nil {
			return nil, fmt.Errorf("snappy decode: %w", err)
		}
		return decoded, nil
	}
	return buf, nil
}

// WriteFile records snap to path as YAML, snappy compressed when path ends
// in CompressedExt.
func WriteFile(path string, snap mapdata.Snapshot) error {
	data, err := mapdata.EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	if filepath.Ext(path) == CompressedExt {
		data = snappy.Encode(nil, data)
	}
	return os.WriteFile(path, data, 0o644)
}
