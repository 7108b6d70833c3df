package blob

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Artifacts on disk:
//   <dir>/<roomId>-<messageId>.ftemp   incomplete upload
//   <dir>/<roomId>-<messageId>.fdat    finalized blob
// A blob becomes readable only after the atomic rename in Finalize.
const (
	tempSuffix  = ".ftemp"
	finalSuffix = ".fdat"
)

var ErrNotFound = errors.New("attachment not found")

type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) tempPath(roomId, messageId string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s-%s%s", roomId, messageId, tempSuffix))
}

func (s *FileStore) finalPath(roomId, messageId string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s-%s%s", roomId, messageId, finalSuffix))
}

// AppendPart writes one decoded part at the end of the temp artifact,
// creating it on the first part.
func (s *FileStore) AppendPart(roomId, messageId string, part []byte) error {
	f, err := os.OpenFile(s.tempPath(roomId, messageId), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(part); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Finalize promotes the temp artifact to its final name.
func (s *FileStore) Finalize(roomId, messageId string) error {
	return os.Rename(s.tempPath(roomId, messageId), s.finalPath(roomId, messageId))
}

// Discard removes both artifacts. Missing files are not an error; this is
// the cleanup path for aborted uploads and evicted rooms.
func (s *FileStore) Discard(roomId, messageId string) error {
	tempErr := os.Remove(s.tempPath(roomId, messageId))
	finalErr := os.Remove(s.finalPath(roomId, messageId))
	if tempErr != nil && !os.IsNotExist(tempErr) {
		return tempErr
	}
	if finalErr != nil && !os.IsNotExist(finalErr) {
		return finalErr
	}
	return nil
}

// Open streams a finalized blob. Incomplete uploads are invisible.
func (s *FileStore) Open(roomId, messageId string) (io.ReadCloser, error) {
	f, err := os.Open(s.finalPath(roomId, messageId))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}
