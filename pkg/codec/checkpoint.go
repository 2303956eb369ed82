package codec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/absmach/flock/pkg/fl"
)

const FormatVersion byte = 1

var (
	magic = [4]byte{'F', 'L', 'C', 'K'}

	renameFile = os.Rename
)

type Checkpoint struct {
	Round      int             `cbor:"1,keyasint"`
	CreatedAt  time.Time       `cbor:"2,keyasint"`
	Parameters fl.ParameterSet `cbor:"3,keyasint"`
}

// CheckpointStore persists the global model.
type CheckpointStore interface {
	Save(ctx context.Context, cp Checkpoint) error
	Load(ctx context.Context) (Checkpoint, error)
}

func WriteCheckpoint(w io.Writer, cp Checkpoint) error {
	body, err := Marshal(cp)
	if err != nil {
		return err
	}

	header := append(magic[:], FormatVersion)
	if _, err := w.Write(header); err != nil {
		return err
	}
	_, err = w.Write(body)

	return err
}

func ReadCheckpoint(r io.Reader) (Checkpoint, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Checkpoint{}, err
	}
	if len(data) < len(magic)+1 || !bytes.Equal(data[:len(magic)], magic[:]) {
		return Checkpoint{}, fmt.Errorf("%w: bad magic", fl.ErrInvalidCheckpoint)
	}
	if v := data[len(magic)]; v != FormatVersion {
		return Checkpoint{}, fmt.Errorf("%w: unsupported format version %d", fl.ErrInvalidCheckpoint, v)
	}

	var cp Checkpoint
	if err := Unmarshal(data[len(magic)+1:], &cp); err != nil {
		return Checkpoint{}, errors.Join(fl.ErrInvalidCheckpoint, err)
	}
	if err := cp.Parameters.Validate(); err != nil {
		return Checkpoint{}, errors.Join(fl.ErrInvalidCheckpoint, err)
	}

	return cp, nil
}

var _ CheckpointStore = (*FileStore)(nil)

// FileStore keeps a single checkpoint at path. Saves go through a temporary
// file in the same directory followed by a rename, so a reader sees either
// the previous checkpoint or the new one.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (fs *FileStore) Path() string {
	return fs.path
}

func (fs *FileStore) Save(ctx context.Context, cp Checkpoint) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(fs.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(fs.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := WriteCheckpoint(tmp, cp); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close checkpoint: %w", err)
	}
	if err := renameFile(tmp.Name(), fs.path); err != nil {
		return fmt.Errorf("failed to install checkpoint: %w", err)
	}

	return nil
}

func (fs *FileStore) Load(ctx context.Context) (Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return Checkpoint{}, err
	}

	f, err := os.Open(fs.path)
	if err != nil {
		return Checkpoint{}, err
	}
	defer f.Close()

	return ReadCheckpoint(f)
}

// ModTime reports when the checkpoint file was last replaced.
func (fs *FileStore) ModTime() (time.Time, error) {
	info, err := os.Stat(fs.path)
	if err != nil {
		return time.Time{}, err
	}

	return info.ModTime(), nil
}
