package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/matzehuels/flowmap/pkg/errors"
)

// FileStore keeps one JSON document per version in a directory.
type FileStore struct {
	dir string
	mu  sync.RWMutex
}

// NewFileStore opens (and creates if needed) a store rooted at dir.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "create version dir")
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the store root.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Save writes v atomically.
func (s *FileStore) Save(ctx context.Context, v *Version) error {
	if err := validate(v); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode version")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "save version %s", v.ID)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(errors.ErrCodeStorage, err, "save version %s", v.ID)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(errors.ErrCodeStorage, err, "save version %s", v.ID)
	}
	if err := os.Rename(tmp.Name(), s.path(v.ID)); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "save version %s", v.ID)
	}
	return nil
}

// Get reads one version.
func (s *FileStore) Get(ctx context.Context, id string) (*Version, error) {
	if err := errors.ValidateVersionID(id); err != nil {
		return nil, notFound(id)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(s.path(id), id)
}

func (s *FileStore) read(path, id string) (*Version, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "read version %s", id)
	}
	var v Version
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "decode version %s", id)
	}
	return &v, nil
}

// List reads every version in the directory. Unreadable files are skipped.
func (s *FileStore) List(ctx context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list versions")
	}
	out := []Summary{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, ".") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id := strings.TrimSuffix(name, ".json")
		v, err := s.read(filepath.Join(s.dir, name), id)
		if err != nil {
			continue
		}
		out = append(out, v.Summary())
	}
	sortNewestFirst(out)
	return out, nil
}

// Delete removes one version.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := errors.ValidateVersionID(id); err != nil {
		return notFound(id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(id))
	if os.IsNotExist(err) {
		return notFound(id)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete version %s", id)
	}
	return nil
}

// Close does nothing for file store.
func (s *FileStore) Close() error { return nil }

// sortNewestFirst orders by creation time descending, then ID.
func sortNewestFirst(list []Summary) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
}

func (s *FileStore) String() string { return fmt.Sprintf("file:%s", s.dir) }

var _ Store = (*FileStore)(nil)
