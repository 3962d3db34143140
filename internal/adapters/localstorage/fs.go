package localstorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"ytdlapi/internal/core/domain"
)

const stagingDirName = ".staging"

// LocalStorage implements ports.Storage for a flat directory on the local filesystem.
type LocalStorage struct {
	BaseDir string

	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewLocalStorage creates a new LocalStorage instance.
func NewLocalStorage(baseDir string) *LocalStorage {
	return &LocalStorage{
		BaseDir: baseDir,
		locks:   make(map[string]*keyLock),
	}
}

// Init creates the download directory.
func (s *LocalStorage) Init(ctx context.Context) error {
	if err := os.MkdirAll(s.BaseDir, 0755); err != nil {
		return fmt.Errorf("failed to create download directory %s: %w", s.BaseDir, err)
	}
	return nil
}

// Dir returns the download directory.
func (s *LocalStorage) Dir() string {
	return s.BaseDir
}

// NewStaging creates a per-request working directory under the download directory.
// Staging lives on the same filesystem so Commit can rename atomically.
func (s *LocalStorage) NewStaging(ctx context.Context) (string, error) {
	path := filepath.Join(s.BaseDir, stagingDirName, uuid.New().String())
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", fmt.Errorf("failed to create staging directory %s: %w", path, err)
	}
	return path, nil
}

// Discard removes a staging directory.
func (s *LocalStorage) Discard(stagingDir string) error {
	if stagingDir == "" {
		return nil
	}
	if err := os.RemoveAll(stagingDir); err != nil {
		return fmt.Errorf("failed to remove staging directory %s: %w", stagingDir, err)
	}
	return nil
}

// Commit moves a staged file into the download directory.
func (s *LocalStorage) Commit(ctx context.Context, stagedPath string) (*domain.StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := filepath.Base(stagedPath)
	if !validName(name) {
		return nil, fmt.Errorf("%w: refusing to commit %q", domain.ErrInvalidArgument, name)
	}

	unlock := s.lock(name)
	defer unlock()

	dst := filepath.Join(s.BaseDir, name)
	if err := os.Rename(stagedPath, dst); err != nil {
		return nil, fmt.Errorf("failed to commit %s: %w", name, err)
	}

	info, err := os.Stat(dst)
	if err != nil {
		return nil, fmt.Errorf("failed to stat committed file %s: %w", name, err)
	}
	return toStoredFile(name, dst, info), nil
}

// Save streams reader into a staging file and commits it as name.
func (s *LocalStorage) Save(ctx context.Context, name string, reader io.Reader) (*domain.StoredFile, error) {
	if !validName(name) {
		return nil, fmt.Errorf("%w: invalid file name %q", domain.ErrInvalidArgument, name)
	}

	staging, err := s.NewStaging(ctx)
	if err != nil {
		return nil, err
	}
	defer s.Discard(staging)

	path := filepath.Join(staging, name)
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file %s: %w", path, err)
	}

	if _, err := io.Copy(file, reader); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write file %s: %w", name, err)
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file %s: %w", name, err)
	}

	return s.Commit(ctx, path)
}

// Open resolves name inside the download directory.
func (s *LocalStorage) Open(ctx context.Context, name string) (*domain.StoredFile, error) {
	if !validName(name) {
		return nil, domain.ErrFileNotFound
	}

	path := filepath.Join(s.BaseDir, name)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to stat %s: %w", name, err)
	}
	if info.IsDir() {
		return nil, domain.ErrFileNotFound
	}
	return toStoredFile(name, path, info), nil
}

func (s *LocalStorage) lock(name string) func() {
	s.mu.Lock()
	l, ok := s.locks[name]
	if !ok {
		l = &keyLock{}
		s.locks[name] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, name)
		}
		s.mu.Unlock()
	}
}

// validName accepts only plain basenames that cannot leave the directory
// or reach the staging area.
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.HasPrefix(name, ".") {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return false
	}
	return true
}

func toStoredFile(name, path string, info fs.FileInfo) *domain.StoredFile {
	return &domain.StoredFile{
		Name:    name,
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
}
