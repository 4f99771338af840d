package fseq

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("seq")

const (
	lockTimeout   = 3 * time.Second
	retryInterval = 10 * time.Millisecond
)

// ErrLocked is returned if the lock file could not be acquired in time.
var ErrLocked = errors.New("could not acquire sequence file lock")

// FileSequence is a sequence stored as decimal text in a file.
// A lock file next to it serializes all processes of the host,
// the mutex serializes the goroutines of this process.
type FileSequence struct {
	path     string
	fileLock *flock.Flock
	mu       sync.Mutex
}

// New returns the file sequence at path. The file is created on first use,
// the first value returned is 1.
func New(path string) (*FileSequence, error) {
	if path == "" {
		return nil, fmt.Errorf("sequence file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create sequence directory: %w", err)
	}
	return &FileSequence{
		path:     path,
		fileLock: flock.New(path + ".lock"),
	}, nil
}

// Path returns the path of the sequence file.
func (s *FileSequence) Path() string {
	return s.path
}

// NextValue increments the stored counter and returns the new value.
func (s *FileSequence) NextValue() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	locked, err := s.fileLock.TryLockContext(ctx, retryInterval)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrLocked, err)
	}
	if !locked {
		return 0, ErrLocked
	}
	defer func() { _ = s.fileLock.Unlock() }()

	current, err := s.readLocked()
	if err != nil {
		return 0, err
	}
	next := current + 1
	if next <= 0 {
		return 0, fmt.Errorf("sequence %s exhausted", s.path)
	}
	if err := s.writeLocked(next); err != nil {
		return 0, err
	}
	return next, nil
}

// Current returns the last value handed out, 0 if none.
func (s *FileSequence) Current() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	locked, err := s.fileLock.TryRLockContext(ctx, retryInterval)
	if err != nil || !locked {
		return 0, ErrLocked
	}
	defer func() { _ = s.fileLock.Unlock() }()
	return s.readLocked()
}

func (s *FileSequence) readLocked() (int64, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read sequence file: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("corrupt sequence file %s: %q", s.path, text)
	}
	return v, nil
}

// writeLocked replaces the file through a rename so a crash never leaves a partial value.
func (s *FileSequence) writeLocked(v int64) error {
	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to write sequence file: %w", err)
	}
	if _, err = f.WriteString(strconv.FormatInt(v, 10) + "\n"); err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		log.Errorf("failed to persist sequence value %d to %s: %v", v, s.path, err)
		return fmt.Errorf("failed to write sequence file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace sequence file: %w", err)
	}
	return nil
}
