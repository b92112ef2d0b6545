package naming

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"fileorg/internal/services"
)

// DefaultMaxAttempts bounds the suffix search in one directory.
const DefaultMaxAttempts = 10000

// Resolver hands out collision-free destination paths.
type Resolver struct {
	// MaxAttempts caps the candidates tried per name; zero means DefaultMaxAttempts.
	MaxAttempts int
	// Perm is the mode for placeholder files; zero means 0o644.
	Perm os.FileMode
}

// Reservation is an exclusively created, empty destination file. Callers
// write into File and then call Commit, or call Abandon on failure.
type Reservation struct {
	Path string
	File *os.File
	done bool
}

// Reserve creates dir/name exclusively, falling back to stem_1.ext,
// stem_2.ext, ... until a free name is found.
func (r Resolver) Reserve(dir, name string) (*Reservation, error) {
	limit := r.MaxAttempts
	if limit <= 0 {
		limit = DefaultMaxAttempts
	}
	perm := r.Perm
	if perm == 0 {
		perm = 0o644
	}
	stem, ext := SplitName(name)

	for attempt := 0; attempt < limit; attempt++ {
		candidate := name
		if attempt > 0 {
			candidate = stem + "_" + strconv.Itoa(attempt) + ext
		}
		path := filepath.Join(dir, candidate)
		file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, perm)
		if err == nil {
			return &Reservation{Path: path, File: file}, nil
		}
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		return nil, services.Wrap(services.ErrTransfer, "resolve", "reserve destination", fmt.Sprintf("Cannot create %s", path), err)
	}
	return nil, services.Wrap(services.ErrTransfer, "resolve", "reserve destination",
		fmt.Sprintf("No free name for %s after %d attempts", filepath.Join(dir, name), limit), nil)
}

// Name returns the reserved file's base name.
func (res *Reservation) Name() string {
	return filepath.Base(res.Path)
}

// Commit closes the reservation, keeping the file.
func (res *Reservation) Commit() error {
	if res == nil || res.done {
		return nil
	}
	res.done = true
	if err := res.File.Close(); err != nil {
		return services.Wrap(services.ErrTransfer, "transfer", "close destination", res.Path, err)
	}
	return nil
}

// Abandon closes and removes the placeholder. It is safe to call after
// Commit has failed and on an already abandoned reservation.
func (res *Reservation) Abandon() error {
	if res == nil {
		return nil
	}
	if !res.done {
		res.done = true
		_ = res.File.Close()
	}
	if err := os.Remove(res.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return services.Wrap(services.ErrTransfer, "transfer", "remove placeholder", res.Path, err)
	}
	return nil
}
