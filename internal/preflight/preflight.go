package preflight

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"fileorg/internal/config"
	"fileorg/internal/deps"
	"fileorg/internal/services"
)

// Result reports the outcome of a single doctor check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// CheckSource verifies that root exists, is a directory, and can be listed.
func CheckSource(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return services.Wrap(services.ErrNotFound, "preflight", "check source", fmt.Sprintf("Source %s does not exist", root), err)
		}
		return services.Wrap(services.ErrValidation, "preflight", "check source", fmt.Sprintf("Cannot stat source %s", root), err)
	}
	if !info.IsDir() {
		return services.Wrap(services.ErrValidation, "preflight", "check source", fmt.Sprintf("Source %s is not a directory", root), nil)
	}
	if err := unix.Access(root, unix.R_OK|unix.X_OK); err != nil {
		return services.Wrap(services.ErrValidation, "preflight", "check source", fmt.Sprintf("Source %s is not readable", root), err)
	}
	return nil
}

// CheckDestination creates dest if needed and verifies it is a writable
// directory distinct from source.
func CheckDestination(dest, source string) error {
	if samePath(dest, source) {
		return services.Wrap(services.ErrValidation, "preflight", "check destination", "Destination must differ from source", nil)
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return services.Wrap(services.ErrValidation, "preflight", "check destination", fmt.Sprintf("Cannot create destination %s", dest), err)
	}
	info, err := os.Stat(dest)
	if err != nil {
		return services.Wrap(services.ErrValidation, "preflight", "check destination", fmt.Sprintf("Cannot stat destination %s", dest), err)
	}
	if !info.IsDir() {
		return services.Wrap(services.ErrValidation, "preflight", "check destination", fmt.Sprintf("Destination %s is not a directory", dest), nil)
	}
	if err := unix.Access(dest, unix.W_OK|unix.X_OK); err != nil {
		return services.Wrap(services.ErrValidation, "preflight", "check destination", fmt.Sprintf("Destination %s is not writable", dest), err)
	}
	return nil
}

// IsWithin reports whether path is root or lies beneath it.
func IsWithin(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func samePath(a, b string) bool {
	if filepath.Clean(a) == filepath.Clean(b) {
		return true
	}
	ai, aerr := os.Stat(a)
	bi, berr := os.Stat(b)
	return aerr == nil && berr == nil && os.SameFile(ai, bi)
}

// CheckDirectoryAccess verifies that the directory exists and is readable and writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// RunAll reports on the state directories.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.LogDir()),
		CheckDirectoryAccess("Lock directory", cfg.LockDir()),
	}
}

// CheckSystemDeps evaluates the optional binaries for the given config.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries([]deps.Requirement{
		{
			Name:        "FFprobe",
			Command:     deps.ResolveFFprobePath(cfg.FFprobeBinary()),
			Description: "Metadata for MKV, WebM, WMV, FLV, OGG and AAC",
			Optional:    true,
		},
	})
}
