package fileutil

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
)

// CopyInto streams src into dst, which must be open for reading and writing
// and positioned at its start. With verify set, dst is synced and read back
// so its size and SHA-256 are compared with what was read from src.
func CopyInto(src string, dst *os.File, verify bool) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat source: %w", err)
	}

	srcHasher := sha256.New()
	written, err := io.Copy(dst, io.TeeReader(in, srcHasher))
	if err != nil {
		return written, fmt.Errorf("copy: %w", err)
	}
	if written != info.Size() {
		return written, fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", info.Size(), written)
	}
	if !verify {
		return written, nil
	}

	if err := dst.Sync(); err != nil {
		return written, fmt.Errorf("sync destination: %w", err)
	}
	if _, err := dst.Seek(0, io.SeekStart); err != nil {
		return written, fmt.Errorf("rewind destination: %w", err)
	}
	dstHasher := sha256.New()
	readBack, err := io.Copy(dstHasher, dst)
	if err != nil {
		return written, fmt.Errorf("read back destination: %w", err)
	}
	if readBack != written {
		return written, fmt.Errorf("copy size mismatch: wrote %d bytes, read back %d bytes", written, readBack)
	}
	if !bytes.Equal(srcHasher.Sum(nil), dstHasher.Sum(nil)) {
		return written, errors.New("copy hash mismatch: file corrupted during copy")
	}
	return written, nil
}

// PreserveAttributes copies permission bits and access and modification
// times from src, described by info, onto dst.
func PreserveAttributes(dst, src string, info os.FileInfo) error {
	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return fmt.Errorf("chmod destination: %w", err)
	}
	if err := os.Chtimes(dst, accessTime(src, info), info.ModTime()); err != nil {
		return fmt.Errorf("set destination times: %w", err)
	}
	return nil
}

// MoveInto moves src onto the reserved path. A same-device rename replaces
// the placeholder atomically; across devices the bytes are copied into dst
// and src is removed only after the copy succeeded.
func MoveInto(src, reservedPath string, dst *os.File, verify bool) error {
	err := os.Rename(src, reservedPath)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return fmt.Errorf("rename: %w", err)
	}

	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	if _, err := CopyInto(src, dst, verify); err != nil {
		return err
	}
	if err := PreserveAttributes(reservedPath, src, info); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("remove source after copy: %w", err)
	}
	return nil
}
