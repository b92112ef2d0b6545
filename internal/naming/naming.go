package naming

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fileorg/internal/metadata"
	"fileorg/internal/services"
	"fileorg/internal/signature"
)

// SplitName separates base into stem and extension. The extension keeps its
// original case and includes the dot. A dotfile without a further dot is all
// stem (".bashrc" has no extension).
func SplitName(base string) (stem, ext string) {
	ext = filepath.Ext(base)
	if ext == base || ext == "." {
		return base, ""
	}
	return strings.TrimSuffix(base, ext), ext
}

// Decorate appends rec's token to stem. A nil record leaves stem unchanged.
func Decorate(stem string, rec metadata.Record) string {
	if rec == nil {
		return stem
	}
	token := rec.Token()
	if token == "" {
		return stem
	}
	return stem + "_" + token
}

// RestoreExtension returns ext unchanged when non-empty; otherwise the
// kind's canonical extension.
func RestoreExtension(ext string, kind signature.FileKind) string {
	if ext != "" {
		return ext
	}
	return kind.Extension()
}

// TargetDir returns the directory a file of category should land in,
// creating the category folder when byCategory is set.
func TargetDir(destRoot string, category signature.Category, byCategory bool) (string, error) {
	if !byCategory {
		return destRoot, nil
	}
	dir := filepath.Join(destRoot, category.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", services.Wrap(services.ErrTransfer, "resolve", "create category folder", fmt.Sprintf("Cannot create %s", dir), err)
	}
	return dir, nil
}
