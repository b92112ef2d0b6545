package naming_test

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"fileorg/internal/metadata"
	"fileorg/internal/naming"
	"fileorg/internal/services"
	"fileorg/internal/signature"
)

func TestSplitName(t *testing.T) {
	tests := []struct {
		base, stem, ext string
	}{
		{"photo.jpg", "photo", ".jpg"},
		{"REPORT.PDF", "REPORT", ".PDF"},
		{"archive.tar.gz", "archive.tar", ".gz"},
		{".bashrc", ".bashrc", ""},
		{".config.toml", ".config", ".toml"},
		{"README", "README", ""},
		{"trailing.", "trailing.", ""},
	}
	for _, tt := range tests {
		stem, ext := naming.SplitName(tt.base)
		if stem != tt.stem || ext != tt.ext {
			t.Fatalf("SplitName(%q) = (%q, %q), want (%q, %q)", tt.base, stem, ext, tt.stem, tt.ext)
		}
	}
}

func TestDecorate(t *testing.T) {
	tests := []struct {
		rec  metadata.Record
		want string
	}{
		{nil, "photo"},
		{metadata.Image{Width: 1920, Height: 1080, Format: "JPEG"}, "photo_1920x1080_JPEG"},
		{metadata.PDF{Pages: 3}, "photo_3pages"},
		{metadata.Word{Paragraphs: 0}, "photo_0paragraphs"},
		{metadata.Slides{Slides: 9}, "photo_9slides"},
		{metadata.Text{Lines: 120}, "photo_120lines"},
		{metadata.Video{Width: 1280, Height: 720, FPS: 30}, "photo_1280x720_30fps"},
		{metadata.Audio{DurationSeconds: 61, BitrateKbps: 128}, "photo_61s_128kbps"},
	}
	for _, tt := range tests {
		if got := naming.Decorate("photo", tt.rec); got != tt.want {
			t.Fatalf("Decorate(%#v) = %q, want %q", tt.rec, got, tt.want)
		}
	}
}

func TestRestoreExtension(t *testing.T) {
	if got := naming.RestoreExtension(".JPG", signature.PNG); got != ".JPG" {
		t.Fatalf("existing extension must be kept, got %q", got)
	}
	if got := naming.RestoreExtension("", signature.PDF); got != ".pdf" {
		t.Fatalf("expected .pdf, got %q", got)
	}
	if got := naming.RestoreExtension("", signature.Unknown); got != "" {
		t.Fatalf("unknown kind must not gain an extension, got %q", got)
	}
}

func TestTargetDir(t *testing.T) {
	root := t.TempDir()
	dir, err := naming.TargetDir(root, signature.Images, true)
	if err != nil {
		t.Fatalf("TargetDir: %v", err)
	}
	if dir != filepath.Join(root, "Images") {
		t.Fatalf("unexpected dir %q", dir)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("expected Images folder to exist: %v", err)
	}
	if _, err := naming.TargetDir(root, signature.Images, true); err != nil {
		t.Fatalf("TargetDir should be idempotent: %v", err)
	}

	flat, err := naming.TargetDir(root, signature.Videos, false)
	if err != nil || flat != root {
		t.Fatalf("flat layout should return root, got %q %v", flat, err)
	}
	if _, err := os.Stat(filepath.Join(root, "Videos")); !os.IsNotExist(err) {
		t.Fatal("flat layout must not create category folders")
	}
}

func TestReserveSuffixesInOrder(t *testing.T) {
	dir := t.TempDir()
	var resolver naming.Resolver
	var names []string
	for i := 0; i < 3; i++ {
		res, err := resolver.Reserve(dir, "photo.JPG")
		if err != nil {
			t.Fatalf("Reserve: %v", err)
		}
		names = append(names, res.Name())
		if err := res.Commit(); err != nil {
			t.Fatalf("Commit: %v", err)
		}
	}
	want := []string{"photo.JPG", "photo_1.JPG", "photo_2.JPG"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
}

func TestReserveWithoutExtension(t *testing.T) {
	dir := t.TempDir()
	var resolver naming.Resolver
	first, _ := resolver.Reserve(dir, "Makefile")
	second, err := resolver.Reserve(dir, "Makefile")
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if first.Name() != "Makefile" || second.Name() != "Makefile_1" {
		t.Fatalf("unexpected names %q %q", first.Name(), second.Name())
	}
}

func TestAbandonRemovesPlaceholder(t *testing.T) {
	dir := t.TempDir()
	var resolver naming.Resolver
	res, err := resolver.Reserve(dir, "doc.pdf")
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if err := res.Abandon(); err != nil {
		t.Fatalf("Abandon: %v", err)
	}
	if _, err := os.Stat(res.Path); !os.IsNotExist(err) {
		t.Fatalf("placeholder should be removed, stat err = %v", err)
	}
	if err := res.Abandon(); err != nil {
		t.Fatalf("second Abandon should be a no-op: %v", err)
	}

	again, err := resolver.Reserve(dir, "doc.pdf")
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if again.Name() != "doc.pdf" {
		t.Fatalf("abandoned name should be reusable, got %q", again.Name())
	}
}

func TestReserveAttemptCeiling(t *testing.T) {
	dir := t.TempDir()
	resolver := naming.Resolver{MaxAttempts: 2}
	for i := 0; i < 2; i++ {
		if _, err := resolver.Reserve(dir, "a.txt"); err != nil {
			t.Fatalf("Reserve %d: %v", i, err)
		}
	}
	_, err := resolver.Reserve(dir, "a.txt")
	if !errors.Is(err, services.ErrTransfer) {
		t.Fatalf("expected ErrTransfer at ceiling, got %v", err)
	}
}

func TestReserveMissingDirectory(t *testing.T) {
	var resolver naming.Resolver
	_, err := resolver.Reserve(filepath.Join(t.TempDir(), "absent"), "a.txt")
	if !errors.Is(err, services.ErrTransfer) {
		t.Fatalf("expected ErrTransfer, got %v", err)
	}
}

func TestConcurrentReservationsNeverCollide(t *testing.T) {
	dir := t.TempDir()
	var resolver naming.Resolver
	const workers = 24

	var mu sync.Mutex
	var paths []string
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := resolver.Reserve(dir, "clip.mp4")
			if err != nil {
				t.Errorf("Reserve: %v", err)
				return
			}
			res.Commit()
			mu.Lock()
			paths = append(paths, res.Path)
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Strings(paths)
	for i := 1; i < len(paths); i++ {
		if paths[i] == paths[i-1] {
			t.Fatalf("duplicate reservation %q", paths[i])
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != workers {
		t.Fatalf("expected %d files, got %d", workers, len(entries))
	}
}
