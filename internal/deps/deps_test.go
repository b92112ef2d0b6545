package deps

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	if err := os.WriteFile(present, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary", Optional: true},
		{Name: "Empty", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" || !results[1].Optional {
		t.Fatalf("expected missing optional binary with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for empty command: %q", results[2].Detail)
	}
}

func TestResolveFFprobePathPrefersFFmpegSibling(t *testing.T) {
	dir := t.TempDir()
	script := []byte("#!/bin/sh\nexit 0\n")
	ffmpeg := filepath.Join(dir, executableName("ffmpeg"))
	ffprobe := filepath.Join(dir, executableName("ffprobe"))
	for _, path := range []string{ffmpeg, ffprobe} {
		if err := os.WriteFile(path, script, 0o755); err != nil {
			t.Fatalf("write stub: %v", err)
		}
	}

	original := lookPath
	lookPath = func(name string) (string, error) {
		if name == "ffmpeg" {
			return ffmpeg, nil
		}
		return original(name)
	}
	t.Cleanup(func() { lookPath = original })

	if got := ResolveFFprobePath(""); got != ffprobe {
		t.Fatalf("expected sibling %q, got %q", ffprobe, got)
	}
	if got := ResolveFFprobePath("/opt/custom/ffprobe"); got != "/opt/custom/ffprobe" {
		t.Fatalf("explicit paths must be kept, got %q", got)
	}
}
