package organizer_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"fileorg/internal/config"
	"fileorg/internal/logging"
	"fileorg/internal/organizer"
	"fileorg/internal/services"
	"fileorg/internal/signature"
	"fileorg/internal/testsupport"
)

type recordingSink struct {
	mu       sync.Mutex
	progress []organizer.Progress
	entries  []organizer.Entry
	onLog    func(organizer.Entry)
}

func (s *recordingSink) Progress(p organizer.Progress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = append(s.progress, p)
}

func (s *recordingSink) Log(e organizer.Entry) {
	s.mu.Lock()
	s.entries = append(s.entries, e)
	hook := s.onLog
	s.mu.Unlock()
	if hook != nil {
		hook(e)
	}
}

func (s *recordingSink) processedCounts() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, 0, len(s.progress))
	for _, p := range s.progress {
		out = append(out, p.Processed)
	}
	return out
}

func newOrganizer(t *testing.T, opts ...testsupport.ConfigOption) (*organizer.Organizer, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	return organizer.New(cfg, logging.NewNop()), cfg
}

func newJob(cfg *config.Config, src, dst string) organizer.Job {
	return organizer.JobFromConfig(cfg, src, dst)
}

func listTree(t *testing.T, root string) []string {
	t.Helper()
	var out []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			rel, _ := filepath.Rel(root, path)
			out = append(out, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", root, err)
	}
	sort.Strings(out)
	return out
}

func assertTree(t *testing.T, root string, want ...string) {
	t.Helper()
	got := listTree(t, root)
	sort.Strings(want)
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("unexpected tree under %s:\n got  %v\n want %v", root, got, want)
	}
}

func seedMixed(t *testing.T, src string) {
	t.Helper()
	testsupport.Put(t, filepath.Join(src, "photo.jpg"), testsupport.JPEG(t, 1920, 1080))
	testsupport.Put(t, filepath.Join(src, "docs", "report.pdf"), testsupport.PDF(3))
	testsupport.Put(t, filepath.Join(src, "backup.zip"), testsupport.Zip(t))
}

func TestRunOrganizesByCategory(t *testing.T) {
	org, cfg := newOrganizer(t)
	src, dst := t.TempDir(), t.TempDir()
	seedMixed(t, src)

	sink := &recordingSink{}
	res := org.Run(context.Background(), newJob(cfg, src, dst), sink)
	if res.Err != nil {
		t.Fatalf("Run: %v", res.Err)
	}
	if res.State != organizer.StateCompleted {
		t.Fatalf("expected completed, got %s", res.State)
	}
	if res.RunID == "" {
		t.Fatal("expected run id")
	}
	assertTree(t, dst,
		"Images/photo_1920x1080_JPEG.jpg",
		"Documents/report_3pages.pdf",
		"Archives/backup.zip",
	)
	if res.Stats.Scanned != 3 || res.Stats.Succeeded != 3 || res.Stats.Failed != 0 {
		t.Fatalf("unexpected stats: %+v", res.Stats)
	}
	if res.Stats.Folders != 2 {
		t.Fatalf("expected 2 source folders, got %d", res.Stats.Folders)
	}
	for _, cat := range []signature.Category{signature.Images, signature.Documents, signature.Archives} {
		if res.Stats.PerCategory[cat] != 1 {
			t.Fatalf("expected one %s, got %v", cat, res.Stats.PerCategory)
		}
	}
	assertTree(t, src, "photo.jpg", "docs/report.pdf", "backup.zip")
}

func TestRunFlatLayout(t *testing.T) {
	org, cfg := newOrganizer(t)
	src, dst := t.TempDir(), t.TempDir()
	seedMixed(t, src)

	job := newJob(cfg, src, dst)
	job.ByCategory = false
	res := org.Run(context.Background(), job, nil)
	if res.Err != nil {
		t.Fatalf("Run: %v", res.Err)
	}
	assertTree(t, dst, "photo_1920x1080_JPEG.jpg", "report_3pages.pdf", "backup.zip")
}

func TestRunCollisionsAcrossRuns(t *testing.T) {
	org, cfg := newOrganizer(t)
	src, dst := t.TempDir(), t.TempDir()
	testsupport.Put(t, filepath.Join(src, "a", "photo.jpg"), testsupport.JPEG(t, 8, 8))
	testsupport.Put(t, filepath.Join(src, "b", "photo.jpg"), testsupport.JPEG(t, 16, 16))

	job := newJob(cfg, src, dst)
	job.EnrichFilenames = false
	if res := org.Run(context.Background(), job, nil); res.Err != nil {
		t.Fatalf("first run: %v", res.Err)
	}
	assertTree(t, dst, "Images/photo.jpg", "Images/photo_1.jpg")

	first, err := os.ReadFile(filepath.Join(dst, "Images", "photo.jpg"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want, _ := os.ReadFile(filepath.Join(src, "a", "photo.jpg"))
	if string(first) != string(want) {
		t.Fatal("expected discovery order to give a/photo.jpg the unsuffixed name")
	}

	if res := org.Run(context.Background(), job, nil); res.Err != nil {
		t.Fatalf("second run: %v", res.Err)
	}
	assertTree(t, dst, "Images/photo.jpg", "Images/photo_1.jpg", "Images/photo_2.jpg", "Images/photo_3.jpg")
}

func TestRunCorruptPDFSucceedsWithoutToken(t *testing.T) {
	org, cfg := newOrganizer(t)
	src, dst := t.TempDir(), t.TempDir()
	testsupport.Put(t, filepath.Join(src, "broken.pdf"), testsupport.CorruptPDF())

	res := org.Run(context.Background(), newJob(cfg, src, dst), nil)
	if res.Err != nil {
		t.Fatalf("Run: %v", res.Err)
	}
	assertTree(t, dst, "Documents/broken.pdf")
	if res.Stats.Succeeded != 1 || res.Stats.Failed != 0 {
		t.Fatalf("expected corrupt pdf to count as succeeded, got %+v", res.Stats)
	}
}

func TestRunRestoresMissingExtension(t *testing.T) {
	org, cfg := newOrganizer(t)
	src, dst := t.TempDir(), t.TempDir()
	testsupport.Put(t, filepath.Join(src, "scan"), testsupport.PNG(t, 4, 3))
	testsupport.Put(t, filepath.Join(src, "notes"), []byte("no signature here"))

	res := org.Run(context.Background(), newJob(cfg, src, dst), nil)
	if res.Err != nil {
		t.Fatalf("Run: %v", res.Err)
	}
	assertTree(t, dst, "Images/scan_4x3_PNG.png", "Other/notes")
}

func TestRunPreservesExtensionCase(t *testing.T) {
	org, cfg := newOrganizer(t)
	src, dst := t.TempDir(), t.TempDir()
	testsupport.Put(t, filepath.Join(src, "IMG_0001.JPG"), testsupport.JPEG(t, 2, 2))

	res := org.Run(context.Background(), newJob(cfg, src, dst), nil)
	if res.Err != nil {
		t.Fatalf("Run: %v", res.Err)
	}
	assertTree(t, dst, "Images/IMG_0001_2x2_JPEG.JPG")
}

func TestRunMoveRemovesSources(t *testing.T) {
	org, cfg := newOrganizer(t)
	src, dst := t.TempDir(), t.TempDir()
	seedMixed(t, src)

	job := newJob(cfg, src, dst)
	job.Move = true
	job.EnrichFilenames = false
	res := org.Run(context.Background(), job, nil)
	if res.Err != nil {
		t.Fatalf("Run: %v", res.Err)
	}
	assertTree(t, dst, "Images/photo.jpg", "Documents/report.pdf", "Archives/backup.zip")
	assertTree(t, src)
}

func TestRunCopyPreservesModTime(t *testing.T) {
	org, cfg := newOrganizer(t)
	src, dst := t.TempDir(), t.TempDir()
	path := testsupport.Put(t, filepath.Join(src, "a.txt"), []byte("one\ntwo\n"))
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	mtime := info.ModTime().Add(-48 * time.Hour).Truncate(time.Second)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	if res := org.Run(context.Background(), newJob(cfg, src, dst), nil); res.Err != nil {
		t.Fatalf("Run: %v", res.Err)
	}
	got, err := os.Stat(filepath.Join(dst, "Documents", "a_2lines.txt"))
	if err != nil {
		t.Fatalf("stat target: %v", err)
	}
	if !got.ModTime().Equal(mtime) {
		t.Fatalf("expected mtime %v, got %v", mtime, got.ModTime())
	}
}

func TestRunProgressCadence(t *testing.T) {
	org, cfg := newOrganizer(t)
	src, dst := t.TempDir(), t.TempDir()
	for i := 0; i < 25; i++ {
		testsupport.Put(t, filepath.Join(src, fmt.Sprintf("f%02d.bin", i)), []byte{byte(i)})
	}

	job := newJob(cfg, src, dst)
	job.ProgressEvery = 10
	sink := &recordingSink{}
	res := org.Run(context.Background(), job, sink)
	if res.Err != nil {
		t.Fatalf("Run: %v", res.Err)
	}
	if got := fmt.Sprint(sink.processedCounts()); got != "[0 10 20 25]" {
		t.Fatalf("unexpected progress cadence %s", got)
	}
	last := sink.progress[len(sink.progress)-1]
	if last.Scanned != 25 || last.Succeeded != 25 {
		t.Fatalf("unexpected final progress %+v", last)
	}
	if last.State != organizer.StateCompleted {
		t.Fatalf("expected terminal snapshot in completed state, got %s", last.State)
	}
	for _, p := range sink.progress[:len(sink.progress)-1] {
		if p.State != organizer.StateProcessing {
			t.Fatalf("expected processing state before the end, got %+v", p)
		}
	}
}

func TestRunTerminalProgressWhenLastFileSampled(t *testing.T) {
	org, cfg := newOrganizer(t)
	src, dst := t.TempDir(), t.TempDir()
	for i := 0; i < 20; i++ {
		testsupport.Put(t, filepath.Join(src, fmt.Sprintf("f%02d.bin", i)), []byte{byte(i)})
	}

	job := newJob(cfg, src, dst)
	job.ProgressEvery = 10
	sink := &recordingSink{}
	if res := org.Run(context.Background(), job, sink); res.Err != nil {
		t.Fatalf("Run: %v", res.Err)
	}
	if got := fmt.Sprint(sink.processedCounts()); got != "[0 10 20]" {
		t.Fatalf("unexpected progress cadence %s", got)
	}
	if last := sink.progress[len(sink.progress)-1]; last.State != organizer.StateCompleted || last.Processed != 20 {
		t.Fatalf("expected completed snapshot at 20, got %+v", last)
	}
}

func TestRunParallelWorkers(t *testing.T) {
	org, cfg := newOrganizer(t)
	src, dst := t.TempDir(), t.TempDir()
	const n = 40
	for i := 0; i < n; i++ {
		testsupport.Put(t, filepath.Join(src, fmt.Sprintf("dir%d", i%4), "same.txt"), []byte(fmt.Sprintf("%d\n", i)))
	}

	job := newJob(cfg, src, dst)
	job.Workers = 8
	job.EnrichFilenames = false
	res := org.Run(context.Background(), job, nil)
	if res.Err != nil {
		t.Fatalf("Run: %v", res.Err)
	}
	if res.Stats.Succeeded != n || res.Stats.Failed != 0 {
		t.Fatalf("unexpected stats %+v", res.Stats)
	}
	if got := len(listTree(t, filepath.Join(dst, "Documents"))); got != n {
		t.Fatalf("expected %d distinct targets, got %d", n, got)
	}
}

func TestRunCancelBetweenFiles(t *testing.T) {
	org, cfg := newOrganizer(t)
	src, dst := t.TempDir(), t.TempDir()
	for i := 0; i < 5; i++ {
		testsupport.Put(t, filepath.Join(src, fmt.Sprintf("f%d.bin", i)), []byte{byte(i)})
	}

	job := newJob(cfg, src, dst)
	sink := &recordingSink{}
	sink.onLog = func(e organizer.Entry) {
		if e.Severity == organizer.SeveritySuccess && e.Path != "" {
			job.Cancel.Cancel()
		}
	}
	res := org.Run(context.Background(), job, sink)
	if res.State != organizer.StateCancelled {
		t.Fatalf("expected cancelled, got %s (%v)", res.State, res.Err)
	}
	if !errors.Is(res.Err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", res.Err)
	}
	if res.Stats.Scanned != 5 || res.Stats.Succeeded != 1 {
		t.Fatalf("expected partial stats, got %+v", res.Stats)
	}
	if got := len(listTree(t, dst)); got != 1 {
		t.Fatalf("expected one organized file, got %d", got)
	}
	if last := sink.progress[len(sink.progress)-1]; last.State != organizer.StateCancelled || last.Processed != 1 {
		t.Fatalf("expected cancelled snapshot after one file, got %+v", last)
	}
}

func TestRunKeepsCopyWhenAttributesRejected(t *testing.T) {
	organizer.StubPreserveAttributes(t, func(string, string, os.FileInfo) error {
		return errors.New("chmod destination: operation not permitted")
	})
	org, cfg := newOrganizer(t)
	src, dst := t.TempDir(), t.TempDir()
	testsupport.Put(t, filepath.Join(src, "a.txt"), []byte("one\ntwo\n"))

	sink := &recordingSink{}
	res := org.Run(context.Background(), newJob(cfg, src, dst), sink)
	if res.Err != nil {
		t.Fatalf("Run: %v", res.Err)
	}
	if res.Stats.Succeeded != 1 || res.Stats.Failed != 0 || len(res.Failures) != 0 {
		t.Fatalf("expected the copy to count as succeeded, got %+v", res.Stats)
	}
	data, err := os.ReadFile(filepath.Join(dst, "Documents", "a_2lines.txt"))
	if err != nil {
		t.Fatalf("expected copy to be kept: %v", err)
	}
	if string(data) != "one\ntwo\n" {
		t.Fatalf("unexpected copy contents %q", data)
	}
	warned := false
	for _, e := range sink.entries {
		if e.Severity == organizer.SeverityWarning && e.Message == "Timestamps not preserved for a.txt" {
			warned = true
		}
	}
	if !warned {
		t.Fatalf("expected attribute warning, got %+v", sink.entries)
	}
}

func TestRunWarnsOnlyForUnparseableMetadata(t *testing.T) {
	org, cfg := newOrganizer(t)
	src, dst := t.TempDir(), t.TempDir()
	testsupport.Put(t, filepath.Join(src, "old.doc"), []byte("\xD0\xCF\x11\xE0\xA1\xB1\x1A\xE1rest"))
	testsupport.Put(t, filepath.Join(src, "memo.rtf"), []byte("{\\rtf1 hello}"))
	testsupport.Put(t, filepath.Join(src, "backup.zip"), testsupport.Zip(t))
	testsupport.Put(t, filepath.Join(src, "broken.pdf"), testsupport.CorruptPDF())

	sink := &recordingSink{}
	res := org.Run(context.Background(), newJob(cfg, src, dst), sink)
	if res.Err != nil {
		t.Fatalf("Run: %v", res.Err)
	}
	var warnings []string
	for _, e := range sink.entries {
		if e.Severity == organizer.SeverityWarning {
			warnings = append(warnings, e.Message)
		}
	}
	if fmt.Sprint(warnings) != "[No metadata for broken.pdf]" {
		t.Fatalf("unexpected warnings %q", warnings)
	}
	assertTree(t, dst, "Archives/backup.zip", "Documents/broken.pdf", "Documents/memo.rtf", "Documents/old.doc")
}

func TestRunContextCancelled(t *testing.T) {
	org, cfg := newOrganizer(t)
	src, dst := t.TempDir(), t.TempDir()
	testsupport.Put(t, filepath.Join(src, "a.bin"), []byte{1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := org.Run(ctx, newJob(cfg, src, dst), nil)
	if res.State != organizer.StateCancelled {
		t.Fatalf("expected cancelled, got %s", res.State)
	}
}

func TestRunFatalPreconditions(t *testing.T) {
	org, cfg := newOrganizer(t)
	src := t.TempDir()

	tests := []struct {
		name   string
		src    string
		dst    string
		marker error
	}{
		{"missing source", filepath.Join(src, "nope"), t.TempDir(), services.ErrNotFound},
		{"destination equals source", src, src, services.ErrValidation},
		{"empty destination", src, "", services.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			res := org.Run(context.Background(), newJob(cfg, tt.src, tt.dst), sink)
			if res.State != organizer.StateFailed {
				t.Fatalf("expected failed, got %s", res.State)
			}
			if !errors.Is(res.Err, tt.marker) {
				t.Fatalf("expected %v, got %v", tt.marker, res.Err)
			}
			if !services.IsRunFatal(res.Err) {
				t.Fatalf("expected run-fatal error, got %v", res.Err)
			}
			if len(sink.entries) == 0 || sink.entries[len(sink.entries)-1].Severity != organizer.SeverityError {
				t.Fatalf("expected error entry, got %+v", sink.entries)
			}
		})
	}
}

func TestRunDestinationLocked(t *testing.T) {
	org, cfg := newOrganizer(t)
	src, dst := t.TempDir(), t.TempDir()
	testsupport.Put(t, filepath.Join(src, "a.bin"), []byte{1})
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	held := flock.New(organizer.LockPath(cfg.LockDir(), dst))
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock: ok=%v err=%v", ok, err)
	}
	t.Cleanup(func() { _ = held.Unlock() })

	res := org.Run(context.Background(), newJob(cfg, src, dst), nil)
	if !errors.Is(res.Err, services.ErrLocked) || res.State != organizer.StateFailed {
		t.Fatalf("expected locked failure, got %s %v", res.State, res.Err)
	}
	assertTree(t, dst)
}

func TestRunSkipsDestinationInsideSource(t *testing.T) {
	org, cfg := newOrganizer(t)
	src := t.TempDir()
	dst := filepath.Join(src, "sorted")
	testsupport.Put(t, filepath.Join(src, "a.bin"), []byte{1})
	testsupport.Put(t, filepath.Join(dst, "Other", "old.bin"), []byte{2})

	res := org.Run(context.Background(), newJob(cfg, src, dst), nil)
	if res.Err != nil {
		t.Fatalf("Run: %v", res.Err)
	}
	if res.Stats.Scanned != 1 {
		t.Fatalf("expected destination to be skipped, scanned %d", res.Stats.Scanned)
	}
	assertTree(t, dst, "Other/a.bin", "Other/old.bin")
}

func TestRunFollowsFileSymlinksOnly(t *testing.T) {
	org, cfg := newOrganizer(t)
	src, dst, outside := t.TempDir(), t.TempDir(), t.TempDir()
	target := testsupport.Put(t, filepath.Join(outside, "real.bin"), []byte{7})
	testsupport.Put(t, filepath.Join(outside, "dir", "hidden.bin"), []byte{8})
	if err := os.Symlink(target, filepath.Join(src, "link.bin")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if err := os.Symlink(filepath.Join(outside, "dir"), filepath.Join(src, "linkdir")); err != nil {
		t.Fatalf("symlink dir: %v", err)
	}

	res := org.Run(context.Background(), newJob(cfg, src, dst), nil)
	if res.Err != nil {
		t.Fatalf("Run: %v", res.Err)
	}
	assertTree(t, dst, "Other/link.bin")
	info, err := os.Lstat(filepath.Join(dst, "Other", "link.bin"))
	if err != nil || !info.Mode().IsRegular() {
		t.Fatalf("expected a regular file copy, got %v %v", info, err)
	}
}

func TestRunUnreadableFileIsCountedAndListed(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores file permissions")
	}
	org, cfg := newOrganizer(t)
	src, dst := t.TempDir(), t.TempDir()
	testsupport.Put(t, filepath.Join(src, "ok.bin"), []byte{1})
	locked := testsupport.Put(t, filepath.Join(src, "secret.bin"), []byte{2})
	if err := os.Chmod(locked, 0); err != nil {
		t.Fatalf("chmod: %v", err)
	}

	res := org.Run(context.Background(), newJob(cfg, src, dst), nil)
	if res.Err != nil || res.State != organizer.StateCompleted {
		t.Fatalf("per-file failure must not fail the run: %s %v", res.State, res.Err)
	}
	if res.Stats.Succeeded != 1 || res.Stats.Failed != 1 {
		t.Fatalf("unexpected stats %+v", res.Stats)
	}
	if len(res.Failures) != 1 || res.Failures[0].Path != locked {
		t.Fatalf("unexpected failures %+v", res.Failures)
	}
	assertTree(t, dst, "Other/ok.bin")
}

func TestRunRecordsHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithHistory())
	store := testsupport.MustOpenHistory(t, cfg)
	org := organizer.New(cfg, logging.NewNop(), organizer.WithHistory(store))
	src, dst := t.TempDir(), t.TempDir()
	seedMixed(t, src)

	res := org.Run(context.Background(), newJob(cfg, src, dst), nil)
	if res.Err != nil {
		t.Fatalf("Run: %v", res.Err)
	}
	run, err := store.FindRun(context.Background(), res.RunID)
	if err != nil {
		t.Fatalf("FindRun: %v", err)
	}
	if run.State != "completed" || run.Succeeded != 3 || run.Scanned != 3 {
		t.Fatalf("unexpected run record %+v", run)
	}
	transfers, err := store.Transfers(context.Background(), res.RunID)
	if err != nil {
		t.Fatalf("Transfers: %v", err)
	}
	if len(transfers) != 3 {
		t.Fatalf("expected 3 transfers, got %d", len(transfers))
	}
	tokens := map[string]string{}
	for _, tr := range transfers {
		tokens[tr.Kind] = tr.Token
	}
	if tokens["JPEG"] != "1920x1080_JPEG" || tokens["PDF"] != "3pages" || tokens["ZIP"] != "" {
		t.Fatalf("unexpected tokens %v", tokens)
	}
}

func TestRunCopiesLargeFileVerified(t *testing.T) {
	org, cfg := newOrganizer(t)
	src, dst := t.TempDir(), t.TempDir()
	const size = 3*32*1024 + 17
	testsupport.WriteFile(t, filepath.Join(src, "blob.bin"), size)

	res := org.Run(context.Background(), newJob(cfg, src, dst), nil)
	if res.Err != nil {
		t.Fatalf("Run: %v", res.Err)
	}
	info, err := os.Stat(filepath.Join(dst, "Other", "blob.bin"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() != size {
		t.Fatalf("expected %d bytes, got %d", size, info.Size())
	}
}

func TestRunKeepsExtensionlessNamesWhenRestoreDisabled(t *testing.T) {
	org, cfg := newOrganizer(t, testsupport.WithOrganize(func(o *config.Organize) {
		o.RestoreMissingExtension = false
	}))
	src, dst := t.TempDir(), t.TempDir()
	testsupport.Put(t, filepath.Join(src, "scan"), testsupport.PNG(t, 4, 3))

	res := org.Run(context.Background(), newJob(cfg, src, dst), nil)
	if res.Err != nil {
		t.Fatalf("Run: %v", res.Err)
	}
	assertTree(t, dst, "Images/scan_4x3_PNG")
}
