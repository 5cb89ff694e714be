package ncm

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"weir/internal/transcode"
)

type fakeTranscoder struct {
	requests []transcode.Request
}

func (f *fakeTranscoder) Transcode(_ context.Context, req transcode.Request) (transcode.Result, error) {
	f.requests = append(f.requests, req)
	if err := os.WriteFile(req.Output, []byte("audio"), 0o644); err != nil {
		return transcode.Result{}, err
	}
	return transcode.Result{Output: req.Output}, nil
}

// stubDecryptor writes a script that "decrypts" its input by creating the
// given sibling file and removing nothing else.
func stubDecryptor(t *testing.T, dir, producedExt string) string {
	t.Helper()
	script := `#!/bin/sh
in="$1"
stem="${in%.ncm}"
printf 'audio' > "$stem` + producedExt + `"
`
	binary := filepath.Join(dir, "ncmdump")
	if err := os.WriteFile(binary, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return binary
}

func writeNCM(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("encrypted"), 0o644); err != nil {
		t.Fatalf("write ncm: %v", err)
	}
	return path
}

func TestProcessFlacConvertsToALAC(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()
	ncmPath := writeNCM(t, srcDir, "Song.ncm")
	binary := stubDecryptor(t, t.TempDir(), ".flac")
	transcoder := &fakeTranscoder{}
	worker := NewWorker(binary, transcoder, outDir, "", true, nil)

	result, err := worker.Process(context.Background(), ncmPath)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Passthrough {
		t.Fatal("flac should be converted")
	}
	if !strings.HasSuffix(result.Output, "Song.m4a") {
		t.Fatalf("output = %q", result.Output)
	}
	if len(transcoder.requests) != 1 {
		t.Fatalf("transcode calls = %d", len(transcoder.requests))
	}
	req := transcoder.requests[0]
	if req.Target != "alac" {
		t.Fatalf("target = %q", req.Target)
	}
	if req.FallbackSampleRate != 44100 {
		t.Fatalf("fallback = %d", req.FallbackSampleRate)
	}
	if !req.MapSourceCover {
		t.Fatal("embedded cover should be mapped")
	}
	// Staged .ncm copy and decrypted intermediate are both discarded.
	if _, err := os.Stat(filepath.Join(outDir, "Song.ncm")); err == nil {
		t.Fatal("staged copy should be removed")
	}
	if _, err := os.Stat(filepath.Join(outDir, "Song.flac")); err == nil {
		t.Fatal("decrypted intermediate should be removed")
	}
}

func TestProcessMp3PassesThrough(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()
	ncmPath := writeNCM(t, srcDir, "Song.ncm")
	binary := stubDecryptor(t, t.TempDir(), ".mp3")
	transcoder := &fakeTranscoder{}
	worker := NewWorker(binary, transcoder, outDir, "", false, nil)

	result, err := worker.Process(context.Background(), ncmPath)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !result.Passthrough {
		t.Fatal("mp3 should pass through")
	}
	if len(transcoder.requests) != 0 {
		t.Fatalf("transcode calls = %d, want 0", len(transcoder.requests))
	}
	if _, err := os.Stat(result.Output); err != nil {
		t.Fatalf("output missing: %v", err)
	}
}

func TestProcessExplicitTargetFormat(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()
	ncmPath := writeNCM(t, srcDir, "Song.ncm")
	binary := stubDecryptor(t, t.TempDir(), ".mp3")
	transcoder := &fakeTranscoder{}
	worker := NewWorker(binary, transcoder, outDir, "flac", false, nil)

	result, err := worker.Process(context.Background(), ncmPath)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Passthrough {
		t.Fatal("explicit format should convert mp3")
	}
	if !strings.HasSuffix(result.Output, "Song.flac") {
		t.Fatalf("output = %q", result.Output)
	}
}

func TestProcessTargetMatchesDecryptedExtension(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()
	ncmPath := writeNCM(t, srcDir, "Song.ncm")
	binary := stubDecryptor(t, t.TempDir(), ".flac")
	transcoder := &fakeTranscoder{}
	worker := NewWorker(binary, transcoder, outDir, "flac", false, nil)

	result, err := worker.Process(context.Background(), ncmPath)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !result.Passthrough {
		t.Fatal("matching extension should pass through")
	}
	if len(transcoder.requests) != 0 {
		t.Fatalf("transcode calls = %d", len(transcoder.requests))
	}
}

func TestProcessDecryptorProducesNothing(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()
	ncmPath := writeNCM(t, srcDir, "Song.ncm")
	binary := filepath.Join(t.TempDir(), "ncmdump")
	if err := os.WriteFile(binary, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	worker := NewWorker(binary, &fakeTranscoder{}, outDir, "", false, nil)

	if _, err := worker.Process(context.Background(), ncmPath); err == nil {
		t.Fatal("expected error when no decrypted output appears")
	}
}

func TestProcessRejectsNonNCM(t *testing.T) {
	worker := NewWorker("ncmdump", &fakeTranscoder{}, t.TempDir(), "", false, nil)
	if _, err := worker.Process(context.Background(), "/tmp/song.flac"); err == nil {
		t.Fatal("expected error for non-ncm input")
	}
}
