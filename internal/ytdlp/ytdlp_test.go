package ytdlp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func stubBinary(t *testing.T, stdout string) (*Client, string) {
	t.Helper()
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args.txt")
	payload := filepath.Join(dir, "payload.json")
	if err := os.WriteFile(payload, []byte(stdout), 0o644); err != nil {
		t.Fatalf("write payload: %v", err)
	}
	script := "#!/bin/sh\nprintf '%s\\n' \"$@\" > " + argsFile + "\ncat " + payload + "\n"
	binary := filepath.Join(dir, "yt-dlp")
	if err := os.WriteFile(binary, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return NewClient(binary), argsFile
}

func recordedArgs(t *testing.T, argsFile string) []string {
	t.Helper()
	data, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("read args: %v", err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestResolveFlatParsesPlaylist(t *testing.T) {
	client, argsFile := stubBinary(t, `{
		"_type": "playlist",
		"id": "PL123",
		"title": "Favorites",
		"entries": [
			{"id": "a1", "title": "First", "url": "https://example.com/a1"},
			null,
			{"id": "a2", "title": "Second", "webpage_url": "https://example.com/a2", "uploader": "Someone"}
		]
	}`)

	playlist, err := client.ResolveFlat(context.Background(), "https://example.com/list", Options{UserAgent: "agent"})
	if err != nil {
		t.Fatalf("ResolveFlat: %v", err)
	}
	if !playlist.IsCollection() {
		t.Fatal("expected collection")
	}
	if len(playlist.Entries) != 3 {
		t.Fatalf("entries = %d, want 3 including null", len(playlist.Entries))
	}
	if playlist.Entries[1] != nil {
		t.Fatal("null entry should decode to nil")
	}
	if playlist.Entries[2].Uploader != "Someone" {
		t.Fatalf("uploader = %q", playlist.Entries[2].Uploader)
	}

	args := recordedArgs(t, argsFile)
	joined := strings.Join(args, " ")
	for _, want := range []string{"-J", "--flat-playlist", "--ignore-errors", "--user-agent agent", "-- https://example.com/list"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args %q missing %q", joined, want)
		}
	}
	if strings.Contains(joined, "--cookies") {
		t.Fatalf("args %q should not include cookie jar when none exists", joined)
	}
}

func TestResolveFlatSingleItem(t *testing.T) {
	client, _ := stubBinary(t, `{"id": "v1", "title": "Solo", "webpage_url": "https://example.com/v1"}`)

	playlist, err := client.ResolveFlat(context.Background(), "https://example.com/v1", Options{})
	if err != nil {
		t.Fatalf("ResolveFlat: %v", err)
	}
	if playlist.IsCollection() {
		t.Fatal("single item should not be a collection")
	}
	if playlist.Title != "Solo" {
		t.Fatalf("title = %q", playlist.Title)
	}
}

func TestSessionArgsIncludeExistingJar(t *testing.T) {
	client, argsFile := stubBinary(t, `{"id": "v1", "title": "Solo"}`)
	jar := filepath.Join(t.TempDir(), "cookies.txt")
	if err := os.WriteFile(jar, []byte("# Netscape HTTP Cookie File\n"), 0o600); err != nil {
		t.Fatalf("write jar: %v", err)
	}

	if _, err := client.Extract(context.Background(), "https://example.com/v1", Options{JarPath: jar}); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	joined := strings.Join(recordedArgs(t, argsFile), " ")
	if !strings.Contains(joined, "--cookies "+jar) {
		t.Fatalf("args %q missing cookie jar", joined)
	}
	if !strings.Contains(joined, "--no-playlist") {
		t.Fatalf("args %q missing --no-playlist", joined)
	}
}

func TestDownloadArgs(t *testing.T) {
	client, argsFile := stubBinary(t, "")

	err := client.Download(context.Background(), "https://example.com/v1", "/tmp/out/Title.%(ext)s", Options{UserAgent: "agent"})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	joined := strings.Join(recordedArgs(t, argsFile), " ")
	for _, want := range []string{
		"-f bestvideo+bestaudio/best",
		"--merge-output-format mp4",
		"--write-thumbnail",
		"--convert-thumbnails jpg",
		"-o /tmp/out/Title.%(ext)s",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args %q missing %q", joined, want)
		}
	}
}

func TestRunSurfacesStderr(t *testing.T) {
	dir := t.TempDir()
	binary := filepath.Join(dir, "yt-dlp")
	script := "#!/bin/sh\necho 'ERROR: Sign in to confirm' >&2\nexit 1\n"
	if err := os.WriteFile(binary, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	client := NewClient(binary)

	_, err := client.ResolveFlat(context.Background(), "https://example.com/x", Options{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "Sign in to confirm") {
		t.Fatalf("error %q should carry stderr text", err)
	}
}
