package resolver

import (
	"context"
	"errors"
	"testing"

	"weir/internal/services"
	"weir/internal/source"
	"weir/internal/ytdlp"
)

type fakeClient struct {
	playlist *ytdlp.Playlist
	err      error
}

func (f *fakeClient) ResolveFlat(_ context.Context, _ string, _ ytdlp.Options) (*ytdlp.Playlist, error) {
	return f.playlist, f.err
}

func TestResolveDropsInvalidEntries(t *testing.T) {
	client := &fakeClient{playlist: &ytdlp.Playlist{
		Type:  "playlist",
		Title: "Mixed",
		Entries: []*ytdlp.Entry{
			{ID: "a", Title: "First", URL: "https://example.com/a", Uploader: "Alice"},
			nil,
			{ID: "b", Title: "Second"},
			nil,
		},
	}}
	r := New(client, nil)

	resolution, err := r.Resolve(context.Background(), "https://youtube.com/list", source.YouTube, ytdlp.Options{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolution.RawCount != 4 {
		t.Fatalf("RawCount = %d, want 4", resolution.RawCount)
	}
	if len(resolution.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(resolution.Items))
	}
	if resolution.Items[0].Uploader != "Alice" {
		t.Fatalf("uploader = %q", resolution.Items[0].Uploader)
	}
	// Bare ID expands through the profile's watch URL.
	if resolution.Items[1].SourceURL != "https://www.youtube.com/watch?v=b" {
		t.Fatalf("SourceURL = %q", resolution.Items[1].SourceURL)
	}
	// Missing uploader falls back to the source display name.
	if resolution.Items[1].Uploader != "YouTube" {
		t.Fatalf("uploader = %q", resolution.Items[1].Uploader)
	}
}

func TestResolveSingleItem(t *testing.T) {
	client := &fakeClient{playlist: &ytdlp.Playlist{
		ID:         "v1",
		Title:      "Solo",
		WebpageURL: "https://www.bilibili.com/video/BV1",
		Uploader:   "Uploader",
	}}
	r := New(client, nil)

	resolution, err := r.Resolve(context.Background(), "https://bilibili.com/video/BV1", source.Bilibili, ytdlp.Options{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolution.Collection {
		t.Fatal("single item should not be a collection")
	}
	if len(resolution.Items) != 1 {
		t.Fatalf("items = %d", len(resolution.Items))
	}
	if resolution.Items[0].SourceURL != "https://www.bilibili.com/video/BV1" {
		t.Fatalf("SourceURL = %q", resolution.Items[0].SourceURL)
	}
}

func TestResolveFailureIsResolutionError(t *testing.T) {
	client := &fakeClient{err: errors.New("This playlist is private")}
	r := New(client, nil)

	_, err := r.Resolve(context.Background(), "https://youtube.com/list", source.YouTube, ytdlp.Options{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrResolution) {
		t.Fatalf("error %v should wrap ErrResolution", err)
	}
}

func TestResolveAllEntriesInvalid(t *testing.T) {
	client := &fakeClient{playlist: &ytdlp.Playlist{
		Type:    "playlist",
		Entries: []*ytdlp.Entry{nil, nil},
	}}
	r := New(client, nil)

	_, err := r.Resolve(context.Background(), "https://youtube.com/list", source.YouTube, ytdlp.Options{})
	if !errors.Is(err, services.ErrResolution) {
		t.Fatalf("expected resolution error, got %v", err)
	}
}
