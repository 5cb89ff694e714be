// Package resolver expands one input locator into an ordered list of media
// item descriptors, without downloading payloads.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"weir/internal/logging"
	"weir/internal/services"
	"weir/internal/source"
	"weir/internal/ytdlp"
)

// MediaItem describes one resolved entry awaiting acquisition.
type MediaItem struct {
	// SourceURL is the opaque locator handed to the downloader.
	SourceURL string
	// Title is the display name, used to derive the output filename.
	Title string
	// Uploader is the artist metadata value. Defaults to the source's
	// display name when the entry carries none.
	Uploader string
}

// Resolution is the outcome of expanding a locator.
type Resolution struct {
	Items []MediaItem
	// RawCount is the number of entries the collection enumerated,
	// including unavailable ones.
	RawCount int
	// Collection reports whether the locator expanded to multiple items.
	Collection bool
	// Title is the collection title when one was reported.
	Title string
}

type flatResolver interface {
	ResolveFlat(ctx context.Context, locator string, opts ytdlp.Options) (*ytdlp.Playlist, error)
}

// Resolver expands locators through the downloader.
type Resolver struct {
	client flatResolver
	logger *slog.Logger
}

// New builds a resolver on top of the downloader client.
func New(client flatResolver, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Resolver{client: client, logger: logger}
}

// Resolve expands the locator for the given source profile. Unavailable
// collection members are dropped; a failed resolution call is fatal to the
// run and is wrapped as a resolution error.
func (r *Resolver) Resolve(ctx context.Context, locator string, profile source.Profile, opts ytdlp.Options) (Resolution, error) {
	playlist, err := r.client.ResolveFlat(ctx, locator, opts)
	if err != nil {
		return Resolution{}, services.Wrap(services.ErrResolution, "resolve", "flat-playlist", "expand locator", err)
	}

	if !playlist.IsCollection() {
		item, ok := r.toItem(entryFromPlaylist(playlist), profile)
		if !ok {
			return Resolution{}, services.Wrap(services.ErrResolution, "resolve", "flat-playlist",
				fmt.Sprintf("locator %q yielded no playable item", locator), nil)
		}
		return Resolution{Items: []MediaItem{item}, RawCount: 1, Title: playlist.Title}, nil
	}

	resolution := Resolution{
		RawCount:   len(playlist.Entries),
		Collection: true,
		Title:      playlist.Title,
	}
	for _, entry := range playlist.Entries {
		if entry == nil {
			continue
		}
		item, ok := r.toItem(entry, profile)
		if !ok {
			continue
		}
		resolution.Items = append(resolution.Items, item)
	}

	r.logger.Info("locator resolved",
		logging.String("source", profile.Name),
		logging.Int("raw", resolution.RawCount),
		logging.Int("valid", len(resolution.Items)))

	if len(resolution.Items) == 0 {
		return Resolution{}, services.Wrap(services.ErrResolution, "resolve", "flat-playlist",
			fmt.Sprintf("collection %q has no playable entries", locator), nil)
	}
	return resolution, nil
}

func (r *Resolver) toItem(entry *ytdlp.Entry, profile source.Profile) (MediaItem, bool) {
	if entry == nil {
		return MediaItem{}, false
	}
	url := entry.URL
	if url == "" {
		url = entry.WebpageURL
	}
	if url == "" && entry.ID != "" {
		url = profile.WatchURL(entry.ID)
	}
	if url == "" {
		return MediaItem{}, false
	}

	title := strings.TrimSpace(entry.Title)
	if title == "" {
		title = "Unknown Item"
	}
	uploader := strings.TrimSpace(entry.Uploader)
	if uploader == "" {
		uploader = profile.DisplayName
	}
	return MediaItem{SourceURL: url, Title: title, Uploader: uploader}, true
}

func entryFromPlaylist(playlist *ytdlp.Playlist) *ytdlp.Entry {
	return &ytdlp.Entry{
		ID:         playlist.ID,
		Title:      playlist.Title,
		URL:        playlist.URL,
		Uploader:   playlist.Uploader,
		WebpageURL: playlist.WebpageURL,
	}
}
