// Package ytdlp wraps the yt-dlp binary: flat playlist resolution, stream
// metadata extraction, and payload download.
package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Entry is one resolved playlist or collection member. Collection
// enumeration with --ignore-errors emits null for unavailable members, which
// decode as nil pointers and are dropped by the resolver.
type Entry struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	WebpageURL string `json:"webpage_url"`
	Uploader   string `json:"uploader"`
}

// Playlist is the decoded output of a flat resolution call.
type Playlist struct {
	Type       string   `json:"_type"`
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	URL        string   `json:"url"`
	WebpageURL string   `json:"webpage_url"`
	Uploader   string   `json:"uploader"`
	Entries    []*Entry `json:"entries"`
}

// IsCollection reports whether the locator resolved to multiple items.
func (p *Playlist) IsCollection() bool {
	return strings.EqualFold(p.Type, "playlist") || len(p.Entries) > 0
}

// Options carries the per-call session parameters.
type Options struct {
	// JarPath is the Netscape cookie file handed to yt-dlp. Skipped when
	// the file does not exist.
	JarPath string
	// UserAgent is the fixed user agent for all HTTP traffic.
	UserAgent string
}

// Client invokes a yt-dlp binary.
type Client struct {
	binary string
}

// NewClient returns a client for the given binary name or path.
func NewClient(binary string) *Client {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "yt-dlp"
	}
	return &Client{binary: binary}
}

func (c *Client) sessionArgs(opts Options) []string {
	args := []string{"--no-check-certificate", "--no-cache-dir"}
	if opts.JarPath != "" {
		if _, err := os.Stat(opts.JarPath); err == nil {
			args = append(args, "--cookies", opts.JarPath)
		}
	}
	if opts.UserAgent != "" {
		args = append(args, "--user-agent", opts.UserAgent)
	}
	return args
}

// ResolveFlat expands a locator into its entry list without downloading
// payloads. Unavailable collection members are emitted as null entries
// rather than failing the whole resolution.
func (c *Client) ResolveFlat(ctx context.Context, locator string, opts Options) (*Playlist, error) {
	args := append([]string{"-J", "--flat-playlist", "--ignore-errors"}, c.sessionArgs(opts)...)
	args = append(args, "--", locator)

	output, err := c.run(ctx, args)
	if err != nil {
		return nil, err
	}
	var playlist Playlist
	if err := json.Unmarshal(output, &playlist); err != nil {
		return nil, fmt.Errorf("yt-dlp resolve: parse output: %w", err)
	}
	return &playlist, nil
}

// Extract fetches full stream metadata for a single URL.
func (c *Client) Extract(ctx context.Context, url string, opts Options) (*Entry, error) {
	args := append([]string{"-J", "--no-playlist"}, c.sessionArgs(opts)...)
	args = append(args, "--", url)

	output, err := c.run(ctx, args)
	if err != nil {
		return nil, err
	}
	var entry Entry
	if err := json.Unmarshal(output, &entry); err != nil {
		return nil, fmt.Errorf("yt-dlp extract: parse output: %w", err)
	}
	return &entry, nil
}

// Download fetches the best available video+audio for url, merged into an
// mp4 at outputTemplate, with the thumbnail written alongside as jpg.
func (c *Client) Download(ctx context.Context, url string, outputTemplate string, opts Options) error {
	args := []string{
		"-f", "bestvideo+bestaudio/best",
		"--merge-output-format", "mp4",
		"--write-thumbnail",
		"--convert-thumbnails", "jpg",
		"--no-playlist",
		"--sleep-interval", "3",
		"-o", outputTemplate,
	}
	args = append(args, c.sessionArgs(opts)...)
	args = append(args, "--", url)

	_, err := c.run(ctx, args)
	return err
}

func (c *Client) run(ctx context.Context, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = strings.TrimSpace(stdout.String())
		}
		return nil, fmt.Errorf("yt-dlp: %w: %s", err, detail)
	}
	return stdout.Bytes(), nil
}
