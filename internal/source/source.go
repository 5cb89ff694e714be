// Package source defines per-site profiles that parameterize the pipeline.
//
// One pipeline serves every site; everything site-specific lives in a
// Profile: cookie domains, the user agent handed to the downloader, the
// authentication failure markers, and the cooldown after a credential
// renewal.
package source

import (
	"fmt"
	"strings"
	"time"
)

const desktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Profile captures the capabilities that vary between media sources.
type Profile struct {
	// Name identifies the profile and keys the cookie jar file.
	Name string
	// DisplayName is used in user-facing output and metadata.
	DisplayName string
	// UserAgent is passed to the downloader on every call.
	UserAgent string
	// CookieDomains are handed to the credential extractor on renewal.
	CookieDomains []string
	// AuthErrorMarkers classify downloader failures as authentication
	// failures. Matched case-insensitively as substrings.
	AuthErrorMarkers []string
	// RenewCooldown is slept after a successful renewal before retrying.
	RenewCooldown time.Duration
	// FallbackSampleRate is assumed when probing a raw artifact fails.
	FallbackSampleRate int
	// WatchURLTemplate rebuilds a playable URL from a bare entry ID.
	WatchURLTemplate string
	// URLHints match a locator to this profile.
	URLHints []string
}

// AlbumArtist returns the fixed album-artist placeholder for the profile.
func (p Profile) AlbumArtist() string {
	return p.DisplayName + " Favorites"
}

// WatchURL expands an entry ID into a playable URL. IDs that already look
// like URLs pass through unchanged.
func (p Profile) WatchURL(id string) string {
	if strings.Contains(id, "://") || p.WatchURLTemplate == "" {
		return id
	}
	return fmt.Sprintf(p.WatchURLTemplate, id)
}

// IsAuthError reports whether a downloader error message matches one of the
// profile's authentication failure markers.
func (p Profile) IsAuthError(message string) bool {
	lowered := strings.ToLower(message)
	for _, marker := range p.AuthErrorMarkers {
		if strings.Contains(lowered, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}

var (
	// YouTube covers youtube.com and youtu.be locators.
	YouTube = Profile{
		Name:               "youtube",
		DisplayName:        "YouTube",
		UserAgent:          desktopUserAgent,
		CookieDomains:      []string{"youtube.com", "google.com"},
		AuthErrorMarkers:   []string{"sign in", "403", "bot"},
		RenewCooldown:      10 * time.Second,
		FallbackSampleRate: 48000,
		WatchURLTemplate:   "https://www.youtube.com/watch?v=%s",
		URLHints:           []string{"youtube.com", "youtu.be"},
	}

	// Bilibili covers bilibili.com and b23.tv locators.
	Bilibili = Profile{
		Name:               "bilibili",
		DisplayName:        "Bilibili",
		UserAgent:          desktopUserAgent,
		CookieDomains:      []string{"bilibili.com"},
		AuthErrorMarkers:   []string{"403", "412", "sign in"},
		RenewCooldown:      3 * time.Second,
		FallbackSampleRate: 48000,
		URLHints:           []string{"bilibili.com", "b23.tv"},
	}

	// Netease covers music.163.com locators and local .ncm artifacts.
	Netease = Profile{
		Name:               "netease",
		DisplayName:        "NetEase",
		UserAgent:          desktopUserAgent,
		CookieDomains:      []string{"music.163.com"},
		AuthErrorMarkers:   []string{"403", "sign in"},
		RenewCooldown:      3 * time.Second,
		FallbackSampleRate: 44100,
		URLHints:           []string{"music.163.com", ".ncm"},
	}
)

// Profiles lists every known profile in detection order.
func Profiles() []Profile {
	return []Profile{YouTube, Bilibili, Netease}
}

// Detect maps a locator to its source profile.
func Detect(locator string) (Profile, error) {
	lowered := strings.ToLower(strings.TrimSpace(locator))
	for _, profile := range Profiles() {
		for _, hint := range profile.URLHints {
			if strings.Contains(lowered, hint) {
				return profile, nil
			}
		}
	}
	return Profile{}, fmt.Errorf("no source profile matches locator %q", locator)
}

// ByName looks up a profile by its Name.
func ByName(name string) (Profile, error) {
	lowered := strings.ToLower(strings.TrimSpace(name))
	for _, profile := range Profiles() {
		if profile.Name == lowered {
			return profile, nil
		}
	}
	return Profile{}, fmt.Errorf("unknown source profile %q", name)
}
