package source

import "testing"

func TestDetect(t *testing.T) {
	cases := []struct {
		locator string
		want    string
	}{
		{"https://www.youtube.com/playlist?list=PL123", "youtube"},
		{"https://youtu.be/dQw4w9WgXcQ", "youtube"},
		{"https://www.bilibili.com/video/BV1xx411c7mD", "bilibili"},
		{"https://b23.tv/abcdef", "bilibili"},
		{"https://music.163.com/#/playlist?id=1", "netease"},
		{"/home/user/song.ncm", "netease"},
	}
	for _, tc := range cases {
		profile, err := Detect(tc.locator)
		if err != nil {
			t.Fatalf("Detect(%q): %v", tc.locator, err)
		}
		if profile.Name != tc.want {
			t.Fatalf("Detect(%q) = %q, want %q", tc.locator, profile.Name, tc.want)
		}
	}

	if _, err := Detect("https://example.com/whatever"); err == nil {
		t.Fatal("expected error for unknown locator")
	}
}

func TestIsAuthError(t *testing.T) {
	cases := []struct {
		profile Profile
		message string
		want    bool
	}{
		{YouTube, "ERROR: Sign in to confirm you're not a bot", true},
		{YouTube, "HTTP Error 403: Forbidden", true},
		{YouTube, "HTTP Error 412: Precondition Failed", false},
		{Bilibili, "HTTP Error 412: Precondition Failed", true},
		{Bilibili, "HTTP Error 403: Forbidden", true},
		{Bilibili, "confirmed you're not a bot", false},
		{YouTube, "network unreachable", false},
	}
	for _, tc := range cases {
		if got := tc.profile.IsAuthError(tc.message); got != tc.want {
			t.Fatalf("%s.IsAuthError(%q) = %v, want %v", tc.profile.Name, tc.message, got, tc.want)
		}
	}
}

func TestWatchURL(t *testing.T) {
	if got := YouTube.WatchURL("dQw4w9WgXcQ"); got != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Fatalf("WatchURL = %q", got)
	}
	passthrough := "https://www.youtube.com/watch?v=abc"
	if got := YouTube.WatchURL(passthrough); got != passthrough {
		t.Fatalf("WatchURL should pass URLs through, got %q", got)
	}
	if got := Bilibili.WatchURL("https://www.bilibili.com/video/BV1"); got != "https://www.bilibili.com/video/BV1" {
		t.Fatalf("WatchURL = %q", got)
	}
}

func TestAlbumArtist(t *testing.T) {
	if got := YouTube.AlbumArtist(); got != "YouTube Favorites" {
		t.Fatalf("AlbumArtist = %q", got)
	}
	if got := Bilibili.AlbumArtist(); got != "Bilibili Favorites" {
		t.Fatalf("AlbumArtist = %q", got)
	}
}

func TestByName(t *testing.T) {
	profile, err := ByName("Bilibili")
	if err != nil {
		t.Fatalf("ByName: %v", err)
	}
	if profile.Name != "bilibili" {
		t.Fatalf("ByName = %q", profile.Name)
	}
	if _, err := ByName("vimeo"); err == nil {
		t.Fatal("expected error for unknown profile")
	}
}
