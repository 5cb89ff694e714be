package cookiejar

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"weir/internal/source"
)

func TestFormatLine(t *testing.T) {
	cases := []struct {
		name   string
		record Record
		want   string
	}{
		{
			name:   "dotted domain secure no expiration",
			record: Record{Domain: ".example.com", Path: "/", Secure: true, Name: "sid", Value: "abc"},
			want:   ".example.com\tTRUE\t/\tTRUE\t0\tsid\tabc",
		},
		{
			name:   "bare domain with expiration",
			record: Record{Domain: "example.com", Path: "/watch", Secure: false, Expiration: 1700000000, Name: "pref", Value: "1"},
			want:   "example.com\tFALSE\t/watch\tFALSE\t1700000000\tpref\t1",
		},
		{
			name:   "empty path defaults to root",
			record: Record{Domain: ".example.com", Name: "a", Value: "b"},
			want:   ".example.com\tTRUE\t/\tFALSE\t0\ta\tb",
		},
		{
			name:   "negative expiration coerced to zero",
			record: Record{Domain: "example.com", Path: "/", Expiration: -1, Name: "n", Value: "v"},
			want:   "example.com\tFALSE\t/\tFALSE\t0\tn\tv",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatLine(tc.record); got != tc.want {
				t.Fatalf("FormatLine = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestWriteJarOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jars", "youtube_cookies.txt")

	first := []Record{
		{Domain: ".youtube.com", Path: "/", Secure: true, Name: "old", Value: "1"},
		{Domain: ".youtube.com", Path: "/", Secure: true, Name: "stale", Value: "2"},
	}
	if err := WriteJar(path, first, "Chrome"); err != nil {
		t.Fatalf("WriteJar: %v", err)
	}

	second := []Record{{Domain: ".youtube.com", Path: "/", Secure: true, Name: "fresh", Value: "3"}}
	if err := WriteJar(path, second, "Firefox"); err != nil {
		t.Fatalf("WriteJar rewrite: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read jar: %v", err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "# Netscape HTTP Cookie File\n") {
		t.Fatalf("missing header: %q", content)
	}
	if !strings.Contains(content, "from Firefox") {
		t.Fatalf("missing provenance: %q", content)
	}
	if strings.Contains(content, "old") || strings.Contains(content, "stale") {
		t.Fatalf("previous session leaked into jar: %q", content)
	}
	if !strings.Contains(content, ".youtube.com\tTRUE\t/\tTRUE\t0\tfresh\t3") {
		t.Fatalf("missing renewed cookie line: %q", content)
	}
}

type fakeExtractor struct {
	calls   []string
	results map[string][]Record
	errs    map[string]error
}

func (f *fakeExtractor) Extract(_ context.Context, browser string, _ []string) ([]Record, error) {
	f.calls = append(f.calls, browser)
	if err := f.errs[browser]; err != nil {
		return nil, err
	}
	return f.results[browser], nil
}

func jarPathFn(dir string) func(string) string {
	return func(profile string) string {
		return filepath.Join(dir, profile+"_cookies.txt")
	}
}

func TestRenewFallbackOrder(t *testing.T) {
	dir := t.TempDir()
	extractor := &fakeExtractor{
		errs: map[string]error{
			"chrome": errors.New("keychain locked"),
			"edge":   errors.New("profile not found"),
		},
		results: map[string][]Record{
			"firefox": {{Domain: ".bilibili.com", Path: "/", Secure: true, Name: "SESSDATA", Value: "tok"}},
		},
	}
	svc := NewService(extractor, []string{"chrome", "edge", "firefox"}, jarPathFn(dir), nil)

	result, err := svc.Renew(context.Background(), source.Bilibili)
	if err != nil {
		t.Fatalf("Renew: %v", err)
	}
	if result.Source != "Firefox" {
		t.Fatalf("result.Source = %q", result.Source)
	}
	if result.Count != 1 {
		t.Fatalf("result.Count = %d", result.Count)
	}
	if got := strings.Join(extractor.calls, ","); got != "chrome,edge,firefox" {
		t.Fatalf("fallback order = %s", got)
	}
	if _, err := os.Stat(result.JarPath); err != nil {
		t.Fatalf("jar not written: %v", err)
	}
}

func TestRenewStopsAtFirstSuccess(t *testing.T) {
	dir := t.TempDir()
	extractor := &fakeExtractor{
		results: map[string][]Record{
			"chrome": {{Domain: ".youtube.com", Path: "/", Name: "sid", Value: "a"}},
		},
	}
	svc := NewService(extractor, []string{"chrome", "edge", "firefox"}, jarPathFn(dir), nil)

	result, err := svc.Renew(context.Background(), source.YouTube)
	if err != nil {
		t.Fatalf("Renew: %v", err)
	}
	if result.Source != "Chrome" {
		t.Fatalf("result.Source = %q", result.Source)
	}
	if len(extractor.calls) != 1 {
		t.Fatalf("calls = %v, want only chrome", extractor.calls)
	}
}

func TestRenewSkipsEmptyExtraction(t *testing.T) {
	dir := t.TempDir()
	extractor := &fakeExtractor{
		results: map[string][]Record{
			"chrome": {},
			"edge":   {{Domain: ".youtube.com", Path: "/", Name: "sid", Value: "b"}},
		},
	}
	svc := NewService(extractor, []string{"chrome", "edge"}, jarPathFn(dir), nil)

	result, err := svc.Renew(context.Background(), source.YouTube)
	if err != nil {
		t.Fatalf("Renew: %v", err)
	}
	if result.Source != "Edge" {
		t.Fatalf("result.Source = %q", result.Source)
	}
}

func TestRenewAllBrowsersFail(t *testing.T) {
	dir := t.TempDir()
	extractor := &fakeExtractor{
		errs: map[string]error{
			"chrome":  errors.New("fail"),
			"edge":    errors.New("fail"),
			"firefox": errors.New("fail"),
		},
	}
	svc := NewService(extractor, []string{"chrome", "edge", "firefox"}, jarPathFn(dir), nil)

	if _, err := svc.Renew(context.Background(), source.YouTube); err == nil {
		t.Fatal("expected error when every browser fails")
	}
	if len(extractor.calls) != 3 {
		t.Fatalf("calls = %v, want all three browsers", extractor.calls)
	}
}
