package transcode

import (
	"strings"
	"testing"
)

func argsContain(args []string, wanted string) bool {
	return strings.Contains(strings.Join(args, " "), wanted)
}

func TestDecideAutoPicksBySampleRate(t *testing.T) {
	hiRes, err := Decide("", 96000, true)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if hiRes.Format != "alac" {
		t.Fatalf("format = %q, want alac", hiRes.Format)
	}
	if !argsContain(hiRes.CodecArgs, "-sample_fmt s32p") {
		t.Fatalf("hi-res alac should be 32-bit planar: %v", hiRes.CodecArgs)
	}

	standard, err := Decide("", 48000, true)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if standard.Format != "aac" {
		t.Fatalf("format = %q, want aac", standard.Format)
	}
	if !argsContain(standard.CodecArgs, "-b:a 320k") {
		t.Fatalf("aac args = %v", standard.CodecArgs)
	}
}

func TestDecideAlacHiResIs32BitPlanar(t *testing.T) {
	explicit, err := Decide("alac", 96000, false)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if !argsContain(explicit.CodecArgs, "-sample_fmt s32p") {
		t.Fatalf("hi-res alac args = %v, want -sample_fmt s32p", explicit.CodecArgs)
	}

	auto, err := Decide("", 96000, false)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if !argsContain(auto.CodecArgs, "-sample_fmt s32p") {
		t.Fatalf("auto hi-res args = %v, want -sample_fmt s32p", auto.CodecArgs)
	}
}

func TestDecideAlacStandardRateIs16Bit(t *testing.T) {
	decision, err := Decide("alac", 44100, true)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if decision.Extension != ".m4a" {
		t.Fatalf("extension = %q", decision.Extension)
	}
	if !argsContain(decision.CodecArgs, "-f ipod") {
		t.Fatalf("alac args missing ipod container: %v", decision.CodecArgs)
	}
	if !argsContain(decision.CodecArgs, "-sample_fmt s16p") {
		t.Fatalf("44.1k alac should be 16-bit: %v", decision.CodecArgs)
	}
	if !decision.EmbedCover || decision.CoverDropped {
		t.Fatalf("m4a should carry cover art: %#v", decision)
	}
}

func TestDecideFlacHiResKeepsDepth(t *testing.T) {
	decision, err := Decide("flac", 96000, false)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if argsContain(decision.CodecArgs, "s16") {
		t.Fatalf("hi-res flac should not force 16-bit: %v", decision.CodecArgs)
	}

	standard, err := Decide("flac", 44100, false)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if !argsContain(standard.CodecArgs, "-sample_fmt s16") {
		t.Fatalf("44.1k flac should force 16-bit: %v", standard.CodecArgs)
	}
}

func TestDecideCoverDroppedForWavAndOgg(t *testing.T) {
	for _, format := range []string{"wav", "ogg"} {
		decision, err := Decide(format, 44100, true)
		if err != nil {
			t.Fatalf("Decide(%s): %v", format, err)
		}
		if decision.EmbedCover {
			t.Fatalf("%s must not embed cover art", format)
		}
		if !decision.CoverDropped {
			t.Fatalf("%s should report the dropped cover", format)
		}
	}

	// Without a cover request nothing is dropped.
	decision, err := Decide("ogg", 44100, false)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if decision.CoverDropped {
		t.Fatal("no cover requested, nothing to drop")
	}
}

func TestDecideLossyArgs(t *testing.T) {
	mp3, err := Decide("mp3", 44100, false)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if !argsContain(mp3.CodecArgs, "libmp3lame -q:a 0") {
		t.Fatalf("mp3 args = %v", mp3.CodecArgs)
	}

	ogg, err := Decide("ogg", 44100, false)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if !argsContain(ogg.CodecArgs, "libvorbis -q:a 6") {
		t.Fatalf("ogg args = %v", ogg.CodecArgs)
	}

	wav, err := Decide("wav", 96000, false)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if !argsContain(wav.CodecArgs, "pcm_s16le") {
		t.Fatalf("wav args = %v", wav.CodecArgs)
	}
}

func TestDecideUnknownFormat(t *testing.T) {
	if _, err := Decide("opus", 44100, false); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
