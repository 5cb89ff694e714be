// Package transcode turns raw downloaded or decrypted media into the target
// audio format via ffmpeg, embedding cover art where the container allows.
package transcode

import "fmt"

// Decision is the pure outcome of the format table: codec arguments,
// container, and cover-art policy for one transcode.
type Decision struct {
	// Format is the resolved target format name.
	Format string
	// Extension is the output file extension including the dot.
	Extension string
	// CodecArgs are the ffmpeg audio codec and container flags.
	CodecArgs []string
	// EmbedCover reports whether cover art is mapped into the output.
	EmbedCover bool
	// CoverDropped is set when the caller asked for cover art but the
	// container cannot carry an attached picture.
	CoverDropped bool
}

// FormatExtension maps a target format to its output extension.
func FormatExtension(format string) string {
	switch format {
	case "flac":
		return ".flac"
	case "mp3":
		return ".mp3"
	case "wav":
		return ".wav"
	case "ogg":
		return ".ogg"
	default:
		return ".m4a"
	}
}

// Decide resolves the format table for one item. An empty target picks
// lossless ALAC for hi-res sources and 320k AAC otherwise. ALAC encodes
// 32-bit planar above 48 kHz and 16-bit planar at or below; FLAC drops to
// 16-bit at or below 48 kHz. Cover art is suppressed for wav and ogg
// regardless of preference.
func Decide(target string, sampleRate int, keepCover bool) (Decision, error) {
	hiRes := sampleRate > 48000

	if target == "" {
		if hiRes {
			target = "alac"
		} else {
			target = "aac"
		}
	}

	decision := Decision{Format: target, Extension: FormatExtension(target)}
	switch target {
	case "aac":
		decision.CodecArgs = []string{"-c:a", "aac", "-b:a", "320k", "-ac", "2", "-f", "ipod"}
	case "alac":
		decision.CodecArgs = []string{"-c:a", "alac", "-f", "ipod"}
		if hiRes {
			decision.CodecArgs = append(decision.CodecArgs, "-sample_fmt", "s32p")
		} else {
			decision.CodecArgs = append(decision.CodecArgs, "-sample_fmt", "s16p")
		}
	case "flac":
		decision.CodecArgs = []string{"-c:a", "flac"}
		if !hiRes {
			decision.CodecArgs = append(decision.CodecArgs, "-sample_fmt", "s16")
		}
	case "mp3":
		decision.CodecArgs = []string{"-c:a", "libmp3lame", "-q:a", "0"}
	case "wav":
		decision.CodecArgs = []string{"-c:a", "pcm_s16le", "-f", "wav"}
	case "ogg":
		decision.CodecArgs = []string{"-c:a", "libvorbis", "-q:a", "6"}
	default:
		return Decision{}, fmt.Errorf("unknown target format %q", target)
	}

	if keepCover {
		if target == "wav" || target == "ogg" {
			decision.CoverDropped = true
		} else {
			decision.EmbedCover = true
		}
	}
	return decision, nil
}
