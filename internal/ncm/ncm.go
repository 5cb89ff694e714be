// Package ncm decrypts NetEase .ncm files through an external decryptor and
// converts the result into the target audio format.
package ncm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"weir/internal/fileutil"
	"weir/internal/logging"
	"weir/internal/services"
	"weir/internal/source"
	"weir/internal/transcode"
)

// decryptedExtensions are probed in order after the decryptor runs. The
// decryptor picks the container itself, so the output extension is unknown
// up front.
var decryptedExtensions = []string{".flac", ".mp3", ".m4a", ".wav", ".ogg"}

// Transcoder converts a decrypted artifact.
type Transcoder interface {
	Transcode(ctx context.Context, req transcode.Request) (transcode.Result, error)
}

// Result reports one decrypted item.
type Result struct {
	// Output is the final audio file.
	Output string
	// Passthrough is set when the decrypted file was kept as-is.
	Passthrough bool
}

// Worker decrypts and converts .ncm files one at a time.
type Worker struct {
	decryptorBinary string
	transcoder      Transcoder
	outputDir       string
	targetFormat    string
	keepCover       bool
	logger          *slog.Logger
}

// NewWorker wires an NCM worker. targetFormat may be empty, which keeps mp3
// output untouched and converts everything else to ALAC.
func NewWorker(decryptorBinary string, transcoder Transcoder, outputDir, targetFormat string, keepCover bool, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Worker{
		decryptorBinary: decryptorBinary,
		transcoder:      transcoder,
		outputDir:       outputDir,
		targetFormat:    targetFormat,
		keepCover:       keepCover,
		logger:          logger,
	}
}

// Process decrypts one .ncm file into the output directory and converts it.
// The staged copy of the encrypted file is always discarded.
func (w *Worker) Process(ctx context.Context, ncmPath string) (Result, error) {
	fileName := filepath.Base(ncmPath)
	if !strings.EqualFold(filepath.Ext(fileName), ".ncm") {
		return Result{}, services.Wrap(services.ErrExternalTool, "decrypt", "stage",
			fmt.Sprintf("%s is not an .ncm file", fileName), nil)
	}
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return Result{}, services.Wrap(services.ErrExternalTool, "decrypt", "stage", "create output directory", err)
	}

	// The decryptor writes its output next to its input, so work on a
	// staged copy inside the output directory.
	staged := filepath.Join(w.outputDir, fileName)
	if err := fileutil.CopyFile(ncmPath, staged); err != nil {
		return Result{}, services.Wrap(services.ErrExternalTool, "decrypt", "stage", "copy encrypted file", err)
	}

	w.logger.Info("decrypting", logging.String("file", fileName))
	cmd := exec.CommandContext(ctx, w.decryptorBinary, staged)
	output, runErr := cmd.CombinedOutput()
	fileutil.RemoveQuietly(staged)
	if runErr != nil {
		detail := strings.TrimSpace(string(output))
		return Result{}, services.Wrap(services.ErrExternalTool, "decrypt", "ncmdump", detail, runErr)
	}

	decrypted := w.findDecrypted(fileName)
	if decrypted == "" {
		return Result{}, services.Wrap(services.ErrExternalTool, "decrypt", "ncmdump",
			fmt.Sprintf("no decrypted output found for %s: %s", fileName, strings.TrimSpace(string(output))), nil)
	}
	w.logger.Info("decrypted", logging.String("file", filepath.Base(decrypted)))

	return w.convert(ctx, decrypted)
}

// findDecrypted locates the decryptor's output: first an exact stem match,
// then a substring scan for decryptors that tweak the name.
func (w *Worker) findDecrypted(fileName string) string {
	stem := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	for _, ext := range decryptedExtensions {
		candidate := filepath.Join(w.outputDir, stem+ext)
		if fileutil.Exists(candidate) {
			return candidate
		}
	}

	entries, err := os.ReadDir(w.outputDir)
	if err != nil {
		return ""
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.Contains(name, stem) {
			continue
		}
		for _, ext := range decryptedExtensions {
			if strings.HasSuffix(strings.ToLower(name), ext) {
				return filepath.Join(w.outputDir, name)
			}
		}
	}
	return ""
}

func (w *Worker) convert(ctx context.Context, decrypted string) (Result, error) {
	ext := strings.ToLower(filepath.Ext(decrypted))

	target := w.targetFormat
	if target == "" {
		// Default policy: mp3 passes through, everything else becomes ALAC.
		if ext == ".mp3" {
			w.logger.Info("keeping mp3 as-is", logging.String("file", filepath.Base(decrypted)))
			return Result{Output: decrypted, Passthrough: true}, nil
		}
		target = "alac"
	}

	if transcode.FormatExtension(target) == ext {
		return Result{Output: decrypted, Passthrough: true}, nil
	}

	output := strings.TrimSuffix(decrypted, filepath.Ext(decrypted)) + transcode.FormatExtension(target)
	result, err := w.transcoder.Transcode(ctx, transcode.Request{
		Input:              decrypted,
		Output:             output,
		MapSourceCover:     true,
		Target:             target,
		KeepCover:          w.keepCover,
		FallbackSampleRate: source.Netease.FallbackSampleRate,
	})
	if err != nil {
		return Result{}, err
	}
	fileutil.RemoveQuietly(decrypted)
	return Result{Output: result.Output}, nil
}
