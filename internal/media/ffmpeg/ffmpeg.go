package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Canonical stream parameters. Normalizing every input to this one format up
// front turns concatenation into a pure byte-level join instead of an
// on-the-fly resample, which avoids audible artifacts from mismatched sample
// rates.
const (
	canonicalChannels   = "1"
	canonicalSampleRate = "44100"
	canonicalCodec      = "pcm_s16le"
)

var (
	// ErrNormalization marks a failed transcode of one input.
	ErrNormalization = errors.New("normalization failed")
	// ErrConcatenation marks a failed join of normalized streams.
	ErrConcatenation = errors.New("concatenation failed")
)

// Normalize transcodes an arbitrary staged input into the canonical
// mono/44.1kHz/16-bit PCM WAV representation at outputPath. Failures carry
// the tool's diagnostic text.
func Normalize(ctx context.Context, binary, inputPath, outputPath string) error {
	binary = resolveBinary(binary)
	cmd := exec.CommandContext(ctx, binary,
		"-hide_banner", "-v", "error",
		"-y",
		"-i", inputPath,
		"-ac", canonicalChannels,
		"-ar", canonicalSampleRate,
		"-acodec", canonicalCodec,
		"-f", "wav",
		outputPath,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s: %s", ErrNormalization, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Concat joins the already-canonical inputs, in the order given, into one
// continuous WAV at outputPath. The concat list is written to listPath, which
// the caller stages and tracks. No gaps, fades, or resampling are applied.
func Concat(ctx context.Context, binary string, inputs []string, listPath, outputPath string) error {
	if len(inputs) == 0 {
		return fmt.Errorf("%w: no inputs", ErrConcatenation)
	}

	if err := writeConcatList(listPath, inputs); err != nil {
		return fmt.Errorf("%w: %s", ErrConcatenation, err)
	}

	binary = resolveBinary(binary)
	cmd := exec.CommandContext(ctx, binary,
		"-hide_banner", "-v", "error",
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		outputPath,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s: %s", ErrConcatenation, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func resolveBinary(binary string) string {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return "ffmpeg"
	}
	return binary
}

// writeConcatList emits the concat demuxer directive file. Single quotes in
// paths use the demuxer's escape form.
func writeConcatList(listPath string, inputs []string) error {
	var b strings.Builder
	for _, input := range inputs {
		escaped := strings.ReplaceAll(input, "'", `'\''`)
		fmt.Fprintf(&b, "file '%s'\n", escaped)
	}
	return os.WriteFile(listPath, []byte(b.String()), 0o644)
}
