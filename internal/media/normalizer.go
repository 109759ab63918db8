package media

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"

	"github.com/rs/zerolog"

	"checklance/internal/domain"
	"checklance/internal/infra"
)

const (
	// maxFrameHeight bounds rasterized frames; width scales proportionally.
	maxFrameHeight = 640

	// frameQuality approximates JPEG quality 0.8 on ffmpeg's 1-100 scale.
	frameQuality = 80

	// leadNudge shifts every sample 0.1s forward to skip potential black
	// leading frames.
	leadNudge = 0.1

	ffmpegQScaleMin = 2
	ffmpegQScaleMax = 31
)

// CommandRunner executes an external command and returns its stdout. Tests
// substitute a fake so no ffmpeg binary is needed.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Options configures the Normalizer.
type Options struct {
	FFmpegPath  string
	FFprobePath string
	Runner      CommandRunner
	Logger      *infra.Logger
}

// Normalizer converts a user-supplied still image or video into the fixed
// representation the inference service accepts.
type Normalizer struct {
	ffmpeg  string
	ffprobe string
	run     CommandRunner
	logger  infra.Logger
}

// NewNormalizer constructs a Normalizer with sane defaults. A nil Runner
// executes real ffmpeg/ffprobe binaries.
func NewNormalizer(opts Options) *Normalizer {
	ffmpeg := opts.FFmpegPath
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	ffprobe := opts.FFprobePath
	if ffprobe == "" {
		ffprobe = "ffprobe"
	}
	run := opts.Runner
	if run == nil {
		run = execRunner
	}
	logger := zerolog.New(io.Discard)
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Normalizer{ffmpeg: ffmpeg, ffprobe: ffprobe, run: run, logger: logger}
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("%s: %s: %w", name, string(exitErr.Stderr), err)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// Normalize validates the asset and produces its normalized payload. The
// size ceiling is checked before any decode work, then the MIME category.
// Images pass through as base64 of the original bytes; videos are sampled
// into a fixed-length frame sequence.
func (n *Normalizer) Normalize(ctx context.Context, asset domain.MediaAsset) (*domain.NormalizedPayload, error) {
	if asset.Size > domain.MaxAssetBytes {
		return nil, fmt.Errorf("asset is %d bytes: %w", asset.Size, domain.ErrOversizedAsset)
	}
	kind, ok := asset.Kind()
	if !ok {
		return nil, fmt.Errorf("mime type %q: %w", asset.MIMEType, domain.ErrUnsupportedFormat)
	}

	if kind == domain.MediaKindImage {
		return &domain.NormalizedPayload{
			Kind:       domain.PayloadImage,
			JPEGBase64: base64.StdEncoding.EncodeToString(asset.Data),
		}, nil
	}

	frames, err := n.sampleFrames(ctx, asset)
	if err != nil {
		return nil, err
	}
	return &domain.NormalizedPayload{Kind: domain.PayloadFrames, Frames: frames}, nil
}

// SampleTimestamps computes the N evenly spaced sample times across the
// duration, each nudged forward and clamped to the actual duration. The
// result is non-decreasing; frame order downstream is temporal.
func SampleTimestamps(duration float64, n int) []float64 {
	ts := make([]float64, n)
	for i := 0; i < n; i++ {
		t := (duration/float64(n))*float64(i) + leadNudge
		if t > duration {
			t = duration
		}
		ts[i] = t
	}
	return ts
}

// probeMeta is the subset of ffprobe output the sampler needs.
type probeMeta struct {
	Duration float64
	Width    int
	Height   int
}

func (n *Normalizer) probe(ctx context.Context, path string) (probeMeta, error) {
	out, err := n.run(ctx, n.ffprobe,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-show_entries", "format=duration",
		"-of", "json",
		path,
	)
	if err != nil {
		return probeMeta{}, fmt.Errorf("probe: %v: %w", err, domain.ErrMediaLoad)
	}

	var parsed struct {
		Streams []struct {
			Width  int `json:"width"`
			Height int `json:"height"`
		} `json:"streams"`
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(out, &parsed); err != nil {
		return probeMeta{}, fmt.Errorf("probe output: %v: %w", err, domain.ErrMediaLoad)
	}
	if len(parsed.Streams) == 0 {
		return probeMeta{}, fmt.Errorf("no video stream: %w", domain.ErrMediaLoad)
	}
	duration, err := strconv.ParseFloat(parsed.Format.Duration, 64)
	if err != nil || duration <= 0 {
		return probeMeta{}, fmt.Errorf("duration %q: %w", parsed.Format.Duration, domain.ErrMediaLoad)
	}
	meta := probeMeta{Duration: duration, Width: parsed.Streams[0].Width, Height: parsed.Streams[0].Height}
	if meta.Width <= 0 || meta.Height <= 0 {
		return probeMeta{}, fmt.Errorf("dimensions %dx%d: %w", meta.Width, meta.Height, domain.ErrMediaLoad)
	}
	return meta, nil
}

// sampleFrames extracts the fixed frame sequence from a video. The temp file
// backing extraction is acquired once per call and removed on every exit
// path. Extraction is strictly sequential; any single failed seek aborts the
// whole normalization.
func (n *Normalizer) sampleFrames(ctx context.Context, asset domain.MediaAsset) ([]string, error) {
	tmp, err := os.CreateTemp("", "checklance-upload-*")
	if err != nil {
		return nil, fmt.Errorf("temp media file: %v: %w", err, domain.ErrMediaLoad)
	}
	path := tmp.Name()
	defer os.Remove(path)

	if _, err := tmp.Write(asset.Data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write media file: %v: %w", err, domain.ErrMediaLoad)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close media file: %v: %w", err, domain.ErrMediaLoad)
	}

	meta, err := n.probe(ctx, path)
	if err != nil {
		return nil, err
	}

	timestamps := SampleTimestamps(meta.Duration, domain.FrameCount)
	frames := make([]string, 0, len(timestamps))
	for i, ts := range timestamps {
		jpeg, err := n.extractFrame(ctx, path, ts, meta.Height)
		if err != nil {
			return nil, fmt.Errorf("frame %d at %.3fs: %v: %w", i, ts, err, domain.ErrMediaLoad)
		}
		frames = append(frames, base64.StdEncoding.EncodeToString(jpeg))
	}

	n.logger.Debug().
		Int("frames", len(frames)).
		Float64("duration", meta.Duration).
		Int("source_height", meta.Height).
		Msg("media: sampled video frames")

	return frames, nil
}

// extractFrame seeks to ts and rasterizes a single JPEG frame to stdout,
// downscaled so height never exceeds maxFrameHeight.
func (n *Normalizer) extractFrame(ctx context.Context, path string, ts float64, sourceHeight int) ([]byte, error) {
	args := []string{
		"-v", "error",
		"-ss", strconv.FormatFloat(ts, 'f', 3, 64),
		"-i", path,
		"-frames:v", "1",
	}
	if sourceHeight > maxFrameHeight {
		// -2 keeps the proportional width even for the encoder.
		args = append(args, "-vf", fmt.Sprintf("scale=-2:%d", maxFrameHeight))
	}
	args = append(args,
		"-f", "image2",
		"-vcodec", "mjpeg",
		"-q:v", strconv.Itoa(qualityToQScale(frameQuality)),
		"pipe:1",
	)

	out, err := n.run(ctx, n.ffmpeg, args...)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no frame data")
	}
	return out, nil
}

// qualityToQScale maps a 1-100 JPEG quality onto ffmpeg's inverted 2-31
// qscale range.
func qualityToQScale(quality int) int {
	if quality < 1 {
		quality = 1
	}
	if quality > 100 {
		quality = 100
	}
	return ffmpegQScaleMin + (100-quality)*(ffmpegQScaleMax-ffmpegQScaleMin)/99
}
