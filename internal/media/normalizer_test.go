package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"testing"

	"checklance/internal/domain"
)

type runnerCall struct {
	name string
	args []string
}

func fakeProbeOutput(duration float64, width, height int) []byte {
	return []byte(fmt.Sprintf(
		`{"streams":[{"width":%d,"height":%d}],"format":{"duration":"%.6f"}}`,
		width, height, duration,
	))
}

func recordingRunner(calls *[]runnerCall, probeOut []byte, frameOut []byte) CommandRunner {
	return func(ctx context.Context, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, runnerCall{name: name, args: args})
		if strings.Contains(name, "ffprobe") {
			return probeOut, nil
		}
		return frameOut, nil
	}
}

func argValue(args []string, flag string) (string, bool) {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1], true
		}
	}
	return "", false
}

func TestNormalizeRejectsOversizedBeforeAnyWork(t *testing.T) {
	var calls []runnerCall
	n := NewNormalizer(Options{Runner: recordingRunner(&calls, nil, nil)})

	asset := domain.MediaAsset{MIMEType: "video/mp4", Size: domain.MaxAssetBytes + 1}
	_, err := n.Normalize(context.Background(), asset)
	if !errors.Is(err, domain.ErrOversizedAsset) {
		t.Fatalf("err = %v, want ErrOversizedAsset", err)
	}
	if len(calls) != 0 {
		t.Fatalf("expected no decode work, got %d command calls", len(calls))
	}
}

func TestNormalizeRejectsUnsupportedMIME(t *testing.T) {
	n := NewNormalizer(Options{Runner: func(context.Context, string, ...string) ([]byte, error) {
		t.Fatal("runner must not be invoked")
		return nil, nil
	}})

	asset := domain.MediaAsset{MIMEType: "application/pdf", Size: 100, Data: []byte("pdf")}
	_, err := n.Normalize(context.Background(), asset)
	if !errors.Is(err, domain.ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestNormalizeImagePassThrough(t *testing.T) {
	raw := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x01, 0x02}
	n := NewNormalizer(Options{Runner: func(context.Context, string, ...string) ([]byte, error) {
		t.Fatal("image path must not shell out")
		return nil, nil
	}})

	payload, err := n.Normalize(context.Background(), domain.MediaAsset{
		MIMEType: "image/jpeg",
		Size:     int64(len(raw)),
		Data:     raw,
	})
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if payload.Kind != domain.PayloadImage {
		t.Fatalf("Kind = %q, want %q", payload.Kind, domain.PayloadImage)
	}
	if strings.ContainsAny(payload.JPEGBase64, ",:;") {
		t.Fatalf("payload carries data-URL artifacts: %q", payload.JPEGBase64)
	}
	decoded, err := base64.StdEncoding.DecodeString(payload.JPEGBase64)
	if err != nil {
		t.Fatalf("payload is not valid base64: %v", err)
	}
	if string(decoded) != string(raw) {
		t.Fatal("image bytes were re-encoded; expected pass-through")
	}
}

func TestSampleTimestampsFormula(t *testing.T) {
	got := SampleTimestamps(10, 8)
	want := []float64{0.1, 1.35, 2.6, 3.85, 5.1, 6.35, 7.6, 8.85}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Fatalf("t[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i] < got[i-1] {
			t.Fatalf("timestamps decrease at %d: %v < %v", i, got[i], got[i-1])
		}
	}
}

func TestSampleTimestampsClampsToDuration(t *testing.T) {
	for _, ts := range SampleTimestamps(0.05, 8) {
		if ts > 0.05 {
			t.Fatalf("timestamp %v exceeds duration", ts)
		}
	}
}

func TestNormalizeVideoSamplesEightFramesInOrder(t *testing.T) {
	var calls []runnerCall
	frameData := []byte{0xFF, 0xD8, 0xFF, 0xDB, 0x00}
	n := NewNormalizer(Options{
		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",
		Runner:      recordingRunner(&calls, fakeProbeOutput(10, 1280, 720), frameData),
	})

	payload, err := n.Normalize(context.Background(), domain.MediaAsset{
		MIMEType: "video/mp4",
		Size:     2048,
		Data:     []byte("mp4-bytes"),
	})
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if payload.Kind != domain.PayloadFrames {
		t.Fatalf("Kind = %q, want %q", payload.Kind, domain.PayloadFrames)
	}
	if len(payload.Frames) != domain.FrameCount {
		t.Fatalf("frames = %d, want %d", len(payload.Frames), domain.FrameCount)
	}
	for i, frame := range payload.Frames {
		decoded, err := base64.StdEncoding.DecodeString(frame)
		if err != nil {
			t.Fatalf("frame %d not valid base64: %v", i, err)
		}
		if string(decoded) != string(frameData) {
			t.Fatalf("frame %d bytes mismatch", i)
		}
	}

	// One probe followed by eight sequential extractions.
	if len(calls) != 1+domain.FrameCount {
		t.Fatalf("command calls = %d, want %d", len(calls), 1+domain.FrameCount)
	}
	if calls[0].name != "ffprobe" {
		t.Fatalf("first call = %q, want ffprobe", calls[0].name)
	}
	want := []float64{0.1, 1.35, 2.6, 3.85, 5.1, 6.35, 7.6, 8.85}
	for i, call := range calls[1:] {
		if call.name != "ffmpeg" {
			t.Fatalf("call %d = %q, want ffmpeg", i+1, call.name)
		}
		ssRaw, ok := argValue(call.args, "-ss")
		if !ok {
			t.Fatalf("call %d missing -ss", i+1)
		}
		ss, err := strconv.ParseFloat(ssRaw, 64)
		if err != nil {
			t.Fatalf("call %d -ss %q: %v", i+1, ssRaw, err)
		}
		if math.Abs(ss-want[i]) > 1e-3 {
			t.Fatalf("call %d seeks to %v, want %v", i+1, ss, want[i])
		}
		vf, ok := argValue(call.args, "-vf")
		if !ok || vf != "scale=-2:640" {
			t.Fatalf("call %d vf = %q, want scale=-2:640", i+1, vf)
		}
	}
}

func TestNormalizeVideoSkipsScalingForShortFrames(t *testing.T) {
	var calls []runnerCall
	n := NewNormalizer(Options{Runner: recordingRunner(&calls, fakeProbeOutput(4, 854, 480), []byte{0xFF, 0xD8})})

	_, err := n.Normalize(context.Background(), domain.MediaAsset{
		MIMEType: "video/mp4",
		Size:     1024,
		Data:     []byte("mp4"),
	})
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	for i, call := range calls[1:] {
		if _, ok := argValue(call.args, "-vf"); ok {
			t.Fatalf("call %d applies scaling to a 480p source", i+1)
		}
	}
}

func TestNormalizeVideoProbeFailure(t *testing.T) {
	n := NewNormalizer(Options{Runner: func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("moov atom not found")
	}})

	_, err := n.Normalize(context.Background(), domain.MediaAsset{
		MIMEType: "video/mp4",
		Size:     512,
		Data:     []byte("not-a-video"),
	})
	if !errors.Is(err, domain.ErrMediaLoad) {
		t.Fatalf("err = %v, want ErrMediaLoad", err)
	}
}

func TestNormalizeVideoAbortsOnSingleFrameFailure(t *testing.T) {
	var ffmpegCalls int
	runner := func(ctx context.Context, name string, args ...string) ([]byte, error) {
		if strings.Contains(name, "ffprobe") {
			return fakeProbeOutput(8, 1920, 1080), nil
		}
		ffmpegCalls++
		if ffmpegCalls == 3 {
			return nil, errors.New("decode error")
		}
		return []byte{0xFF, 0xD8}, nil
	}
	n := NewNormalizer(Options{Runner: runner})

	_, err := n.Normalize(context.Background(), domain.MediaAsset{
		MIMEType: "video/quicktime",
		Size:     1024,
		Data:     []byte("mov"),
	})
	if !errors.Is(err, domain.ErrMediaLoad) {
		t.Fatalf("err = %v, want ErrMediaLoad", err)
	}
	// No retry on a failed seek: the loop stops at the failing frame.
	if ffmpegCalls != 3 {
		t.Fatalf("ffmpeg calls = %d, want 3", ffmpegCalls)
	}
}

func TestQualityToQScale(t *testing.T) {
	if q := qualityToQScale(100); q != ffmpegQScaleMin {
		t.Fatalf("qscale(100) = %d, want %d", q, ffmpegQScaleMin)
	}
	if q := qualityToQScale(1); q != ffmpegQScaleMax {
		t.Fatalf("qscale(1) = %d, want %d", q, ffmpegQScaleMax)
	}
	if q := qualityToQScale(frameQuality); q < ffmpegQScaleMin || q > ffmpegQScaleMax {
		t.Fatalf("qscale(%d) = %d out of range", frameQuality, q)
	}
}
