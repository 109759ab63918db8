package domain

import "strings"

// MaxAssetBytes caps uploads at 50 MiB. The check happens before any decode
// work so oversized files are rejected cheaply.
const MaxAssetBytes = 50 * 1024 * 1024

// FrameCount is the fixed number of frames sampled from a video.
const FrameCount = 8

// MediaKind categorizes a user upload.
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

// MediaAsset is the user's selected input. It is replaced wholesale on
// re-selection and discarded on reset or normalization failure.
type MediaAsset struct {
	Data     []byte
	MIMEType string
	Size     int64
}

// Kind derives the media category from the declared MIME type. Anything
// outside image/* and video/* is unsupported.
func (a MediaAsset) Kind() (MediaKind, bool) {
	switch {
	case strings.HasPrefix(a.MIMEType, "image/"):
		return MediaKindImage, true
	case strings.HasPrefix(a.MIMEType, "video/"):
		return MediaKindVideo, true
	default:
		return "", false
	}
}

// PayloadKind tags the two NormalizedPayload shapes.
type PayloadKind string

const (
	PayloadImage  PayloadKind = "image"
	PayloadFrames PayloadKind = "frames"
)

// NormalizedPayload is the fixed representation the inference service
// accepts: one base64 JPEG for an image, or an ordered sequence of base64
// JPEG frames sampled from a video. Frames are in ascending timestamp order;
// downstream consumers rely on that for play-progression semantics. Every
// element is bare base64 with no data-URL prefix.
type NormalizedPayload struct {
	Kind       PayloadKind
	JPEGBase64 string
	Frames     []string
}

// Parts returns the base64 payloads in temporal order regardless of kind.
func (p NormalizedPayload) Parts() []string {
	if p.Kind == PayloadImage {
		return []string{p.JPEGBase64}
	}
	return p.Frames
}
