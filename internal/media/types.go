// Package media defines shared types for the playbook ingestion pipeline.
package media

// Platform identifies the social platform a source URL belongs to.
type Platform int

const (
	Unsupported Platform = iota
	YouTube
	Instagram
	Facebook
	X
)

func (p Platform) String() string {
	switch p {
	case YouTube:
		return "youtube"
	case Instagram:
		return "instagram"
	case Facebook:
		return "facebook"
	case X:
		return "x"
	default:
		return "unsupported"
	}
}

// Platforms lists every platform that has an extractor.
var Platforms = []Platform{YouTube, Instagram, Facebook, X}

// Extraction is what a platform extractor resolved for one source URL.
// Exactly one of MediaURL or Data is set.
type Extraction struct {
	MediaURL    string // direct, streamable media URL
	Data        []byte // media bytes already held in memory
	FileName    string // name of the media on its platform, for logs
	ContentType string // MIME type if the platform reported one
}

// Remote reports whether the media still has to be downloaded.
func (e *Extraction) Remote() bool {
	return e.MediaURL != ""
}

// StagedFile is a downloaded media file held in the staging area for the
// duration of a single ingestion.
type StagedFile struct {
	Path string // path relative to the staging filesystem
	Size int64  // bytes written
}

// UploadResult is the location of an object after upload.
type UploadResult struct {
	URL string `json:"url"` // public URL
	Key string `json:"key"` // storage key
}
