package models

import (
	"strings"
	"time"
)

type MediaKind string

const (
	KindAudio MediaKind = "audio"
	KindVideo MediaKind = "video"
)

// Partition returns the per-user collection name backing this kind.
func (k MediaKind) Partition() string { return string(k) + "_files" }

func (k MediaKind) Valid() bool { return k == KindAudio || k == KindVideo }

// KindForContentType derives the partition from the MIME prefix.
// Exactly one of audio/video applies; anything else is rejected upstream.
func KindForContentType(contentType string) (MediaKind, bool) {
	switch {
	case strings.HasPrefix(contentType, "audio/"):
		return KindAudio, true
	case strings.HasPrefix(contentType, "video/"):
		return KindVideo, true
	default:
		return "", false
	}
}

// UploadRecord is one user-submitted media asset. The id is assigned by the
// store on insert and written back onto the record.
type UploadRecord struct {
	ID               string    `bson:"_id,omitempty" json:"id"`
	OriginalFilename string    `bson:"original_filename" json:"original_filename"`
	Filename         string    `bson:"filename" json:"filename"`
	ContentType      string    `bson:"content_type" json:"content_type"`
	FileURL          string    `bson:"file_url" json:"file_url"`
	UploadTimestamp  time.Time `bson:"upload_timestamp" json:"upload_timestamp"`
	UserID           string    `bson:"user_id" json:"user_id"`
	TextID           string    `bson:"text_id,omitempty" json:"text_id,omitempty"`
	Rating           int       `bson:"rating,omitempty" json:"rating,omitempty"` // 1-5
}

func (r *UploadRecord) Kind() (MediaKind, bool) {
	return KindForContentType(r.ContentType)
}

// AllFiles is the union view over both partitions.
type AllFiles struct {
	AudioFiles []UploadRecord `json:"audio_files"`
	VideoFiles []UploadRecord `json:"video_files"`
}
