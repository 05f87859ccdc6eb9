package models

import (
	"fmt"
	"strings"
	"time"
)

// Privacy is the visibility of an uploaded video.
type Privacy string

const (
	PrivacyPublic   Privacy = "public"
	PrivacyPrivate  Privacy = "private"
	PrivacyUnlisted Privacy = "unlisted"
)

// ParsePrivacy converts a user supplied string into a Privacy value.
func ParsePrivacy(s string) (Privacy, error) {
	switch p := Privacy(strings.ToLower(strings.TrimSpace(s))); p {
	case PrivacyPublic, PrivacyPrivate, PrivacyUnlisted:
		return p, nil
	default:
		return "", NewError(ErrInvalidArgument, "privacy",
			fmt.Errorf("invalid privacy %q, must be one of: public, private, unlisted", s))
	}
}

// UploadMetadata describes how a video is published.
//
// Title and Description may exceed the remote limits; the upload engine
// truncates them before transmission.
type UploadMetadata struct {
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	Tags              []string   `json:"tags,omitempty"`
	CategoryID        string     `json:"category_id,omitempty"`
	Privacy           Privacy    `json:"privacy"`
	PlaylistID        string     `json:"playlist_id,omitempty"`
	NotifySubscribers bool       `json:"notify_subscribers"`
	MadeForKids       bool       `json:"made_for_kids"`
	ThumbnailPath     string     `json:"thumbnail_path,omitempty"`
	PublishAt         *time.Time `json:"publish_at,omitempty"` // honored only when Privacy is private
}

// Clone returns a deep copy, so the engine can normalize without touching
// the caller's value.
func (m *UploadMetadata) Clone() *UploadMetadata {
	if m == nil {
		return &UploadMetadata{}
	}
	out := *m
	if m.Tags != nil {
		out.Tags = append([]string(nil), m.Tags...)
	}
	if m.PublishAt != nil {
		at := *m.PublishAt
		out.PublishAt = &at
	}
	return &out
}

// UploadResult is the outcome of an upload: either a remote video id and URL,
// or the reason the primary upload failed. It is always returned as a value.
//
// Warnings collects compensating-action failures (thumbnail, playlist) that
// did not invalidate a successful upload; each matches ErrPartialSuccess.
type UploadResult struct {
	VideoID  string  `json:"video_id,omitempty"`
	URL      string  `json:"url,omitempty"`
	Err      error   `json:"-"`
	Warnings []error `json:"-"`
}

// Succeeded reports whether the primary upload completed.
func (r *UploadResult) Succeeded() bool {
	return r != nil && r.Err == nil && r.VideoID != ""
}

// Partial reports whether the upload succeeded but a compensating action did not.
func (r *UploadResult) Partial() bool {
	return r.Succeeded() && len(r.Warnings) > 0
}

// Playlist is a playlist owned by the authenticated channel.
type Playlist struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	ItemCount  int64  `json:"item_count"`
	Visibility string `json:"visibility,omitempty"`
}

// ChannelInfo summarizes the authenticated channel.
type ChannelInfo struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	SubscriberCount uint64 `json:"subscriber_count"`
	VideoCount      uint64 `json:"video_count"`
}
