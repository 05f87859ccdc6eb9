// Package upload publishes encoded videos to a remote video platform through
// a resumable, chunked upload session.
//
// Engine owns the session and enforces the publishing contract (metadata
// limits, best-effort thumbnail and playlist steps). Service is the transport
// underneath it; YouTube implements it against the YouTube Data API v3.
package upload

import (
	"context"
	"io"

	"tubeforge/models"
)

// Service is an authenticated connection to the platform.
//
// Implementations return errors from the models taxonomy: ErrRemoteRejected
// for protocol-level error responses, ErrNetworkFailure for transport errors,
// ErrCancelled when ctx ends the call.
type Service interface {
	// InsertVideo uploads media of size bytes with meta and returns the
	// assigned video id. progress is called after every acknowledged chunk
	// with the bytes the server has confirmed.
	InsertVideo(ctx context.Context, meta *models.UploadMetadata, media io.Reader, size int64, progress func(sent, total int64)) (string, error)

	// SetThumbnail replaces the thumbnail of videoID.
	SetThumbnail(ctx context.Context, videoID string, image io.Reader) error

	// InsertPlaylistItem appends videoID to playlistID.
	InsertPlaylistItem(ctx context.Context, playlistID, videoID string) error

	// ListPlaylists returns the playlists of the authenticated channel.
	ListPlaylists(ctx context.Context) ([]models.Playlist, error)

	// ChannelInfo returns the authenticated channel.
	ChannelInfo(ctx context.Context) (*models.ChannelInfo, error)
}

// Connector opens a Service for the given credentials.
type Connector func(ctx context.Context, creds Credentials) (Service, error)
