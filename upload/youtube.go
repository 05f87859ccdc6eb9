package upload

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"tubeforge/models"
)

const (
	// DefaultChunkSize is the size of each resumable upload request.
	DefaultChunkSize = 8 << 20

	// DefaultRetryDeadline bounds how long a failing chunk is retried.
	DefaultRetryDeadline = 2 * time.Minute
)

// YouTubeOption configures a YouTube client.
type YouTubeOption func(*YouTube)

// WithEndpoint points the client at another API root, e.g. a test server.
func WithEndpoint(endpoint string) YouTubeOption {
	return func(y *YouTube) {
		y.endpoint = strings.TrimRight(endpoint, "/") + "/"
	}
}

// WithChunkSize sets the upload chunk size. The client rounds it up to the
// protocol's 256 KiB granularity.
func WithChunkSize(n int64) YouTubeOption {
	return func(y *YouTube) {
		if n > 0 {
			y.chunkSize = n
		}
	}
}

// WithRetryDeadline bounds how long a chunk is retried after a transport
// error or a 5xx response.
func WithRetryDeadline(d time.Duration) YouTubeOption {
	return func(y *YouTube) {
		if d > 0 {
			y.retryDeadline = d
		}
	}
}

// YouTube implements Service over the YouTube Data API v3.
type YouTube struct {
	svc           *youtube.Service
	endpoint      string
	chunkSize     int64
	retryDeadline time.Duration
}

// NewYouTube creates a client. client must authorize its requests, see
// Credentials.HTTPClient.
func NewYouTube(ctx context.Context, client *http.Client, opts ...YouTubeOption) (*YouTube, error) {
	y := &YouTube{
		chunkSize:     DefaultChunkSize,
		retryDeadline: DefaultRetryDeadline,
	}
	for _, opt := range opts {
		opt(y)
	}

	clientOpts := []option.ClientOption{option.WithHTTPClient(client)}
	if y.endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(y.endpoint))
	}
	svc, err := youtube.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, models.NewError(models.ErrInvalidArgument, "connect", err)
	}
	y.svc = svc
	return y, nil
}

// YouTubeConnector returns a Connector that authorizes with OAuth2
// credentials and talks to the YouTube Data API.
func YouTubeConnector(opts ...YouTubeOption) Connector {
	return func(ctx context.Context, creds Credentials) (Service, error) {
		client, err := creds.HTTPClient(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		return NewYouTube(ctx, client, opts...)
	}
}

// InsertVideo runs a resumable upload of media. The client library retries
// transient chunk failures until the retry deadline.
func (y *YouTube) InsertVideo(ctx context.Context, meta *models.UploadMetadata, media io.Reader, size int64, progress func(sent, total int64)) (string, error) {
	if size <= 0 {
		return "", models.NewError(models.ErrInvalidArgument, "upload", errors.New("media is empty"))
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       meta.Title,
			Description: meta.Description,
			Tags:        meta.Tags,
			CategoryId:  meta.CategoryID,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           string(meta.Privacy),
			SelfDeclaredMadeForKids: meta.MadeForKids,
			ForceSendFields:         []string{"SelfDeclaredMadeForKids"},
		},
	}
	if meta.PublishAt != nil {
		video.Status.PublishAt = meta.PublishAt.UTC().Format(time.RFC3339)
	}

	call := y.svc.Videos.Insert([]string{"snippet", "status"}, video).
		NotifySubscribers(meta.NotifySubscribers).
		Media(media,
			googleapi.ChunkSize(int(y.chunkSize)),
			googleapi.ChunkRetryDeadline(y.retryDeadline)).
		Context(ctx)
	if progress != nil {
		call = call.ProgressUpdater(func(current, _ int64) {
			progress(current, size)
		})
	}

	res, err := call.Do()
	if err != nil {
		return "", apiError(ctx, "upload", err)
	}
	if res.Id == "" {
		return "", models.NewError(models.ErrRemoteRejected, "upload", errors.New("response carries no video id"))
	}
	return res.Id, nil
}

// SetThumbnail uploads image as the video's thumbnail. The content type is
// sniffed from the image.
func (y *YouTube) SetThumbnail(ctx context.Context, videoID string, image io.Reader) error {
	_, err := y.svc.Thumbnails.Set(videoID).Media(image).Context(ctx).Do()
	if err != nil {
		return apiError(ctx, "thumbnail", err)
	}
	return nil
}

// InsertPlaylistItem appends videoID to playlistID.
func (y *YouTube) InsertPlaylistItem(ctx context.Context, playlistID, videoID string) error {
	item := &youtube.PlaylistItem{
		Snippet: &youtube.PlaylistItemSnippet{
			PlaylistId: playlistID,
			ResourceId: &youtube.ResourceId{Kind: "youtube#video", VideoId: videoID},
		},
	}
	if _, err := y.svc.PlaylistItems.Insert([]string{"snippet"}, item).Context(ctx).Do(); err != nil {
		return apiError(ctx, "playlist", err)
	}
	return nil
}

// ListPlaylists pages through the channel's playlists.
func (y *YouTube) ListPlaylists(ctx context.Context) ([]models.Playlist, error) {
	var out []models.Playlist
	err := y.svc.Playlists.List([]string{"snippet", "contentDetails", "status"}).
		Mine(true).
		MaxResults(50).
		Pages(ctx, func(page *youtube.PlaylistListResponse) error {
			for _, p := range page.Items {
				pl := models.Playlist{ID: p.Id}
				if p.Snippet != nil {
					pl.Title = p.Snippet.Title
				}
				if p.ContentDetails != nil {
					pl.ItemCount = p.ContentDetails.ItemCount
				}
				if p.Status != nil {
					pl.Visibility = p.Status.PrivacyStatus
				}
				out = append(out, pl)
			}
			return nil
		})
	if err != nil {
		return nil, apiError(ctx, "playlists", err)
	}
	return out, nil
}

// ChannelInfo returns the authenticated channel.
func (y *YouTube) ChannelInfo(ctx context.Context) (*models.ChannelInfo, error) {
	res, err := y.svc.Channels.List([]string{"snippet", "statistics"}).Mine(true).Context(ctx).Do()
	if err != nil {
		return nil, apiError(ctx, "channel", err)
	}
	if len(res.Items) == 0 {
		return nil, models.NewError(models.ErrNotFound, "channel", errors.New("no channel for these credentials"))
	}

	ch := res.Items[0]
	info := &models.ChannelInfo{ID: ch.Id}
	if ch.Snippet != nil {
		info.Title = ch.Snippet.Title
	}
	if ch.Statistics != nil {
		info.SubscriberCount = ch.Statistics.SubscriberCount
		info.VideoCount = ch.Statistics.VideoCount
	}
	return info, nil
}

// apiError maps a client error into the models taxonomy. Error responses
// are ErrRemoteRejected. 5xx responses and transport errors are
// ErrNetworkFailure. Only the caller's ctx makes an error ErrCancelled.
func apiError(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return models.NewError(models.ErrCancelled, op, err)
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Code >= http.StatusInternalServerError {
			return models.NewError(models.ErrNetworkFailure, op, err)
		}
		return models.NewError(models.ErrRemoteRejected, op, err)
	}
	return models.NewError(models.ErrNetworkFailure, op, err)
}

var _ Service = (*YouTube)(nil)
