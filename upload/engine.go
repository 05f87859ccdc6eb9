package upload

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"tubeforge/models"
)

// VideoURLFormat turns a video id into its public watch URL.
const VideoURLFormat = "https://www.youtube.com/watch?v=%s"

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger.With().Str("component", "upload").Logger()
	}
}

// Engine holds one authenticated upload session.
//
// Initialize must succeed before any other call. Engine is safe for
// concurrent use; concurrent Initialize calls share a single connection
// attempt.
type Engine struct {
	connector Connector
	logger    zerolog.Logger

	mu      sync.RWMutex
	service Service
	group   singleflight.Group
}

// NewEngine creates an engine that opens sessions with connector.
func NewEngine(connector Connector, opts ...Option) *Engine {
	e := &Engine{
		connector: connector,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) session() Service {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.service
}

// Initialized reports whether a session is established.
func (e *Engine) Initialized() bool {
	return e.session() != nil
}

// Initialize establishes the session. Calling it again once initialized is a
// no-op success, whatever the credentials.
func (e *Engine) Initialize(ctx context.Context, creds Credentials) error {
	if e.Initialized() {
		return nil
	}
	_, err, _ := e.group.Do("session", func() (any, error) {
		if svc := e.session(); svc != nil {
			return svc, nil
		}
		svc, err := e.connector(ctx, creds)
		if err != nil {
			return nil, classify(ctx, "initialize", err)
		}
		e.mu.Lock()
		e.service = svc
		e.mu.Unlock()
		e.logger.Info().Msg("upload session established")
		return svc, nil
	})
	return err
}

func (e *Engine) requireSession(op string) (Service, error) {
	svc := e.session()
	if svc == nil {
		return nil, models.NewError(models.ErrInvalidArgument, op, errors.New("upload session not initialized"))
	}
	return svc, nil
}

// UploadVideo uploads the file at path and then, best-effort, sets its
// thumbnail and adds it to a playlist.
//
// meta is normalized (see NormalizeMetadata) before transmission; the
// caller's value is not modified. progress receives fractions in [0, 1]
// after every acknowledged chunk.
//
// The result is never nil. On failure Err carries the reason; if ctx was
// cancelled during the upload Err matches models.ErrCancelled and the remote
// video may or may not exist. Thumbnail and playlist failures never fail the
// upload: they are recorded in Warnings, each matching models.ErrPartialSuccess.
func (e *Engine) UploadVideo(ctx context.Context, path string, meta *models.UploadMetadata, progress models.ProgressFunc) *models.UploadResult {
	svc, err := e.requireSession("upload")
	if err != nil {
		return &models.UploadResult{Err: err}
	}
	if err := ctx.Err(); err != nil {
		return &models.UploadResult{Err: models.NewError(models.ErrCancelled, "upload", err)}
	}

	f, err := os.Open(path)
	if err != nil {
		return &models.UploadResult{Err: models.NewError(models.ErrNotFound, "upload", err)}
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return &models.UploadResult{Err: models.NewError(models.ErrNotFound, "upload", err)}
	}
	size := info.Size()

	meta = NormalizeMetadata(meta)
	log := e.logger.With().Str("file", path).Str("title", meta.Title).Logger()
	log.Info().Int64("bytes", size).Str("privacy", string(meta.Privacy)).Msg("starting upload")

	id, err := svc.InsertVideo(ctx, meta, f, size, func(sent, total int64) {
		if progress == nil {
			return
		}
		if total <= 0 {
			total = size
		}
		if total > 0 {
			progress(clamp(float64(sent) / float64(total)))
		}
	})
	if err != nil {
		err = classify(ctx, "upload", err)
		log.Error().Err(err).Msg("upload failed")
		return &models.UploadResult{Err: err}
	}
	if id == "" {
		return &models.UploadResult{Err: models.NewError(models.ErrRemoteRejected, "upload", errors.New("no video id in response"))}
	}
	if progress != nil {
		progress(1)
	}

	result := &models.UploadResult{VideoID: id, URL: fmt.Sprintf(VideoURLFormat, id)}
	log = log.With().Str("video_id", id).Logger()
	log.Info().Msg("upload finished")

	if meta.ThumbnailPath != "" {
		if err := e.setThumbnail(ctx, svc, id, meta.ThumbnailPath); err != nil {
			log.Warn().Err(err).Msg("thumbnail not set")
			result.Warnings = append(result.Warnings, err)
		}
	}
	if meta.PlaylistID != "" {
		if err := svc.InsertPlaylistItem(ctx, meta.PlaylistID, id); err != nil {
			err = partial("playlist", classify(ctx, "playlist", err))
			log.Warn().Err(err).Str("playlist", meta.PlaylistID).Msg("playlist insert failed")
			result.Warnings = append(result.Warnings, err)
		}
	}
	return result
}

// setThumbnail uploads the thumbnail if the file exists. A missing file is
// skipped, not reported.
func (e *Engine) setThumbnail(ctx context.Context, svc Service, videoID, path string) error {
	img, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			e.logger.Debug().Str("thumbnail", path).Msg("thumbnail file missing, skipped")
			return nil
		}
		return partial("thumbnail", models.NewError(models.ErrNotFound, "thumbnail", err))
	}
	defer img.Close()

	if err := svc.SetThumbnail(ctx, videoID, img); err != nil {
		return partial("thumbnail", classify(ctx, "thumbnail", err))
	}
	return nil
}

// ListPlaylists returns the playlists of the session's channel.
func (e *Engine) ListPlaylists(ctx context.Context) ([]models.Playlist, error) {
	svc, err := e.requireSession("playlists")
	if err != nil {
		return nil, err
	}
	playlists, err := svc.ListPlaylists(ctx)
	if err != nil {
		return nil, classify(ctx, "playlists", err)
	}
	return playlists, nil
}

// GetChannelInfo returns the session's channel.
func (e *Engine) GetChannelInfo(ctx context.Context) (*models.ChannelInfo, error) {
	svc, err := e.requireSession("channel")
	if err != nil {
		return nil, err
	}
	info, err := svc.ChannelInfo(ctx)
	if err != nil {
		return nil, classify(ctx, "channel", err)
	}
	return info, nil
}

// VerifyConnection initializes the session and fetches the channel. It
// reports success iff a channel is returned and never returns an error.
func (e *Engine) VerifyConnection(ctx context.Context, creds Credentials) bool {
	if err := e.Initialize(ctx, creds); err != nil {
		e.logger.Warn().Err(err).Msg("verify: initialize failed")
		return false
	}
	info, err := e.GetChannelInfo(ctx)
	if err != nil {
		e.logger.Warn().Err(err).Msg("verify: channel lookup failed")
		return false
	}
	return info != nil && info.ID != ""
}

// classify maps err into the models taxonomy. Errors that already carry a
// kind are kept; anything else is a transport failure unless ctx ended.
func classify(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		if errors.Is(err, models.ErrCancelled) {
			return err
		}
		return models.NewError(models.ErrCancelled, op, err)
	}
	if models.KindOf(err) != nil {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return models.NewError(models.ErrCancelled, op, err)
	}
	return models.NewError(models.ErrNetworkFailure, op, err)
}

func partial(op string, err error) error {
	return models.NewError(models.ErrPartialSuccess, op, err)
}

func clamp(f float64) float64 {
	if f < 0 || f != f {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
