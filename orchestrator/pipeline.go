// Package orchestrator drives batches of sources through the download,
// encode and upload stages.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tubeforge/download"
	"tubeforge/models"
)

// Encoder runs one encode job. ffmpeg.Supervisor implements it.
type Encoder interface {
	Run(ctx context.Context, job *models.EncodeJob, observer models.ProgressFunc) *models.EncodeResult
}

// Uploader publishes one file. upload.Engine implements it.
type Uploader interface {
	UploadVideo(ctx context.Context, path string, meta *models.UploadMetadata, progress models.ProgressFunc) *models.UploadResult
}

// MetadataFunc renders the upload metadata for the source at index.
type MetadataFunc func(src models.Source, index int) *models.UploadMetadata

// Config selects the stages of a run and how they behave.
type Config struct {
	Encode bool
	Upload bool

	Transform models.TransformationSpec
	MaxHeight int // download quality limit, 0 = best available

	WorkDir     string
	PacingDelay time.Duration // wait between uploads, skipped after the last item
	Cleanup     bool          // remove intermediate files once an item is terminal

	Metadata MetadataFunc
}

// Pipeline processes batches serially: each item runs through all enabled
// stages before the next one starts.
type Pipeline struct {
	cfg        Config
	downloader download.Downloader
	encoder    Encoder
	uploader   Uploader
	logger     zerolog.Logger

	newName func() string
	sleep   func(ctx context.Context, d time.Duration) error
}

// New creates a pipeline. encoder and uploader may be nil when their stage is
// disabled.
func New(cfg Config, downloader download.Downloader, encoder Encoder, uploader Uploader, logger zerolog.Logger) (*Pipeline, error) {
	var problems []string
	if downloader == nil {
		problems = append(problems, "a downloader is required")
	}
	if cfg.Encode && encoder == nil {
		problems = append(problems, "encoding is enabled but no encoder was given")
	}
	if cfg.Upload && uploader == nil {
		problems = append(problems, "uploading is enabled but no uploader was given")
	}
	if strings.TrimSpace(cfg.WorkDir) == "" {
		problems = append(problems, "work dir cannot be empty")
	}
	if cfg.PacingDelay < 0 {
		problems = append(problems, "pacing delay cannot be negative")
	}
	if cfg.Encode {
		if err := cfg.Transform.Validate(); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if len(problems) > 0 {
		return nil, models.NewError(models.ErrInvalidArgument, "pipeline", errors.New(strings.Join(problems, "; ")))
	}
	if cfg.Metadata == nil {
		cfg.Metadata = defaultMetadata
	}

	return &Pipeline{
		cfg:        cfg,
		downloader: downloader,
		encoder:    encoder,
		uploader:   uploader,
		logger:     logger.With().Str("component", "pipeline").Logger(),
		newName:    uuid.NewString,
		sleep:      sleepContext,
	}, nil
}

func defaultMetadata(src models.Source, _ int) *models.UploadMetadata {
	title := src.Title
	if strings.TrimSpace(title) == "" {
		title = src.ID
	}
	return &models.UploadMetadata{Title: title, Privacy: models.PrivacyPrivate}
}

// Run processes sources in order and returns one item per source.
//
// A failing item never stops the batch. The returned error is non-nil only
// when ctx is cancelled: the active item is then failed with
// models.ErrCancelled, later items stay pending, and outcomes of finished
// items are kept.
func (p *Pipeline) Run(ctx context.Context, sources []models.Source, observer BatchObserver) ([]*models.PipelineItem, error) {
	items := make([]*models.PipelineItem, len(sources))
	for i, src := range sources {
		items[i] = models.NewPipelineItem(i, src)
	}
	if err := os.MkdirAll(p.cfg.WorkDir, 0o755); err != nil {
		err = models.NewError(models.ErrNotFound, "pipeline", fmt.Errorf("create work dir: %w", err))
		for _, it := range items {
			it.Fail(err)
		}
		return items, nil
	}

	t := newTracker(len(items), p.cfg.Encode, p.cfg.Upload, observer)
	start := time.Now()
	p.logger.Info().Int("items", len(items)).Bool("encode", p.cfg.Encode).Bool("upload", p.cfg.Upload).Msg("batch started")

	for i, item := range items {
		if ctx.Err() != nil {
			break
		}
		t.begin(i)
		uploaded := p.runItem(ctx, item, t)
		p.cleanup(item)
		t.finish(item.Stage)

		if ctx.Err() != nil {
			break
		}
		if uploaded && i < len(items)-1 && p.cfg.PacingDelay > 0 {
			p.logger.Debug().Dur("delay", p.cfg.PacingDelay).Msg("pacing before next upload")
			if err := p.sleep(ctx, p.cfg.PacingDelay); err != nil {
				break
			}
		}
	}

	s := Summarize(items)
	log := p.logger.Info()
	if ctx.Err() != nil {
		log = p.logger.Warn()
	}
	log.Int("done", s.Done).Int("failed", s.Failed).Int("pending", s.Pending).
		Dur("elapsed", time.Since(start)).Msg("batch finished")

	if err := ctx.Err(); err != nil {
		return items, models.NewError(models.ErrCancelled, "batch", err)
	}
	return items, nil
}

// runItem takes item to a terminal stage. It reports whether the upload
// stage was attempted.
func (p *Pipeline) runItem(ctx context.Context, item *models.PipelineItem, t *tracker) bool {
	log := p.logger.With().Int("item", item.Index).Str("source", item.Source.ID).Logger()

	if err := item.Source.Validate(); err != nil {
		log.Error().Err(err).Msg("invalid source")
		item.Fail(err)
		return false
	}

	// download
	p.advance(item, models.StageDownloading, t)
	name := p.newName()
	opt, err := p.downloader.ResolveBestOption(ctx, item.Source.ID, p.cfg.MaxHeight)
	if err == nil {
		path := filepath.Join(p.cfg.WorkDir, name+"."+artifactExt(opt))
		err = p.downloader.Download(ctx, path, item.Source.ID, opt, t.update)
		if err == nil {
			item.DownloadPath = path
			item.ArtifactPath = path
		}
	}
	if err != nil {
		err = stageError(ctx, "download", err)
		log.Error().Err(err).Msg("download failed")
		item.Fail(err)
		return false
	}
	log.Info().Str("file", item.DownloadPath).Str("format", opt.String()).Msg("downloaded")

	// encode
	if p.cfg.Encode {
		p.advance(item, models.StageEncoding, t)
		job := &models.EncodeJob{
			InputPath:  item.DownloadPath,
			OutputPath: filepath.Join(p.cfg.WorkDir, name+"-encoded.mp4"),
			Transform:  p.cfg.Transform,
		}
		res := p.encoder.Run(ctx, job, t.update)
		switch {
		case res.Succeeded():
			item.EncodedPath = res.OutputPath
			item.ArtifactPath = res.OutputPath
			log.Info().Str("file", res.OutputPath).Dur("elapsed", res.Elapsed).Msg("encoded")
		case ctx.Err() != nil || (res != nil && res.Status == models.EncodeCancelled):
			item.Fail(stageError(ctx, "encode", resultErr(res)))
			return false
		default:
			// upload the unmodified download rather than lose the item
			err := resultErr(res)
			log.Warn().Err(err).Msg("encode failed, continuing with the downloaded file")
			item.EncodeFallback = true
			item.Warnings = append(item.Warnings, err)
		}
	}

	// upload
	if p.cfg.Upload {
		p.advance(item, models.StageUploading, t)
		meta := p.cfg.Metadata(item.Source, item.Index)
		res := p.uploader.UploadVideo(ctx, item.ArtifactPath, meta, t.update)
		if !res.Succeeded() {
			err := res.Err
			if err == nil {
				err = models.NewError(models.ErrRemoteRejected, "upload", errors.New("upload returned no video id"))
			}
			log.Error().Err(err).Msg("upload failed")
			item.Fail(stageError(ctx, "upload", err))
			return true
		}
		item.RemoteID = res.VideoID
		item.RemoteURL = res.URL
		item.Warnings = append(item.Warnings, res.Warnings...)
		log.Info().Str("video_id", res.VideoID).Str("url", res.URL).Int("warnings", len(res.Warnings)).Msg("uploaded")
	}

	p.advance(item, models.StageDone, t)
	return p.cfg.Upload
}

func (p *Pipeline) advance(item *models.PipelineItem, stage models.Stage, t *tracker) {
	if err := item.Advance(stage); err != nil {
		p.logger.Error().Err(err).Msg("stage transition rejected")
		return
	}
	if !stage.Terminal() {
		t.enter(stage)
	}
}

// cleanup removes the item's intermediate files. When nothing is uploaded,
// the final artifact of a finished item is the product and is kept.
func (p *Pipeline) cleanup(item *models.PipelineItem) {
	if !p.cfg.Cleanup {
		return
	}
	for _, path := range []string{item.DownloadPath, item.EncodedPath} {
		if path == "" {
			continue
		}
		if !p.cfg.Upload && item.Stage == models.StageDone && path == item.ArtifactPath {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			p.logger.Warn().Err(err).Str("file", path).Msg("cleanup failed")
		}
	}
}

func artifactExt(opt *download.Option) string {
	if opt == nil || !opt.Muxed || opt.Ext == "" {
		return "mp4"
	}
	return opt.Ext
}

func resultErr(res *models.EncodeResult) error {
	if res == nil || res.Err == nil {
		return models.NewError(models.ErrProcessFailure, "encode", errors.New("encoder returned no result"))
	}
	return res.Err
}

// stageError makes sure a failure observed after cancellation reads as one.
func stageError(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil && !errors.Is(err, models.ErrCancelled) {
		return models.NewError(models.ErrCancelled, op, err)
	}
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
