package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"tubeforge/config"
	"tubeforge/download"
	"tubeforge/ffmpeg"
	"tubeforge/ffprobe"
	"tubeforge/history"
	"tubeforge/internal/logx"
	"tubeforge/models"
	"tubeforge/orchestrator"
	"tubeforge/upload"
)

const (
	exitOK        = 0
	exitError     = 1
	exitFailures  = 2 // the batch ran but some items failed
	exitCancelled = 130
)

// tools are the resolved executable paths.
type tools struct {
	ffmpeg  string
	ffprobe string
	ytdlp   string
}

func main() {
	os.Exit(run())
}

func run() int {
	// Step 1: Load configuration (CLI flags > env > config file > defaults)
	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		return exitError
	}

	logCfg := logx.FromEnv("tubeforge")
	if cfg.Verbose {
		logCfg.Level = "debug"
	}
	logger := logx.Setup(logCfg)

	// Step 2: Ctrl+C and SIGTERM cancel the batch
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Step 3: One-shot actions
	if cfg.Actions.Any() {
		if err := runAction(ctx, cfg, logger); err != nil {
			logger.Error().Err(err).Msg("action failed")
			return exitError
		}
		return exitOK
	}

	sources, err := collectSources(cfg.Sources, cfg.Args)
	if err != nil {
		logger.Error().Err(err).Msg("failed to read sources")
		return exitError
	}
	if len(sources) == 0 {
		fmt.Fprintln(os.Stderr, "❌ No sources given. Pass ids as arguments or use -sources FILE.")
		return exitError
	}

	bins, err := locateTools(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("required tool not found")
		return exitError
	}

	// Step 4: Dry run prints what would be executed
	if cfg.DryRun {
		if err := printDryRun(os.Stdout, cfg, bins, sources); err != nil {
			logger.Error().Err(err).Msg("dry run failed")
			return exitError
		}
		return exitOK
	}

	// Step 5: Run the batch
	items, runErr := runBatch(ctx, cfg, bins, sources, logger)
	if items == nil {
		logger.Error().Err(runErr).Msg("batch could not start")
		return exitError
	}

	fmt.Println()
	if err := orchestrator.WriteReport(os.Stdout, items); err != nil {
		logger.Warn().Err(err).Msg("failed to write report")
	}

	switch {
	case errors.Is(runErr, models.ErrCancelled):
		fmt.Println("\n⚠️  Batch cancelled by user")
		return exitCancelled
	case orchestrator.Summarize(items).Failed > 0:
		return exitFailures
	}
	return exitOK
}

// locateTools resolves the executables the enabled stages need.
func locateTools(cfg *config.Config) (tools, error) {
	var (
		t   tools
		err error
	)
	if t.ytdlp, err = ffmpeg.LocateTool("yt-dlp", cfg.Tools.YTDLP); err != nil {
		return t, err
	}
	if !cfg.Encode.Enabled {
		return t, nil
	}
	if t.ffmpeg, err = ffmpeg.Locate(cfg.Tools.FFmpeg); err != nil {
		return t, err
	}
	// the sample rate probe is optional, the supervisor falls back to a default
	t.ffprobe, _ = ffmpeg.LocateTool("ffprobe", cfg.Tools.FFprobe)
	return t, nil
}

func newDownloader(cfg *config.Config, bins tools, logger zerolog.Logger) *download.YTDLP {
	d := download.NewYTDLP(bins.ytdlp, logger)
	if cfg.Download.URLFormat != "" {
		d.SetURLFormat(cfg.Download.URLFormat)
	}
	return d
}

func newSupervisor(cfg *config.Config, bins tools, logger zerolog.Logger) *ffmpeg.Supervisor {
	s := ffmpeg.NewSupervisor(bins.ffmpeg, cfg.Encode.Codec, logger)
	if bins.ffprobe != "" {
		s.SetProber(ffprobe.NewProber(bins.ffprobe))
	}
	return s
}

func newUploadEngine(cfg *config.Config, logger zerolog.Logger) *upload.Engine {
	var opts []upload.YouTubeOption
	if cfg.Upload.ChunkSizeMB > 0 {
		opts = append(opts, upload.WithChunkSize(int64(cfg.Upload.ChunkSizeMB)<<20))
	}
	return upload.NewEngine(upload.YouTubeConnector(opts...), upload.WithLogger(logger))
}

// runBatch wires the stages and runs every source through them. The returned
// items are nil only when the batch could not start.
func runBatch(ctx context.Context, cfg *config.Config, bins tools, sources []models.Source, logger zerolog.Logger) ([]*models.PipelineItem, error) {
	spec, err := cfg.Transform()
	if err != nil {
		return nil, err
	}
	maxHeight, err := download.ParseQuality(cfg.Download.Quality)
	if err != nil {
		return nil, err
	}

	var (
		encoder  orchestrator.Encoder
		uploader orchestrator.Uploader
	)
	if cfg.Encode.Enabled {
		encoder = newSupervisor(cfg, bins, logger)
	}
	if cfg.Upload.Enabled {
		engine := newUploadEngine(cfg, logger)
		if err := engine.Initialize(ctx, cfg.Credentials()); err != nil {
			return nil, fmt.Errorf("upload session: %w", err)
		}
		uploader = engine
	}

	pipeline, err := orchestrator.New(orchestrator.Config{
		Encode:      cfg.Encode.Enabled,
		Upload:      cfg.Upload.Enabled,
		Transform:   spec,
		MaxHeight:   maxHeight,
		WorkDir:     cfg.WorkDir,
		PacingDelay: cfg.PacingOrZero(),
		Cleanup:     cfg.Cleanup,
		Metadata:    cfg.Upload.Metadata.Render,
	}, newDownloader(cfg, bins, logger), encoder, uploader, logger)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	items, runErr := pipeline.Run(ctx, sources, progressLogger(logger))

	if cfg.History.Enabled {
		recordHistory(cfg, started, items, runErr, logger)
	}
	return items, runErr
}

// progressLogger logs the aggregate progress on every stage change and at
// most every few seconds in between.
func progressLogger(logger zerolog.Logger) orchestrator.BatchObserver {
	var (
		lastStage models.Stage
		lastItem  = -1
		lastLog   time.Time
	)
	return func(p models.BatchProgress) {
		changed := p.Stage != lastStage || p.ItemIndex != lastItem
		if !changed && time.Since(lastLog) < 5*time.Second {
			return
		}
		lastStage, lastItem, lastLog = p.Stage, p.ItemIndex, time.Now()
		logger.Info().
			Int("item", p.ItemIndex+1).
			Int("total", p.Total).
			Str("stage", string(p.Stage)).
			Str("batch", fmt.Sprintf("%.1f%%", p.Fraction()*100)).
			Msg("progress")
	}
}

func recordHistory(cfg *config.Config, started time.Time, items []*models.PipelineItem, runErr error, logger zerolog.Logger) {
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		logger.Warn().Err(err).Msg("history unavailable, run not recorded")
		return
	}
	defer store.Close()

	run := &history.Run{
		ID:        history.NewRunID(started),
		StartedAt: started,
		Encode:    cfg.Encode.Enabled,
		Upload:    cfg.Upload.Enabled,
		Cancelled: errors.Is(runErr, models.ErrCancelled),
	}
	// the batch context may already be cancelled; the record must still land
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.RecordRun(ctx, run, items); err != nil {
		logger.Warn().Err(err).Msg("failed to record run")
		return
	}
	logger.Info().Str("run", run.ID).Msg("run recorded")
}

// runAction executes the one-shot command selected on the command line.
func runAction(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	creds := cfg.Credentials()
	a := cfg.Actions

	switch {
	case a.SaveConfig != "":
		if err := config.SaveConfigFile(cfg, a.SaveConfig); err != nil {
			return err
		}
		fmt.Printf("✓ Configuration saved to %s\n", a.SaveConfig)
		return nil

	case a.AuthURL:
		url, err := creds.AuthCodeURL("tubeforge")
		if err != nil {
			return err
		}
		fmt.Println("Open this URL, approve access, then run with -auth-code CODE:")
		fmt.Println(url)
		return nil

	case a.AuthCode != "":
		if err := creds.Exchange(ctx, a.AuthCode); err != nil {
			return err
		}
		fmt.Printf("✓ Token saved to %s\n", creds.TokenPath)
		return nil

	case a.Verify:
		return verify(ctx, cfg, logger)

	case a.ListPlaylists:
		engine := newUploadEngine(cfg, logger)
		if err := engine.Initialize(ctx, creds); err != nil {
			return err
		}
		playlists, err := engine.ListPlaylists(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tVIDEOS\tVISIBILITY")
		for _, p := range playlists {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", p.ID, p.Title, p.ItemCount, p.Visibility)
		}
		return w.Flush()

	case a.History > 0:
		return printHistory(ctx, os.Stdout, cfg.History.Path, a.History)
	}
	return nil
}

// verify checks the tools and the upload session concurrently.
func verify(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	type check struct {
		name string
		fn   func(context.Context) (string, error)
	}
	checks := []check{
		{"yt-dlp", func(context.Context) (string, error) { return ffmpeg.LocateTool("yt-dlp", cfg.Tools.YTDLP) }},
		{"ffmpeg", func(context.Context) (string, error) { return ffmpeg.Locate(cfg.Tools.FFmpeg) }},
		{"ffprobe", func(context.Context) (string, error) { return ffmpeg.LocateTool("ffprobe", cfg.Tools.FFprobe) }},
		{"youtube", func(ctx context.Context) (string, error) {
			if !newUploadEngine(cfg, logger).VerifyConnection(ctx, cfg.Credentials()) {
				return "", models.NewError(models.ErrRemoteRejected, "verify", errors.New("no channel for these credentials"))
			}
			return "channel reachable", nil
		}},
	}

	results := make([]string, len(checks))
	failed := make([]bool, len(checks))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range checks {
		i, c := i, c
		g.Go(func() error {
			detail, err := c.fn(gctx)
			if err != nil {
				detail, failed[i] = err.Error(), true
			}
			results[i] = detail
			return nil
		})
	}
	_ = g.Wait()

	var bad int
	for i, c := range checks {
		mark := "✓"
		if failed[i] {
			mark = "✗"
			bad++
		}
		fmt.Printf("  %s %-8s %s\n", mark, c.name, results[i])
	}
	if bad > 0 {
		return fmt.Errorf("%d of %d checks failed", bad, len(checks))
	}
	return nil
}

func printHistory(ctx context.Context, w io.Writer, path string, n int) error {
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.RecentRuns(ctx, n)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tDURATION\tDONE\tFAILED\tPENDING\tNOTE")
	for _, r := range runs {
		note := ""
		if r.Cancelled {
			note = "cancelled"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.FinishedAt.Sub(r.StartedAt).Round(time.Second),
			r.Done, r.Failed, r.Pending, note)
	}
	return tw.Flush()
}

// printDryRun prints the effective configuration and the commands the first
// source would run.
func printDryRun(w io.Writer, cfg *config.Config, bins tools, sources []models.Source) error {
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintln(w, "                      DRY RUN MODE")
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	cfg.PrintConfig(w)

	fmt.Fprintf(w, "\nSources: %d\n", len(sources))
	src := sources[0]
	downloaded := filepath.Join(cfg.WorkDir, "<item>.mp4")

	// the real format id is only known after querying the source
	maxHeight, err := download.ParseQuality(cfg.Download.Quality)
	if err != nil {
		return err
	}
	selector := "bestvideo+bestaudio/best"
	if maxHeight > 0 {
		selector = fmt.Sprintf("bestvideo[height<=%[1]d]+bestaudio/best[height<=%[1]d]", maxHeight)
	}
	dl := newDownloader(cfg, bins, zerolog.Nop()).Command(downloaded, src.ID, &download.Option{FormatID: selector})
	line, err := dl.DryRun()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nDownload:\n  %s\n", line)

	if cfg.Encode.Enabled {
		spec, err := cfg.Transform()
		if err != nil {
			return err
		}
		job := &models.EncodeJob{
			InputPath:  downloaded,
			OutputPath: filepath.Join(cfg.WorkDir, "<item>-encoded.mp4"),
			Transform:  spec,
		}
		line, err := newSupervisor(cfg, bins, zerolog.Nop()).Command(job).DryRun()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "\nEncode:\n  %s\n", line)
	}

	if cfg.Upload.Enabled {
		meta := cfg.Upload.Metadata.Render(src, 0)
		fmt.Fprintf(w, "\nUpload:\n  title=%q privacy=%s\n", meta.Title, meta.Privacy)
	}

	fmt.Fprintln(w, "\n✓ Configuration is valid. Nothing was executed.")
	return nil
}
