package download

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tubeforge/command"
	"tubeforge/internal/logx"
	"tubeforge/internal/procexec"
	"tubeforge/models"
)

// DefaultURLFormat turns a source id into the URL handed to yt-dlp.
const DefaultURLFormat = "https://www.youtube.com/watch?v=%s"

var downloadProgressRegex = regexp.MustCompile(`^\[download\]\s+(\d+(?:\.\d+)?)%`)

// Format is one entry of the "formats" array printed by yt-dlp -J.
type Format struct {
	FormatID       string  `json:"format_id"`
	Ext            string  `json:"ext"`
	Height         int     `json:"height"`
	VCodec         string  `json:"vcodec"`
	ACodec         string  `json:"acodec"`
	TBR            float64 `json:"tbr"`
	FileSize       int64   `json:"filesize"`
	FileSizeApprox int64   `json:"filesize_approx"`
}

func (f Format) muxed() bool {
	return f.Height > 0 && f.VCodec != "" && f.VCodec != "none" && f.ACodec != "" && f.ACodec != "none"
}

type videoInfo struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Formats []Format `json:"formats"`
}

// SelectOption picks the tallest muxed format not exceeding maxHeight,
// breaking ties by bitrate. When no muxed format fits it returns a selector
// that lets yt-dlp merge the best separate streams within the limit.
func SelectOption(formats []Format, maxHeight int) *Option {
	var best *Format
	for i := range formats {
		f := &formats[i]
		if !f.muxed() || (maxHeight > 0 && f.Height > maxHeight) {
			continue
		}
		if best == nil || f.Height > best.Height || (f.Height == best.Height && f.TBR > best.TBR) {
			best = f
		}
	}
	if best != nil {
		size := best.FileSize
		if size == 0 {
			size = best.FileSizeApprox
		}
		return &Option{FormatID: best.FormatID, Ext: best.Ext, Height: best.Height, Muxed: true, FileSize: size}
	}

	selector := "bestvideo+bestaudio/best"
	if maxHeight > 0 {
		h := strconv.Itoa(maxHeight)
		selector = "bestvideo[height<=" + h + "]+bestaudio/best[height<=" + h + "]/best"
	}
	return &Option{FormatID: selector, Ext: "mp4", Height: maxHeight}
}

// YTDLP is a Downloader backed by the yt-dlp executable.
type YTDLP struct {
	executable string
	urlFormat  string
	waitDelay  time.Duration
	logger     zerolog.Logger
}

// NewYTDLP creates a downloader running the yt-dlp at executable.
func NewYTDLP(executable string, logger zerolog.Logger) *YTDLP {
	return &YTDLP{
		executable: executable,
		urlFormat:  DefaultURLFormat,
		waitDelay:  procexec.DefaultWaitDelay,
		logger:     logger.With().Str("component", "downloader").Logger(),
	}
}

// SetURLFormat sets the fmt pattern mapping a source id to a URL.
func (y *YTDLP) SetURLFormat(format string) *YTDLP {
	y.urlFormat = format
	return y
}

// Executable returns the yt-dlp path.
func (y *YTDLP) Executable() string {
	return y.executable
}

func (y *YTDLP) url(sourceID string) string {
	if strings.Contains(y.urlFormat, "%s") {
		return fmt.Sprintf(y.urlFormat, sourceID)
	}
	return y.urlFormat + sourceID
}

// ResolveBestOption queries the available formats with "yt-dlp -J".
func (y *YTDLP) ResolveBestOption(ctx context.Context, sourceID string, maxHeight int) (*Option, error) {
	if strings.TrimSpace(sourceID) == "" {
		return nil, models.NewError(models.ErrInvalidArgument, "resolve", fmt.Errorf("source id cannot be empty"))
	}

	out, err := procexec.Output(ctx, procexec.Command{
		Path:      y.executable,
		Args:      []string{"-J", "--no-playlist", "--no-warnings", y.url(sourceID)},
		WaitDelay: y.waitDelay,
	})
	if err != nil {
		return nil, err
	}

	var info videoInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, models.NewError(models.ErrProcessFailure, "resolve", fmt.Errorf("invalid yt-dlp metadata: %w", err))
	}
	if len(info.Formats) == 0 {
		return nil, models.NewError(models.ErrNotFound, "resolve", fmt.Errorf("no formats available for %s", sourceID))
	}

	opt := SelectOption(info.Formats, maxHeight)
	y.logger.Debug().Str("source", sourceID).Str("format", opt.String()).Msg("resolved format")
	return opt, nil
}

// Command returns the argument builder for a download.
func (y *YTDLP) Command(destPath, sourceID string, opt *Option) *DownloadCommand {
	return &DownloadCommand{executable: y.executable, url: y.url(sourceID), dest: destPath, opt: opt}
}

// Download runs yt-dlp and reports the "[download] NN.N%" lines it prints.
func (y *YTDLP) Download(ctx context.Context, destPath, sourceID string, opt *Option, progress models.ProgressFunc) error {
	if opt == nil {
		return models.NewError(models.ErrInvalidArgument, "download", fmt.Errorf("no format option"))
	}

	log := y.logger.With().Str("source", sourceID).Logger()
	lines := logx.NewLineWriter(log, map[string]string{"proc": "yt-dlp"}, zerolog.DebugLevel)
	last := 0.0

	err := procexec.Run(ctx, procexec.Command{
		Path:      y.executable,
		Args:      y.Command(destPath, sourceID, opt).BuildArgs(),
		Stream:    procexec.Stdout,
		WaitDelay: y.waitDelay,
	}, func(line string) {
		lines.Line(line)
		m := downloadProgressRegex.FindStringSubmatch(line)
		if m == nil || progress == nil {
			return
		}
		pct, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return
		}
		// yt-dlp restarts at 0% for the audio stream of a merged download
		if f := pct / 100; f > last && f <= 1 {
			last = f
			progress(f)
		}
	})
	if err != nil {
		return err
	}

	if _, err := os.Stat(destPath); err != nil {
		return models.NewError(models.ErrProcessFailure, "download", fmt.Errorf("yt-dlp finished without writing %s: %w", destPath, err))
	}
	log.Info().Str("dest", destPath).Msg("download finished")
	return nil
}

// DownloadCommand is the yt-dlp invocation for one download.
type DownloadCommand struct {
	executable string
	url        string
	dest       string
	opt        *Option
}

// BuildArgs constructs the yt-dlp arguments.
func (d *DownloadCommand) BuildArgs() []string {
	args := []string{
		"-f", d.opt.FormatID,
		"--no-playlist",
		"--newline",
		"--no-part",
		"--force-overwrites",
	}
	if !d.opt.Muxed {
		args = append(args, "--merge-output-format", "mp4")
	}
	return append(args, "-o", d.dest, d.url)
}

// DryRun returns the command that would be executed without running it.
func (d *DownloadCommand) DryRun() (string, error) {
	if d.opt == nil {
		return "", fmt.Errorf("no format option")
	}
	return command.FormatCommandLine(d.executable, d.BuildArgs()), nil
}

// GetTaskType returns TaskTypeDownload.
func (d *DownloadCommand) GetTaskType() command.TaskType {
	return command.TaskTypeDownload
}

// GetInputPath returns the source URL.
func (d *DownloadCommand) GetInputPath() string {
	return d.url
}

// GetOutputPath returns the destination file.
func (d *DownloadCommand) GetOutputPath() string {
	return d.dest
}

var (
	_ command.Command = (*DownloadCommand)(nil)
	_ Downloader      = (*YTDLP)(nil)
)
