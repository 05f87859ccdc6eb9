package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"tubeforge/models"
)

// optionalFloat sets a *float64 only when the flag is given.
type optionalFloat struct {
	dst **float64
}

func (f optionalFloat) String() string {
	if f.dst == nil || *f.dst == nil {
		return ""
	}
	return strconv.FormatFloat(**f.dst, 'g', -1, 64)
}

func (f optionalFloat) Set(s string) error {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f.dst = models.Float(v)
	return nil
}

// MergeFromFlags parses command-line flags and overrides config values.
// Positional arguments are kept in Args as sources.
func (c *Config) MergeFromFlags(args []string) error {
	fs := flag.NewFlagSet("tubeforge", flag.ContinueOnError)
	fs.Usage = printUsage

	// Handled by LoadConfig before this function is called
	_ = fs.String("config", "", "Path to config file")
	_ = fs.String("env-file", "", "Path to .env file")

	sources := fs.String("sources", "", "File with one source per line: id[,title]")
	workDir := fs.String("work-dir", "", "Directory for downloads and encodes")
	cleanup := fs.Bool("cleanup", false, "Remove intermediate files of finished items")
	noCleanup := fs.Bool("no-cleanup", false, "Keep intermediate files")

	// Tools
	ffmpegPath := fs.String("ffmpeg", "", "Path to ffmpeg")
	ffprobePath := fs.String("ffprobe", "", "Path to ffprobe")
	ytdlpPath := fs.String("yt-dlp", "", "Path to yt-dlp")

	// Download
	quality := fs.String("quality", "", "Maximum download quality, e.g. 720p or best")

	// Encode
	noEncode := fs.Bool("no-encode", false, "Skip the encode stage")
	preset := fs.String("preset", "", "Transformation preset: "+strings.Join(models.PresetNames(), ", "))
	flipH := fs.Bool("flip-h", false, "Mirror horizontally")
	flipV := fs.Bool("flip-v", false, "Mirror vertically")
	fs.Var(optionalFloat{&c.Encode.Transform.Scale}, "scale", "Scale factor, 1.0 = unchanged")
	fs.Var(optionalFloat{&c.Encode.Transform.Rotate}, "rotate", "Rotation in degrees")
	fs.Var(optionalFloat{&c.Encode.Transform.Brightness}, "brightness", "Brightness delta, -1..1")
	fs.Var(optionalFloat{&c.Encode.Transform.Contrast}, "contrast", "Contrast delta, -1..1")
	fs.Var(optionalFloat{&c.Encode.Transform.Blur}, "blur", "Gaussian blur sigma")
	fs.Var(optionalFloat{&c.Encode.Transform.Speed}, "speed", "Playback speed factor, 0.5..2")
	fs.Var(optionalFloat{&c.Encode.Transform.Pitch}, "pitch", "Audio pitch factor, 0.5..2")
	videoCodec := fs.String("video-codec", "", "Video codec")
	videoPreset := fs.String("video-preset", "", "Encoder speed preset: ultrafast ... veryslow")
	crf := fs.Int("crf", -1, "Video CRF (0-51, lower = better quality)")
	audioCodec := fs.String("audio-codec", "", "Audio codec")
	audioBitrate := fs.String("audio-bitrate", "", "Audio bitrate, e.g. 192k")

	// Upload
	noUpload := fs.Bool("no-upload", false, "Skip the upload stage")
	clientSecrets := fs.String("client-secrets", "", "OAuth2 client_secret.json")
	token := fs.String("token", "", "OAuth2 token file")
	pacing := fs.Duration("pacing", -1, "Delay between uploads, e.g. 30s")
	title := fs.String("title", "", "Title template: {title}, {id}, {index}")
	description := fs.String("description", "", "Description template")
	tags := fs.String("tags", "", "Comma separated tags")
	category := fs.String("category", "", "Category id")
	privacy := fs.String("privacy", "", "public, private or unlisted")
	playlist := fs.String("playlist", "", "Playlist id to add uploads to")
	thumbnail := fs.String("thumbnail", "", "Thumbnail image for every upload")
	publishAt := fs.String("publish-at", "", "Scheduled publish time, RFC 3339 (private only)")

	// History
	historyDB := fs.String("history-db", "", "Run history database")
	noHistory := fs.Bool("no-history", false, "Do not record runs")

	// Behavior
	verbose := fs.Bool("verbose", false, "Enable debug logging")
	dryRun := fs.Bool("dry-run", false, "Show configuration and commands without running")

	// Actions
	fs.BoolVar(&c.Actions.Verify, "verify", false, "Check tools and the upload session")
	fs.BoolVar(&c.Actions.ListPlaylists, "playlists", false, "List the channel's playlists")
	fs.IntVar(&c.Actions.History, "history", 0, "Show the last N runs")
	fs.BoolVar(&c.Actions.AuthURL, "auth-url", false, "Print the OAuth consent URL")
	fs.StringVar(&c.Actions.AuthCode, "auth-code", "", "Exchange a consent code for a token")
	fs.StringVar(&c.Actions.SaveConfig, "save-config", "", "Write the effective configuration as YAML")

	if err := fs.Parse(args); err != nil {
		return err
	}
	c.Args = append(c.Args, fs.Args()...)

	// Override with flag values (only if explicitly set)
	setStr := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setStr(&c.Sources, *sources)
	setStr(&c.WorkDir, *workDir)
	setStr(&c.Tools.FFmpeg, *ffmpegPath)
	setStr(&c.Tools.FFprobe, *ffprobePath)
	setStr(&c.Tools.YTDLP, *ytdlpPath)
	setStr(&c.Download.Quality, *quality)
	setStr(&c.Encode.Preset, *preset)
	setStr(&c.Encode.Codec.VideoCodec, *videoCodec)
	setStr(&c.Encode.Codec.Preset, *videoPreset)
	setStr(&c.Encode.Codec.AudioCodec, *audioCodec)
	setStr(&c.Encode.Codec.AudioBitrate, *audioBitrate)
	setStr(&c.Upload.ClientSecrets, *clientSecrets)
	setStr(&c.Upload.TokenPath, *token)
	setStr(&c.Upload.Metadata.Title, *title)
	setStr(&c.Upload.Metadata.Description, *description)
	setStr(&c.Upload.Metadata.CategoryID, *category)
	setStr(&c.Upload.Metadata.Privacy, *privacy)
	setStr(&c.Upload.Metadata.PlaylistID, *playlist)
	setStr(&c.Upload.Metadata.ThumbnailPath, *thumbnail)
	setStr(&c.Upload.Metadata.PublishAt, *publishAt)
	setStr(&c.History.Path, *historyDB)

	if *tags != "" {
		c.Upload.Metadata.Tags = nil
		for _, tag := range strings.Split(*tags, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				c.Upload.Metadata.Tags = append(c.Upload.Metadata.Tags, tag)
			}
		}
	}
	if *crf >= 0 {
		c.Encode.Codec.CRF = *crf
	}
	if *pacing >= 0 {
		c.Upload.PacingDelay = *pacing
	}

	// Behavioral flags
	if *flipH {
		c.Encode.Transform.FlipHorizontal = true
	}
	if *flipV {
		c.Encode.Transform.FlipVertical = true
	}
	if *cleanup {
		c.Cleanup = true
	}
	if *noCleanup {
		c.Cleanup = false
	}
	if *noEncode {
		c.Encode.Enabled = false
	}
	if *noUpload {
		c.Upload.Enabled = false
	}
	if *noHistory {
		c.History.Enabled = false
	}
	if *verbose {
		c.Verbose = true
	}
	if *dryRun {
		c.DryRun = true
	}

	return nil
}

// printUsage prints help text
func printUsage() {
	fmt.Fprintf(os.Stderr, `tubeforge - download, transform and re-upload videos in batches

USAGE:
  tubeforge [OPTIONS] [ID[,TITLE] ...]
  tubeforge -sources FILE [OPTIONS]

SOURCES:
  Positional arguments and lines of the -sources file are source ids,
  optionally followed by a comma and a title. Lines starting with # are
  ignored.

CONFIGURATION:
  -config string      Config file (default: search ./tubeforge.yaml,
                      ~/.tubeforge/config.yaml, /etc/tubeforge/config.yaml)
  -env-file string    .env file (default: ./.env if present)
  -work-dir string    Directory for downloads and encodes
  -cleanup / -no-cleanup

TOOLS:
  -ffmpeg, -ffprobe, -yt-dlp string
                      Executable paths (default: search next to tubeforge,
                      ./bin, system directories and PATH)

DOWNLOAD:
  -quality string     Maximum quality, e.g. 720p, 1080 or best (default: 1080p)

ENCODE:
  -no-encode          Upload the downloaded files unchanged
  -preset string      Transformation preset (default: subtle)
  -flip-h, -flip-v    Mirror the picture
  -scale, -rotate, -brightness, -contrast, -blur, -speed, -pitch float
                      Override single transformation parameters
  -video-codec, -video-preset, -audio-codec, -audio-bitrate string
  -crf int

UPLOAD:
  -no-upload          Stop after encoding
  -client-secrets, -token string
                      OAuth2 client secrets and cached token
  -pacing duration    Delay between uploads (default: 30s)
  -title, -description string
                      Templates with {title}, {id} and {index}
  -tags, -category, -privacy, -playlist, -thumbnail, -publish-at string

HISTORY:
  -history-db string  Run history database (default: ~/.tubeforge/history.db)
  -no-history         Do not record runs

ACTIONS:
  -verify             Check tools and the upload session, then exit
  -playlists          List playlists of the authorized channel
  -history int        Show the last N runs
  -auth-url           Print the OAuth consent URL
  -auth-code string   Exchange the code from the consent page for a token
  -save-config path   Write the effective configuration to a YAML file

BEHAVIOR:
  -verbose            Enable debug logging
  -dry-run            Show effective configuration and commands without running

Priority: CLI flags > environment (TUBEFORGE_*) > config file > defaults

`)
}

// PrintConfig prints the effective configuration
func (c *Config) PrintConfig(w io.Writer) {
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintln(w, "                 Effective Configuration                  ")
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintf(w, "Work Dir:       %s\n", c.WorkDir)
	fmt.Fprintf(w, "Cleanup:        %v\n", c.Cleanup)
	if c.Sources != "" {
		fmt.Fprintf(w, "Sources File:   %s\n", c.Sources)
	}

	fmt.Fprintln(w, "\nDownload:")
	fmt.Fprintf(w, "  Quality:      %s\n", c.Download.Quality)

	fmt.Fprintln(w, "\nEncode:")
	fmt.Fprintf(w, "  Enabled:      %v\n", c.Encode.Enabled)
	if c.Encode.Enabled {
		fmt.Fprintf(w, "  Preset:       %s\n", c.Encode.Preset)
		fmt.Fprintf(w, "  Video:        %s, preset %s, crf %d\n", c.Encode.Codec.VideoCodec, c.Encode.Codec.Preset, c.Encode.Codec.CRF)
		fmt.Fprintf(w, "  Audio:        %s %s\n", c.Encode.Codec.AudioCodec, c.Encode.Codec.AudioBitrate)
	}

	fmt.Fprintln(w, "\nUpload:")
	fmt.Fprintf(w, "  Enabled:      %v\n", c.Upload.Enabled)
	if c.Upload.Enabled {
		fmt.Fprintf(w, "  Privacy:      %s\n", c.Upload.Metadata.Privacy)
		fmt.Fprintf(w, "  Title:        %s\n", c.Upload.Metadata.Title)
		if c.Upload.Metadata.PlaylistID != "" {
			fmt.Fprintf(w, "  Playlist:     %s\n", c.Upload.Metadata.PlaylistID)
		}
		if c.Upload.Metadata.PublishAt != "" {
			fmt.Fprintf(w, "  Publish At:   %s\n", c.Upload.Metadata.PublishAt)
		}
		fmt.Fprintf(w, "  Pacing:       %s\n", c.Upload.PacingDelay)
		fmt.Fprintf(w, "  Token:        %s\n", c.Upload.TokenPath)
	}

	fmt.Fprintln(w, "\nHistory:")
	if c.History.Enabled {
		fmt.Fprintf(w, "  Database:     %s\n", c.History.Path)
	} else {
		fmt.Fprintln(w, "  Disabled")
	}
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
}

// PacingOrZero returns the pacing delay, or zero when uploads are disabled.
func (c *Config) PacingOrZero() time.Duration {
	if !c.Upload.Enabled {
		return 0
	}
	return c.Upload.PacingDelay
}
