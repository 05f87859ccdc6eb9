// Package download fetches source videos to local files.
package download

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"tubeforge/models"
)

// Option is a concrete format chosen for a source.
type Option struct {
	FormatID string // format id or selector understood by the backend
	Ext      string
	Height   int
	Muxed    bool // single file with audio and video, no merge needed
	FileSize int64
}

func (o *Option) String() string {
	if o.Height > 0 {
		return fmt.Sprintf("%s (%dp %s)", o.FormatID, o.Height, o.Ext)
	}
	return o.FormatID
}

// Downloader resolves and downloads sources. Both operations honor ctx
// cancellation and return errors from the models taxonomy.
type Downloader interface {
	// ResolveBestOption picks the best format for sourceID whose height does
	// not exceed maxHeight (0 means no limit).
	ResolveBestOption(ctx context.Context, sourceID string, maxHeight int) (*Option, error)

	// Download writes the source in the given format to destPath, reporting
	// fractions in [0, 1] to progress when non-nil.
	Download(ctx context.Context, destPath, sourceID string, opt *Option, progress models.ProgressFunc) error
}

// ParseQuality converts a quality preference such as "720p", "1080" or "best"
// into a maximum height. "best" and "" mean no limit (0).
func ParseQuality(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "best" {
		return 0, nil
	}
	n, err := strconv.Atoi(strings.TrimSuffix(s, "p"))
	if err != nil || n <= 0 {
		return 0, models.NewError(models.ErrInvalidArgument, "quality",
			fmt.Errorf("invalid quality %q, expected e.g. 720p, 1080 or best", s))
	}
	return n, nil
}
