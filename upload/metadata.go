package upload

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"tubeforge/models"
)

// Platform limits, counted in characters.
const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 5000
	MaxTagsLength        = 500
)

// Truncate returns the first max characters of s. Strings that fit are
// returned unchanged.
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

// NormalizeMetadata returns a copy of meta that satisfies the platform
// contract:
//   - title and description are truncated to their limits, never rejected
//   - privacy is canonicalized, an empty or unknown one becomes private
//   - a publish time is kept only for private videos
//   - blank tags are dropped and the tag list is cut at MaxTagsLength
func NormalizeMetadata(meta *models.UploadMetadata) *models.UploadMetadata {
	out := meta.Clone()

	out.Title = Truncate(out.Title, MaxTitleLength)
	out.Description = Truncate(out.Description, MaxDescriptionLength)

	privacy, err := models.ParsePrivacy(string(out.Privacy))
	if err != nil {
		privacy = models.PrivacyPrivate
	}
	out.Privacy = privacy
	if out.Privacy != models.PrivacyPrivate {
		out.PublishAt = nil
	}

	var tags []string
	total := 0
	for _, tag := range out.Tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		// the platform counts the separating comma
		cost := utf8.RuneCountInString(tag)
		if len(tags) > 0 {
			cost++
		}
		if total+cost > MaxTagsLength {
			break
		}
		total += cost
		tags = append(tags, tag)
	}
	out.Tags = tags

	return out
}

// MetadataTemplate renders per-item metadata for a batch.
//
// Title and Description may contain the placeholders {title}, {id} and
// {index} (1-based position in the batch). An empty Title template means
// "{title}".
type MetadataTemplate struct {
	Title             string   `yaml:"title"`
	Description       string   `yaml:"description"`
	Tags              []string `yaml:"tags"`
	CategoryID        string   `yaml:"category_id"`
	Privacy           string   `yaml:"privacy"`
	PlaylistID        string   `yaml:"playlist_id"`
	NotifySubscribers bool     `yaml:"notify_subscribers"`
	MadeForKids       bool     `yaml:"made_for_kids"`
	ThumbnailPath     string   `yaml:"thumbnail_path"`
	PublishAt         string   `yaml:"publish_at"` // RFC 3339, private videos only
}

// Render returns the metadata for the item at index (0-based) of a batch.
// Privacy and PublishAt are expected to have been validated already; invalid
// values fall back to private and no schedule.
func (t MetadataTemplate) Render(src models.Source, index int) *models.UploadMetadata {
	r := strings.NewReplacer(
		"{title}", src.Title,
		"{id}", src.ID,
		"{index}", strconv.Itoa(index+1),
	)

	title := t.Title
	if title == "" {
		title = "{title}"
	}

	privacy, err := models.ParsePrivacy(t.Privacy)
	if err != nil {
		privacy = models.PrivacyPrivate
	}

	meta := &models.UploadMetadata{
		Title:             r.Replace(title),
		Description:       r.Replace(t.Description),
		Tags:              append([]string(nil), t.Tags...),
		CategoryID:        t.CategoryID,
		Privacy:           privacy,
		PlaylistID:        t.PlaylistID,
		NotifySubscribers: t.NotifySubscribers,
		MadeForKids:       t.MadeForKids,
		ThumbnailPath:     t.ThumbnailPath,
	}
	if at, err := parsePublishAt(t.PublishAt); err == nil && !at.IsZero() {
		meta.PublishAt = &at
	}
	return meta
}

// Validate checks the fixed fields of the template.
func (t MetadataTemplate) Validate() error {
	if t.Privacy != "" {
		if _, err := models.ParsePrivacy(t.Privacy); err != nil {
			return err
		}
	}
	if _, err := parsePublishAt(t.PublishAt); err != nil {
		return models.NewError(models.ErrInvalidArgument, "metadata", fmt.Errorf("publish_at must be RFC 3339: %w", err))
	}
	return nil
}

func parsePublishAt(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, strings.TrimSpace(s))
}
