package orchestrator

import (
	"fmt"
	"io"
	"text/tabwriter"

	"tubeforge/internal/timeutil"
	"tubeforge/models"
)

// Summary counts item outcomes of a run.
type Summary struct {
	Total    int
	Done     int
	Failed   int
	Pending  int // not started because the run was cancelled
	Partial  int // done, with thumbnail/playlist warnings
	Fallback int // uploaded or kept without the transformation
}

// Summarize counts the outcomes of items.
func Summarize(items []*models.PipelineItem) Summary {
	s := Summary{Total: len(items)}
	for _, it := range items {
		switch it.Stage {
		case models.StageDone:
			s.Done++
			for _, w := range it.Warnings {
				if models.KindOf(w) == models.ErrPartialSuccess {
					s.Partial++
					break
				}
			}
		case models.StageFailed:
			s.Failed++
		case models.StagePending:
			s.Pending++
		}
		if it.EncodeFallback {
			s.Fallback++
		}
	}
	return s
}

// WriteReport prints one line per item and a summary line.
func WriteReport(w io.Writer, items []*models.PipelineItem) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSOURCE\tSTATUS\tTIME\tRESULT")
	for _, it := range items {
		result := it.RemoteURL
		switch {
		case it.Stage == models.StageFailed:
			result = it.Reason()
		case result == "":
			result = it.ArtifactPath
		}
		status := string(it.Stage)
		if it.EncodeFallback {
			status += " (unencoded)"
		}
		if n := len(it.Warnings); n > 0 && it.Stage == models.StageDone {
			status += fmt.Sprintf(" [%d warning(s)]", n)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", it.Index+1, it.Source.ID, status, elapsed(it), result)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	s := Summarize(items)
	_, err := fmt.Fprintf(w, "\n%d done, %d failed, %d not started (of %d)\n", s.Done, s.Failed, s.Pending, s.Total)
	return err
}

// elapsed is the wall time an item spent in the pipeline, "-" if it never
// started.
func elapsed(it *models.PipelineItem) string {
	if it.StartedAt.IsZero() || it.FinishedAt.IsZero() {
		return "-"
	}
	return timeutil.FormatSeconds(it.FinishedAt.Sub(it.StartedAt).Seconds())
}
