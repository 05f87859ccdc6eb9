package models

import (
	"fmt"
	"strings"
	"time"
)

// Source is one video to process, as supplied by the source resolver.
type Source struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Validate checks that the source can be processed.
func (s Source) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return NewError(ErrInvalidArgument, "source", fmt.Errorf("source id cannot be empty"))
	}
	return nil
}

// Stage is the position of a pipeline item in the download/encode/upload flow.
type Stage string

const (
	StagePending     Stage = "pending"
	StageDownloading Stage = "downloading"
	StageEncoding    Stage = "encoding"
	StageUploading   Stage = "uploading"
	StageDone        Stage = "done"
	StageFailed      Stage = "failed"
)

// Terminal reports whether no further transition is possible.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageFailed
}

// transitions lists the forward moves allowed from each non-terminal stage.
// StageFailed is reachable from all of them and is handled separately.
var transitions = map[Stage][]Stage{
	StagePending:     {StageDownloading},
	StageDownloading: {StageEncoding, StageUploading, StageDone},
	StageEncoding:    {StageUploading, StageDone},
	StageUploading:   {StageDone},
}

// CanTransition reports whether an item may move from s to next.
func (s Stage) CanTransition(next Stage) bool {
	if s.Terminal() {
		return false
	}
	if next == StageFailed {
		return true
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PipelineItem is one unit of work tracked through the pipeline.
//
// Items are owned by the orchestrator for the duration of a run and mutated
// only by it; callers read them once the run returns.
type PipelineItem struct {
	Index  int    `json:"index"`
	Source Source `json:"source"`
	Stage  Stage  `json:"stage"`

	// ArtifactPath is the file produced by the most recently completed stage.
	ArtifactPath string `json:"artifact_path,omitempty"`
	DownloadPath string `json:"download_path,omitempty"`
	EncodedPath  string `json:"encoded_path,omitempty"`

	// EncodeFallback is set when encoding failed and the downloaded file was
	// carried forward in its place.
	EncodeFallback bool `json:"encode_fallback,omitempty"`

	RemoteID  string `json:"remote_id,omitempty"`
	RemoteURL string `json:"remote_url,omitempty"`

	Err      error   `json:"-"`
	Warnings []error `json:"-"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// NewPipelineItem creates a pending item for the source at position index.
func NewPipelineItem(index int, source Source) *PipelineItem {
	return &PipelineItem{
		Index:  index,
		Source: source,
		Stage:  StagePending,
	}
}

// Advance moves the item to next, rejecting transitions the state machine
// does not allow.
func (it *PipelineItem) Advance(next Stage) error {
	if !it.Stage.CanTransition(next) {
		return fmt.Errorf("item %d: invalid transition %s -> %s", it.Index, it.Stage, next)
	}
	if it.Stage == StagePending {
		it.StartedAt = time.Now()
	}
	it.Stage = next
	if next.Terminal() {
		it.FinishedAt = time.Now()
	}
	return nil
}

// Fail moves the item to StageFailed and records why. Failing an item that is
// already terminal is a no-op so the first recorded reason wins.
func (it *PipelineItem) Fail(err error) {
	if it.Stage.Terminal() {
		return
	}
	if err == nil {
		err = fmt.Errorf("unknown failure")
	}
	it.Err = err
	_ = it.Advance(StageFailed)
}

// Reason returns the human-readable failure reason, or "" if the item did not fail.
func (it *PipelineItem) Reason() string {
	if it.Err == nil {
		return ""
	}
	return it.Err.Error()
}

// BatchProgress is the aggregate progress of a run. It is recomputed on every
// tick and never persisted.
type BatchProgress struct {
	Completed int     `json:"completed"` // Items that reached a terminal stage
	Total     int     `json:"total"`
	Current   float64 `json:"current"` // Intra-item fraction of the active item, in [0, 1]
	ItemIndex int     `json:"item_index"`
	Stage     Stage   `json:"stage"`
}

// Fraction returns (Completed + Current) / Total, clamped to [0, 1].
func (b BatchProgress) Fraction() float64 {
	if b.Total <= 0 {
		return 0
	}
	return clampFraction((float64(b.Completed) + b.Current) / float64(b.Total))
}
