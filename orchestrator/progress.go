package orchestrator

import (
	"sync"

	"tubeforge/models"
)

// BatchObserver receives aggregate progress after every observable tick.
type BatchObserver func(models.BatchProgress)

// Stage weights of an item's progress span. Weights of disabled stages are
// redistributed over the enabled ones.
const (
	WeightDownload = 0.3
	WeightEncode   = 0.3
	WeightUpload   = 0.4
)

// tracker aggregates per-stage fractions into batch progress.
//
// The reported value never decreases during a run: within an item every
// stage starts where the previous one's span ends, and finishing an item
// counts it as a whole.
type tracker struct {
	mu       sync.Mutex
	observer BatchObserver

	total     int
	completed int
	index     int
	stage     models.Stage

	offsets map[models.Stage]float64 // span start of each enabled stage
	weights map[models.Stage]float64 // normalized span width

	current float64 // fraction of the active item, in [0, 1]
}

func newTracker(total int, encode, upload bool, observer BatchObserver) *tracker {
	stages := []models.Stage{models.StageDownloading}
	raw := map[models.Stage]float64{models.StageDownloading: WeightDownload}
	if encode {
		stages = append(stages, models.StageEncoding)
		raw[models.StageEncoding] = WeightEncode
	}
	if upload {
		stages = append(stages, models.StageUploading)
		raw[models.StageUploading] = WeightUpload
	}

	sum := 0.0
	for _, s := range stages {
		sum += raw[s]
	}
	t := &tracker{
		observer: observer,
		total:    total,
		offsets:  make(map[models.Stage]float64, len(stages)),
		weights:  make(map[models.Stage]float64, len(stages)),
		stage:    models.StagePending,
	}
	offset := 0.0
	for _, s := range stages {
		t.offsets[s] = offset
		t.weights[s] = raw[s] / sum
		offset += raw[s] / sum
	}
	return t
}

// begin starts the item at index.
func (t *tracker) begin(index int) {
	t.mu.Lock()
	t.index = index
	t.current = 0
	t.stage = models.StagePending
	t.mu.Unlock()
}

// enter moves the active item into stage. Skipped stages leave a jump, never
// a step back.
func (t *tracker) enter(stage models.Stage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stage = stage
	if off, ok := t.offsets[stage]; ok && off > t.current {
		t.current = off
	}
	t.emit()
}

// update reports the active stage's own fraction.
func (t *tracker) update(fraction float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	w, ok := t.weights[t.stage]
	if !ok {
		return
	}
	if fraction < 0 || fraction != fraction {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	v := t.offsets[t.stage] + w*fraction
	if v > 1 {
		v = 1
	}
	if v <= t.current {
		return
	}
	t.current = v
	t.emit()
}

// finish counts the active item as completed, whatever its outcome.
func (t *tracker) finish(stage models.Stage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.completed++
	t.current = 0
	t.stage = stage
	t.emit()
}

func (t *tracker) snapshot() models.BatchProgress {
	return models.BatchProgress{
		Completed: t.completed,
		Total:     t.total,
		Current:   t.current,
		ItemIndex: t.index,
		Stage:     t.stage,
	}
}

func (t *tracker) emit() {
	if t.observer != nil {
		t.observer(t.snapshot())
	}
}
