package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tubeforge/models"
)

func TestNewTracker_Weights(t *testing.T) {
	tests := []struct {
		name           string
		encode, upload bool
		offsets        map[models.Stage]float64
	}{
		{"all stages", true, true, map[models.Stage]float64{
			models.StageDownloading: 0, models.StageEncoding: 0.3, models.StageUploading: 0.6,
		}},
		{"download only", false, false, map[models.Stage]float64{
			models.StageDownloading: 0,
		}},
		{"no encode", false, true, map[models.Stage]float64{
			models.StageDownloading: 0, models.StageUploading: 0.3 / 0.7,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTracker(1, tt.encode, tt.upload, nil)
			assert.Len(t, tr.offsets, len(tt.offsets))
			for stage, off := range tt.offsets {
				assert.InDelta(t, off, tr.offsets[stage], 1e-9, string(stage))
			}
			sum := 0.0
			for _, w := range tr.weights {
				sum += w
			}
			assert.InDelta(t, 1.0, sum, 1e-9)
		})
	}
}

func TestTracker_Aggregate(t *testing.T) {
	var got []models.BatchProgress
	tr := newTracker(2, true, true, func(bp models.BatchProgress) { got = append(got, bp) })

	tr.begin(0)
	tr.enter(models.StageDownloading)
	tr.update(0.5)
	tr.enter(models.StageEncoding)
	tr.update(0.5)

	last := got[len(got)-1]
	assert.Equal(t, models.StageEncoding, last.Stage)
	assert.InDelta(t, 0.45, last.Current, 1e-9)
	assert.InDelta(t, 0.225, last.Fraction(), 1e-9)

	tr.finish(models.StageDone)
	last = got[len(got)-1]
	assert.Equal(t, 1, last.Completed)
	assert.Equal(t, 0.0, last.Current)
	assert.InDelta(t, 0.5, last.Fraction(), 1e-9)
}

func TestTracker_NeverGoesBack(t *testing.T) {
	var fractions []float64
	tr := newTracker(1, true, true, func(bp models.BatchProgress) { fractions = append(fractions, bp.Fraction()) })

	tr.begin(0)
	tr.enter(models.StageDownloading)
	tr.update(0.8)
	tr.update(0.2) // stale tick
	tr.update(-1)
	tr.enter(models.StageUploading) // encode skipped
	tr.update(2)

	for i := 1; i < len(fractions); i++ {
		assert.GreaterOrEqual(t, fractions[i], fractions[i-1])
	}
	assert.InDelta(t, 1.0, fractions[len(fractions)-1], 1e-9)
}

func TestTracker_IgnoresUpdatesOutsideStages(t *testing.T) {
	calls := 0
	tr := newTracker(1, false, false, func(models.BatchProgress) { calls++ })

	tr.begin(0)
	tr.update(0.5)

	assert.Equal(t, 0, calls)
}
