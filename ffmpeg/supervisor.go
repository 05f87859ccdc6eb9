// Package ffmpeg supervises ffmpeg encoder processes: it locates the
// executable, launches encodes, turns diagnostic output into progress and
// interprets how the process ended.
package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"tubeforge/command/transform"
	"tubeforge/internal/logx"
	"tubeforge/internal/procexec"
	"tubeforge/models"
)

// MediaProber reads stream metadata of a media file. ffprobe.Prober
// implements it.
type MediaProber interface {
	SampleRate(ctx context.Context, path string) (int, error)
	Duration(ctx context.Context, path string) (float64, error)
}

// Supervisor runs encode jobs with a fixed executable and codec settings.
//
// A Supervisor holds no per-job state and may run several jobs concurrently,
// though the orchestrator uses it serially.
type Supervisor struct {
	executable string
	settings   transform.Settings
	prober     MediaProber
	waitDelay  time.Duration
	logger     zerolog.Logger
}

// NewSupervisor creates a supervisor for the ffmpeg at executable.
func NewSupervisor(executable string, settings transform.Settings, logger zerolog.Logger) *Supervisor {
	return &Supervisor{
		executable: executable,
		settings:   settings,
		waitDelay:  procexec.DefaultWaitDelay,
		logger:     logger.With().Str("component", "supervisor").Logger(),
	}
}

// SetProber makes the supervisor read the input's duration up front, and its
// sample rate before pitch shifting instead of assuming settings.SampleRate.
func (s *Supervisor) SetProber(p MediaProber) *Supervisor {
	s.prober = p
	return s
}

// SetWaitDelay bounds how long a killed process may hold its output open.
func (s *Supervisor) SetWaitDelay(d time.Duration) *Supervisor {
	s.waitDelay = d
	return s
}

// Executable returns the ffmpeg path this supervisor launches.
func (s *Supervisor) Executable() string {
	return s.executable
}

// Command returns the argument builder for job, as Run would invoke it.
func (s *Supervisor) Command(job *models.EncodeJob) *transform.Builder {
	return transform.NewBuilder(job, s.settings).SetExecutable(s.executable)
}

// Run encodes job and blocks until the encoder exits or ctx is cancelled.
//
// observer, if non-nil, receives non-decreasing fractions in [0, 1] as the
// encode proceeds, and 1 on success. It is called from the goroutine reading
// the encoder's output.
//
// Run never returns nil and never returns an error separately; the outcome,
// including its reason, is carried by the result:
//   - Succeeded: the output file exists
//   - Failed: invalid job (ErrInvalidArgument), missing input or executable
//     (ErrNotFound), non-zero exit (ErrProcessFailure with the exit code)
//   - Cancelled: ctx was cancelled; the process has been killed
//
// A partially written output is removed on failure and cancellation.
func (s *Supervisor) Run(ctx context.Context, job *models.EncodeJob, observer models.ProgressFunc) *models.EncodeResult {
	start := time.Now()
	log := s.logger.With().Str("input", job.InputPath).Str("output", job.OutputPath).Logger()

	if err := job.Validate(); err != nil {
		return models.NewEncodeResultFailure(err, time.Since(start))
	}
	if _, err := os.Stat(job.InputPath); err != nil {
		return models.NewEncodeResultFailure(models.NewError(models.ErrNotFound, "encode", err), time.Since(start))
	}
	if err := ctx.Err(); err != nil {
		return models.NewEncodeResultCancelled(err, time.Since(start))
	}
	if err := os.MkdirAll(filepath.Dir(job.OutputPath), 0o755); err != nil {
		return models.NewEncodeResultFailure(models.NewError(models.ErrProcessFailure, "encode", err), time.Since(start))
	}

	settings := s.settings
	if job.Transform.Pitch != nil && s.prober != nil {
		rate, err := s.prober.SampleRate(ctx, job.InputPath)
		if err != nil {
			log.Warn().Err(err).Int("assumed_rate", settings.SampleRate).Msg("could not read input sample rate")
		} else {
			settings.SampleRate = rate
		}
	}

	args := transform.NewBuilder(job, settings).BuildArgs()
	monitor := NewProgressMonitor()
	if job.Transform.Speed != nil {
		monitor.SetSpeed(*job.Transform.Speed)
	}
	if s.prober != nil {
		// the encoder's own header is the fallback
		if d, err := s.prober.Duration(ctx, job.InputPath); err != nil {
			log.Debug().Err(err).Msg("could not read input duration")
		} else {
			monitor.SetDuration(d)
		}
	}
	monitor.SetState(models.ProgressStateStarting)
	lines := logx.NewLineWriter(log, map[string]string{"proc": "ffmpeg"}, zerolog.DebugLevel)
	nextLog := 0.1

	log.Info().Strs("args", args).Msg("starting encoder")

	err := procexec.Run(ctx, procexec.Command{
		Path:      s.executable,
		Args:      args,
		Stream:    procexec.Stderr,
		WaitDelay: s.waitDelay,
	}, func(line string) {
		lines.Line(line)
		fraction, ok := monitor.ParseLine(line)
		if !ok {
			return
		}
		if fraction >= nextLog {
			nextLog = float64(int(fraction*10)+1) / 10
			snap := monitor.Snapshot()
			log.Debug().Msg(snap.FormatSummary())
		}
		if observer != nil {
			observer(fraction)
		}
	})
	elapsed := time.Since(start)

	switch {
	case errors.Is(err, models.ErrCancelled):
		s.removePartial(job.OutputPath)
		snap := monitor.SetState(models.ProgressStateCancelled)
		log.Warn().Dur("elapsed", elapsed).Str("state", string(snap.State)).Msg(snap.FormatSummary())
		return models.NewEncodeResultCancelled(ctx.Err(), elapsed)
	case err != nil:
		s.removePartial(job.OutputPath)
		snap := monitor.SetState(models.ProgressStateFailed)
		log.Error().Err(err).Dur("elapsed", elapsed).Str("state", string(snap.State)).Msg(snap.FormatSummary())
		return models.NewEncodeResultFailure(err, elapsed)
	}

	if _, statErr := os.Stat(job.OutputPath); statErr != nil {
		monitor.SetState(models.ProgressStateFailed)
		err := models.NewError(models.ErrProcessFailure, "encode", fmt.Errorf("encoder exited cleanly but produced no output: %w", statErr))
		return models.NewEncodeResultFailure(err, elapsed)
	}

	if observer != nil {
		observer(1)
	}
	snap := monitor.SetState(models.ProgressStateCompleted)
	log.Info().Dur("elapsed", elapsed).Str("state", string(snap.State)).
		Float64("duration", snap.TotalDuration).Float64("speed", snap.Speed).Msg("encode finished")

	result, err := models.NewEncodeResultSuccess(job.OutputPath, elapsed)
	if err != nil {
		return models.NewEncodeResultFailure(err, elapsed)
	}
	return result
}

func (s *Supervisor) removePartial(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn().Err(err).Str("output", path).Msg("could not remove partial output")
	}
}
