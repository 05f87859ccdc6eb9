// Package procexec runs external tools (ffmpeg, yt-dlp) under a context and
// streams their output line by line.
package procexec

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os/exec"
	"strings"
	"time"

	"tubeforge/models"
)

// DefaultWaitDelay bounds how long Run waits for output pipes to drain after
// the process has been killed.
const DefaultWaitDelay = 2 * time.Second

// tailLines is the number of trailing output lines kept for error messages.
const tailLines = 5

// Stream selects which output of the child process is read.
type Stream int

const (
	Stderr Stream = iota
	Stdout
)

// Command describes a child process.
type Command struct {
	Path      string
	Args      []string
	Dir       string
	Stream    Stream
	WaitDelay time.Duration // zero means DefaultWaitDelay
}

// LineFunc receives each non-empty line of output.
type LineFunc func(line string)

// ScanLines is a bufio.SplitFunc that splits on '\n', '\r' or "\r\n".
//
// FFmpeg redraws its status line with a bare carriage return, so splitting on
// '\n' alone would deliver a whole encode as one line.
func ScanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\r' {
			if i+1 < len(data) {
				if data[i+1] == '\n' {
					return i + 2, data[:i], nil
				}
			} else if !atEOF {
				// need one more byte to tell "\r" from "\r\n"
				return 0, nil, nil
			}
		}
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// Run starts the command, delivers its output to onLine and waits for it to
// exit.
//
// When ctx is cancelled the process is killed, so Run returns within
// roughly WaitDelay of cancellation.
//
// Returns an error matching:
//   - models.ErrNotFound if the executable cannot be started
//   - models.ErrCancelled if ctx was cancelled before the process exited
//   - models.ErrProcessFailure (with ExitCode) on a non-zero exit
func Run(ctx context.Context, c Command, onLine LineFunc) error {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Dir = c.Dir
	cmd.WaitDelay = c.WaitDelay
	if cmd.WaitDelay == 0 {
		cmd.WaitDelay = DefaultWaitDelay
	}

	var (
		pipe io.ReadCloser
		err  error
	)
	if c.Stream == Stdout {
		pipe, err = cmd.StdoutPipe()
	} else {
		pipe, err = cmd.StderrPipe()
	}
	if err != nil {
		return models.NewError(models.ErrProcessFailure, c.name(), err)
	}

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return models.NewError(models.ErrNotFound, c.name(), err)
		}
		if ctx.Err() != nil {
			return models.NewError(models.ErrCancelled, c.name(), ctx.Err())
		}
		return models.NewError(models.ErrProcessFailure, c.name(), err)
	}

	tail := newTail(tailLines)
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		sc := bufio.NewScanner(pipe)
		sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
		sc.Split(ScanLines)
		for sc.Scan() {
			line := sc.Text()
			if strings.TrimSpace(line) == "" {
				continue
			}
			tail.add(line)
			if onLine != nil {
				onLine(line)
			}
		}
	}()

	// Reads must finish before Wait closes the pipe, unless we are tearing
	// the process down anyway.
	select {
	case <-readDone:
	case <-ctx.Done():
	}
	waitErr := cmd.Wait()
	<-readDone

	if ctx.Err() != nil {
		return models.NewError(models.ErrCancelled, c.name(), ctx.Err())
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			e := models.NewError(models.ErrProcessFailure, c.name(), tail.err())
			e.ExitCode = exitErr.ExitCode()
			return e
		}
		return models.NewError(models.ErrProcessFailure, c.name(), waitErr)
	}
	return nil
}

// Output runs the command and returns its complete stdout.
// Errors follow the same taxonomy as Run.
func Output(ctx context.Context, c Command) ([]byte, error) {
	c.Stream = Stdout
	var buf bytes.Buffer
	err := Run(ctx, c, func(line string) {
		buf.WriteString(line)
		buf.WriteByte('\n')
	})
	return buf.Bytes(), err
}

func (c Command) name() string {
	if c.Path == "" {
		return "exec"
	}
	return baseName(c.Path)
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

// tail keeps the last n lines of output.
type tail struct {
	n     int
	lines []string
}

func newTail(n int) *tail {
	return &tail{n: n}
}

func (t *tail) add(line string) {
	t.lines = append(t.lines, line)
	if len(t.lines) > t.n {
		t.lines = t.lines[len(t.lines)-t.n:]
	}
}

func (t *tail) err() error {
	if len(t.lines) == 0 {
		return nil
	}
	return fmt.Errorf("%s", strings.Join(t.lines, " | "))
}
