package ffmpeg

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"

	"tubeforge/models"
)

// systemDirs are searched after the working directory and before PATH.
var systemDirs = []string{
	"/usr/local/bin",
	"/usr/bin",
	"/opt/homebrew/bin",
	"/opt/local/bin",
	"/snap/bin",
}

type located struct {
	once sync.Once
	path string
	err  error
}

var (
	locateMu sync.Mutex
	memo     = map[string]*located{}
)

// Locate finds the ffmpeg executable. See LocateTool.
func Locate(explicit string) (string, error) {
	return LocateTool("ffmpeg", explicit)
}

// LocateTool finds the executable called name and memoizes the answer for
// the lifetime of the process.
//
// When explicit is set it is the only candidate: a path must be an
// executable file, a bare name is resolved through PATH. Otherwise the search
// order is: the directory of the running binary, ./name, ./bin/name, well-known
// system directories, then PATH. The first executable file wins.
//
// Returns an error matching models.ErrNotFound if nothing is found.
func LocateTool(name, explicit string) (string, error) {
	key := name + "\x00" + explicit

	locateMu.Lock()
	l, ok := memo[key]
	if !ok {
		l = &located{}
		memo[key] = l
	}
	locateMu.Unlock()

	l.once.Do(func() {
		l.path, l.err = locate(name, explicit)
	})
	return l.path, l.err
}

func locate(name, explicit string) (string, error) {
	if explicit == "" {
		return Probe(name, Candidates(name), isExecutable, exec.LookPath)
	}
	if filepath.Base(explicit) == explicit {
		return Probe(explicit, nil, isExecutable, exec.LookPath)
	}
	if !isExecutable(explicit) {
		return "", models.NewError(models.ErrNotFound, "locate", fmt.Errorf("%s: not an executable file", explicit))
	}
	return filepath.Abs(explicit)
}

// Candidates returns the ordered file paths probed for name before PATH.
func Candidates(name string) []string {
	file := name
	if runtime.GOOS == "windows" {
		file += ".exe"
	}

	var out []string
	if self, err := os.Executable(); err == nil {
		out = append(out, filepath.Join(filepath.Dir(self), file))
	}
	out = append(out,
		filepath.Join(".", file),
		filepath.Join(".", "bin", file),
	)
	for _, dir := range systemDirs {
		out = append(out, filepath.Join(dir, file))
	}
	return out
}

// Probe returns the first candidate accepted by isExec, falling back to
// lookPath(name) when none is.
func Probe(name string, candidates []string, isExec func(string) bool, lookPath func(string) (string, error)) (string, error) {
	for _, c := range candidates {
		if isExec(c) {
			if abs, err := filepath.Abs(c); err == nil {
				return abs, nil
			}
			return c, nil
		}
	}
	if lookPath != nil {
		if p, err := lookPath(name); err == nil {
			return p, nil
		}
	}
	return "", models.NewError(models.ErrNotFound, "locate", fmt.Errorf("%s not found in %d locations or PATH", name, len(candidates)))
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
