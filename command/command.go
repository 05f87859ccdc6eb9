// Package command provides the Command interface implemented by the argument
// builders for the external tools the pipeline drives.
//
// Builders only assemble argument lists; launching and supervising the
// process is the job of the ffmpeg and download packages. Keeping the two
// apart lets dry runs print exactly what would be executed.
package command

import "strings"

// TaskType represents the kind of external task a command performs.
type TaskType string

const (
	TaskTypeTransform TaskType = "transform" // Re-encode with a filter graph
	TaskTypeDownload  TaskType = "download"  // Fetch a source video
)

// Command represents an external tool invocation that can be built or
// previewed.
//
// Example usage:
//
//	job := &models.EncodeJob{InputPath: "in.mp4", OutputPath: "out.mp4", Transform: spec}
//	cmd := transform.NewBuilder(job, transform.DefaultSettings())
//
//	// Preview the command
//	line, _ := cmd.DryRun()
//
//	// Hand the arguments to a supervisor
//	args := cmd.BuildArgs()
type Command interface {
	// BuildArgs constructs and returns the tool arguments as a slice, without
	// the executable itself.
	//
	// Example return value:
	//   ["-i", "in.mp4", "-vf", "hflip", "-c:v", "libx264", ..., "-y", "out.mp4"]
	BuildArgs() []string

	// DryRun returns the command as a single shell-like string without
	// executing it.
	//
	// Returns an error if the command cannot be built (e.g., invalid parameters).
	DryRun() (string, error)

	// GetTaskType returns the type of task.
	GetTaskType() TaskType

	// GetInputPath returns the primary input of this command: a file path or,
	// for downloads, the source identifier.
	GetInputPath() string

	// GetOutputPath returns the output file path for this command.
	GetOutputPath() string
}

// FormatCommandLine joins an executable and its arguments, quoting arguments
// that contain whitespace or shell metacharacters.
func FormatCommandLine(executable string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, quote(executable))
	for _, a := range args {
		parts = append(parts, quote(a))
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n\"'`$\\*?[]()&;|<>") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
