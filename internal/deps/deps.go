// Package deps inspects the external tools scribe shells out to.
package deps

import (
	"os/exec"
	"strings"
)

// Status reports whether an external dependency is usable.
type Status struct {
	Installed bool
	Path      string
	Version   string
}

// CheckWhisperCli reports whether the whisper.cpp CLI is on PATH. The
// local transcription engine cannot run without it.
func CheckWhisperCli() Status {
	path, err := exec.LookPath("whisper-cli")
	if err != nil {
		return Status{Installed: false}
	}

	status := Status{
		Installed: true,
		Path:      path,
	}

	output, err := exec.Command(path, "--version").Output()
	if err == nil {
		lines := strings.Split(string(output), "\n")
		if len(lines) > 0 {
			status.Version = strings.TrimSpace(lines[0])
		}
	}

	return status
}
