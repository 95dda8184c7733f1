// Package launch starts the external calendar application.
package launch

import (
	"errors"
	"fmt"
	"os/exec"

	appLog "hyprcal/internal/log"
)

// DefaultCommand opens Thunderbird on its calendar tab.
var DefaultCommand = []string{"thunderbird", "-calendar"}

// Launcher opens a full calendar view somewhere outside this program.
type Launcher interface {
	Launch() error
}

// Exec starts Command without waiting for it. The child is reaped in the
// background; its exit status is only logged.
type Exec struct {
	Command []string
}

func (e Exec) Launch() error {
	if len(e.Command) == 0 {
		return errors.New("launch: no command configured")
	}

	cmd := exec.Command(e.Command[0], e.Command[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch: start %s: %w", e.Command[0], err)
	}
	appLog.Info("calendar viewer started", "command", e.Command[0], "pid", cmd.Process.Pid)

	go func() {
		if err := cmd.Wait(); err != nil {
			appLog.Debug("calendar viewer exited", "command", e.Command[0], "reason", err.Error())
		}
	}()
	return nil
}
