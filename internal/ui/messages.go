package ui

import (
	"github.com/linuxmatters/lidtone/internal/engine"
)

// StatusMsg carries a control loop snapshot to the monitor
type StatusMsg struct {
	Status engine.Status
}

// DoneMsg indicates the engine has stopped
type DoneMsg struct {
	Summary engine.Summary
	Err     error
}
