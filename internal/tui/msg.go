// Package tui provides the live watch interface for analysis runs.
package tui

import "github.com/barkain/scout/internal/tracker"

// Msg is the interface for all watch TUI messages.
// All message types implement this sealed interface.
//
//sumtype:decl
type Msg interface {
	sealed()
}

// MsgTick is sent periodically to refresh the tracker snapshot.
type MsgTick struct {
	Snapshot tracker.Snapshot
}

func (MsgTick) sealed() {}

// MsgCancelDone is sent when a requested cancellation has settled.
type MsgCancelDone struct {
	Err error
}

func (MsgCancelDone) sealed() {}
