// Package activity classifies terminal output into coarse activity signals
// and applies the recency decay that downgrades stale activity to idle.
package activity

import "strings"

// Signal is a coarse semantic classification of recent session output.
type Signal string

const (
	SignalRunning Signal = "running"
	SignalWaiting Signal = "waiting_for_user"
	SignalDone    Signal = "done"
	SignalIdle    Signal = "idle"
)

// waitingMarkers are phrases agents emit when blocked on user input:
// confirmation prompts, permission requests, y/n questions. Matching is
// case-insensitive.
var waitingMarkers = []string{
	"do you want to",
	"would you like to",
	"proceed?",
	"continue?",
	"press enter",
	"(y/n)",
	"[y/n]",
	"[y/n]:",
	"yes/no",
	"permission required",
	"allow this",
	"waiting for your input",
	"approve this",
}

// doneMarkers are completion phrases that indicate the agent finished its
// current task and is not asking anything.
var doneMarkers = []string{
	"task complete",
	"all done",
	"✓ done",
	"done.",
	"completed successfully",
	"finished.",
	"nothing left to do",
}

// Classify maps a raw output chunk to an activity signal. Waiting markers win
// over done markers; anything else means the agent is still producing output.
func Classify(chunk string) Signal {
	lower := strings.ToLower(chunk)

	for _, marker := range waitingMarkers {
		if strings.Contains(lower, marker) {
			return SignalWaiting
		}
	}

	for _, marker := range doneMarkers {
		if strings.Contains(lower, marker) {
			return SignalDone
		}
	}

	return SignalRunning
}
