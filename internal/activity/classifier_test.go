package activity

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		chunk string
		want  Signal
	}{
		{"plain output", "compiling module foo...", SignalRunning},
		{"empty chunk", "", SignalRunning},
		{"confirmation prompt", "Do you want to apply these changes?", SignalWaiting},
		{"yn prompt", "Overwrite existing file? (y/n)", SignalWaiting},
		{"permission request", "Permission required to run shell command", SignalWaiting},
		{"press enter", "Press Enter to continue", SignalWaiting},
		{"done marker", "Task complete. 3 files changed.", SignalDone},
		{"finished", "Finished. Exiting.", SignalDone},
		{"completed", "Build completed successfully", SignalDone},
		{"mixed case", "ALL DONE", SignalDone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.chunk); got != tt.want {
				t.Errorf("Classify(%q) = %s, want %s", tt.chunk, got, tt.want)
			}
		})
	}
}

func TestClassifyWaitingWinsOverDone(t *testing.T) {
	// A completion summary followed by a question is still a question.
	chunk := "Task complete. Do you want to commit the changes? (y/n)"
	if got := Classify(chunk); got != SignalWaiting {
		t.Errorf("Classify(%q) = %s, want %s", chunk, got, SignalWaiting)
	}
}

func TestClassifyCaseInsensitive(t *testing.T) {
	if got := Classify("DO YOU WANT TO proceed?"); got != SignalWaiting {
		t.Errorf("expected waiting for uppercase prompt, got %s", got)
	}
}
