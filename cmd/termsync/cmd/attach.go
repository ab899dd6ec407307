package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/brianly1003/termsync/internal/app"
)

var attachProject string

// attachCmd connects to the host and binds the current terminal to a session.
var attachCmd = &cobra.Command{
	Use:   "attach [session-id]",
	Short: "Attach this terminal to a session",
	Long: `Attach the current terminal to a session managed by the process host.

The session's output history is replayed first, then live output is
streamed and keystrokes are forwarded to the session. If no session ID
is given, --project selects the project's last-active session.

Examples:
  termsync attach 4f2c9a10
  termsync attach --project my-repo`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAttach,
}

func init() {
	attachCmd.Flags().StringVar(&attachProject, "project", "", "attach to the project's last-active session")
}

func runAttach(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	setupLogging(cfg)

	application := app.New(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := application.Start(ctx); err != nil {
		return err
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		application.Stop(shutdownCtx)
	}()

	sessionID := ""
	if len(args) > 0 {
		sessionID = args[0]
	} else if attachProject != "" {
		sessionID = application.LastActiveSession(attachProject)
	}
	if sessionID == "" {
		return fmt.Errorf("no session selected; pass a session ID or --project")
	}

	term := newStdioTerminal()
	if _, err := application.AttachTerminal(sessionID, term); err != nil {
		return fmt.Errorf("failed to attach to session %s: %w", sessionID, err)
	}

	log.Info().Str("session_id", sessionID).Msg("attached")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	case <-application.Done():
		log.Warn().Msg("host connection lost")
	}

	application.DetachTerminal(sessionID)
	return nil
}

// stdioTerminal adapts the process's stdin/stdout to the Terminal port.
type stdioTerminal struct {
	mu      sync.Mutex
	input   func(data []byte)
	reading bool
}

func newStdioTerminal() *stdioTerminal {
	return &stdioTerminal{}
}

func (t *stdioTerminal) Render(data []byte) {
	_, _ = os.Stdout.Write(data)
}

func (t *stdioTerminal) Reset() {
	// Clear screen and home the cursor.
	_, _ = os.Stdout.WriteString("\x1b[2J\x1b[H")
}

func (t *stdioTerminal) OnInput(fn func(data []byte)) func() {
	t.mu.Lock()
	t.input = fn
	if !t.reading {
		t.reading = true
		go t.readStdin()
	}
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		t.input = nil
		t.mu.Unlock()
	}
}

func (t *stdioTerminal) readStdin() {
	buf := make([]byte, 1024)
	for {
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			t.mu.Lock()
			fn := t.input
			t.mu.Unlock()
			if fn != nil {
				data := make([]byte, n)
				copy(data, buf[:n])
				fn(data)
			}
		}
		if err != nil {
			return
		}
	}
}
