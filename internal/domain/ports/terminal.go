package ports

// Terminal is the rendering widget a session's output is replayed into.
// It is a pure consumer of output bytes and a pure producer of raw input
// bytes; escape-sequence interpretation happens inside the widget.
type Terminal interface {
	// Render feeds output data into the emulator.
	Render(data []byte)

	// Reset clears the screen grid. Called when the ledger shrinks and the
	// widget now shows a different logical session.
	Reset()

	// OnInput registers the keystroke handler and returns a detach function.
	// The bridge attaches this only after historical replay so that
	// emulator-generated escape responses never leak into session input.
	OnInput(fn func(data []byte)) (detach func())
}
