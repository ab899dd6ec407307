// Package app wires the synchronization pipeline together: host connection,
// session registry, event dispatcher, reconnection coordinator, render
// bridges and local state persistence.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/brianly1003/termsync/internal/activity"
	"github.com/brianly1003/termsync/internal/bridge"
	"github.com/brianly1003/termsync/internal/config"
	"github.com/brianly1003/termsync/internal/diag"
	"github.com/brianly1003/termsync/internal/dispatch"
	"github.com/brianly1003/termsync/internal/domain"
	"github.com/brianly1003/termsync/internal/domain/ports"
	"github.com/brianly1003/termsync/internal/host"
	"github.com/brianly1003/termsync/internal/reconnect"
	"github.com/brianly1003/termsync/internal/session"
	"github.com/brianly1003/termsync/internal/statestore"
)

const defaultOpTimeout = 10 * time.Second

// App is the top-level client application.
type App struct {
	cfg *config.Config

	client      *host.Client
	registry    *session.Registry
	coordinator *reconnect.Coordinator
	dispatcher  *dispatch.Dispatcher
	store       *statestore.Store
	diagSrv     *diag.Server

	mu      sync.Mutex
	started bool

	// bridges has its own lock: onFlush runs on the dispatcher goroutine,
	// and dispatcher.Stop blocks on that goroutine's final flush, so bridge
	// lookups must never contend with the lifecycle lock.
	bridgeMu sync.Mutex
	bridges  map[string]*bridge.Bridge
}

// New creates an application from configuration. Nothing is connected until
// Start is called.
func New(cfg *config.Config) *App {
	return &App{
		cfg:     cfg,
		bridges: make(map[string]*bridge.Bridge),
	}
}

// Start connects to the process host, restores persisted state, reconciles
// with the host's live session list and starts the event pipeline.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return fmt.Errorf("app already started")
	}

	client, err := host.Dial(a.cfg.Host.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to host: %w", err)
	}
	a.client = client

	activityStore := activity.NewStore(time.Duration(a.cfg.Activity.IdleWindowSecs) * time.Second)
	a.registry = session.NewRegistry(activityStore)

	a.coordinator = reconnect.New(client, a.registry,
		reconnect.WithTimeout(time.Duration(a.cfg.Reconnect.TimeoutSecs)*time.Second),
		reconnect.WithCooldown(time.Duration(a.cfg.Reconnect.CooldownSecs)*time.Second),
	)

	if a.cfg.State.Path != "" {
		store, err := statestore.Open(a.cfg.State.Path)
		if err != nil {
			// Persistence is an optimization; run without it.
			log.Warn().Err(err).Str("path", a.cfg.State.Path).Msg("state store unavailable, continuing without persistence")
		} else {
			a.store = store
			a.restorePersisted()
		}
	}

	if err := a.reconcile(ctx); err != nil {
		log.Warn().Err(err).Msg("initial session reconciliation failed")
	}

	a.dispatcher = dispatch.New(a.registry, client.Events(),
		dispatch.WithFlushInterval(time.Duration(a.cfg.Dispatch.FlushIntervalMS)*time.Millisecond),
		dispatch.WithOnStopped(a.onStopped),
		dispatch.WithOnFlush(a.onFlush),
	)
	if err := a.dispatcher.Start(); err != nil {
		return fmt.Errorf("failed to start dispatcher: %w", err)
	}

	if a.cfg.Diag.Enabled {
		a.diagSrv = diag.New(a.cfg.Diag.Addr, a.registry, a.coordinator, a.cfg.Diag.Pprof)
		a.diagSrv.Start()
	}

	a.started = true
	log.Info().Str("host", a.cfg.Host.URL).Int("sessions", len(a.registry.Sessions())).Msg("termsync started")
	return nil
}

// Stop tears the pipeline down in reverse order. The lifecycle lock is
// released before teardown: dispatcher.Stop waits for the final flush, which
// calls back into onFlush.
func (a *App) Stop(ctx context.Context) {
	a.mu.Lock()
	if !a.started {
		a.mu.Unlock()
		return
	}
	a.started = false
	a.mu.Unlock()

	if a.diagSrv != nil {
		if err := a.diagSrv.Stop(ctx); err != nil {
			log.Warn().Err(err).Msg("diagnostics server shutdown failed")
		}
	}
	if a.dispatcher != nil {
		if err := a.dispatcher.Stop(); err != nil {
			log.Warn().Err(err).Msg("dispatcher shutdown failed")
		}
	}
	a.bridgeMu.Lock()
	for id, b := range a.bridges {
		b.Close()
		delete(a.bridges, id)
	}
	a.bridgeMu.Unlock()
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			log.Warn().Err(err).Msg("state store close failed")
		}
	}
	if a.client != nil {
		if err := a.client.Shutdown(); err != nil {
			log.Debug().Err(err).Msg("host connection close failed")
		}
	}
	log.Info().Msg("termsync stopped")
}

// Done is closed when the host connection drops.
func (a *App) Done() <-chan struct{} {
	return a.client.Done()
}

// Registry exposes the session registry for read-side consumers.
func (a *App) Registry() *session.Registry {
	return a.registry
}

// Coordinator exposes the reconnection coordinator.
func (a *App) Coordinator() *reconnect.Coordinator {
	return a.coordinator
}

// restorePersisted loads sessions from the state store into the registry so
// the UI has something to show before the host answers.
func (a *App) restorePersisted() {
	infos, err := a.store.LoadSessions()
	if err != nil {
		log.Warn().Err(err).Msg("failed to load persisted sessions")
		return
	}
	for _, info := range infos {
		a.registry.Add(session.FromInfo(info))
	}
	if len(infos) > 0 {
		log.Debug().Int("count", len(infos)).Msg("restored persisted sessions")
	}
}

// reconcile replaces the restored view with the host's live session list and
// seeds each session's output ledger from host history.
func (a *App) reconcile(ctx context.Context) error {
	infos, err := a.client.List(ctx)
	if err != nil {
		return err
	}

	live := make(map[string]bool, len(infos))
	for _, info := range infos {
		live[info.ID] = true
		a.registry.Add(session.FromInfo(info))
		a.registry.UpdateStatus(info.ID, info.Status)
		a.persistSession(info)

		history, err := a.client.History(ctx, info.ID)
		if err != nil {
			log.Warn().Err(err).Str("session_id", info.ID).Msg("failed to fetch session history")
			continue
		}
		a.registry.Ledger().Replace(info.ID, history)
	}

	// Drop persisted sessions the host no longer knows about.
	for _, s := range a.registry.Sessions() {
		id := s.ToInfo().ID
		if !live[id] {
			a.registry.Remove(id)
			a.deletePersisted(id)
		}
	}

	log.Debug().Int("live", len(infos)).Msg("session list reconciled")
	return nil
}

// onStopped runs on the dispatcher goroutine whenever a session transitions
// to stopped.
func (a *App) onStopped(sessionID string) {
	if s, ok := a.registry.Get(sessionID); ok {
		a.persistSession(s.ToInfo())
	}
	a.coordinator.HandleStopped(sessionID)
}

// onFlush runs after the dispatcher commits batched output to the ledger.
func (a *App) onFlush(sessionID string) {
	a.bridgeMu.Lock()
	b := a.bridges[sessionID]
	a.bridgeMu.Unlock()
	if b == nil {
		return
	}
	if err := b.Sync(); err != nil {
		log.Debug().Err(err).Str("session_id", sessionID).Msg("bridge sync failed")
	}
}

// CreateSession asks the host for a new session and registers it.
func (a *App) CreateSession(ctx context.Context, spec ports.SessionSpec) (*session.Info, error) {
	info, err := a.client.Create(ctx, spec)
	if err != nil {
		return nil, err
	}
	a.registry.Add(session.FromInfo(info))
	a.persistSession(info)
	return info, nil
}

// WriteInput forwards terminal input to the host. Write failures feed the
// reconnection coordinator.
func (a *App) WriteInput(ctx context.Context, sessionID string, data []byte) error {
	err := a.client.Write(ctx, sessionID, data)
	if err != nil {
		a.coordinator.HandleWriteFailure(sessionID, err)
	}
	return err
}

// Resize propagates a terminal resize to the host.
func (a *App) Resize(ctx context.Context, sessionID string, cols, rows int) error {
	return a.client.Resize(ctx, sessionID, cols, rows)
}

// CloseSession closes the session on the host and purges all local state
// for it.
func (a *App) CloseSession(ctx context.Context, sessionID string) error {
	if err := a.client.Close(ctx, sessionID); err != nil {
		return err
	}
	a.DetachTerminal(sessionID)
	a.registry.Remove(sessionID)
	a.coordinator.Forget(sessionID)
	a.deletePersisted(sessionID)
	return nil
}

// RestartSession restarts a stopped session's process. The ledger is cleared
// since the host starts a fresh scrollback for the new process.
func (a *App) RestartSession(ctx context.Context, sessionID string) (*session.Info, error) {
	info, err := a.client.Restart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	a.registry.Ledger().Clear(sessionID)
	a.registry.UpdateStatus(sessionID, info.Status)
	a.coordinator.Reset(sessionID)
	a.persistSession(info)
	return info, nil
}

// SwitchAgent switches the agent backing a session. The host replaces the
// process, so the local output ledger is cleared.
func (a *App) SwitchAgent(ctx context.Context, sessionID, agentID string) (*session.Info, error) {
	info, err := a.client.SwitchAgent(ctx, sessionID, agentID)
	if err != nil {
		return nil, err
	}
	a.registry.ClearOutput(sessionID)
	a.registry.UpdateStatus(sessionID, info.Status)
	a.persistSession(info)
	return info, nil
}

// RefreshHistory re-seeds a session's ledger from host history, bumping the
// ledger generation so any attached bridge repaints from scratch.
func (a *App) RefreshHistory(ctx context.Context, sessionID string) error {
	history, err := a.client.History(ctx, sessionID)
	if err != nil {
		return err
	}
	a.registry.Ledger().Replace(sessionID, history)
	a.onFlush(sessionID)
	return nil
}

// AttachTerminal binds a terminal widget to a session: replays the ledger,
// arms input forwarding and marks the session active for its project.
func (a *App) AttachTerminal(sessionID string, term ports.Terminal) (*bridge.Bridge, error) {
	if _, ok := a.registry.Get(sessionID); !ok {
		return nil, domain.ErrSessionNotFound
	}

	a.bridgeMu.Lock()
	if old := a.bridges[sessionID]; old != nil {
		old.Close()
	}
	b := bridge.New(sessionID, a.registry.Ledger(), term, func(data []byte) error {
		ctx, cancel := context.WithTimeout(context.Background(), defaultOpTimeout)
		defer cancel()
		return a.WriteInput(ctx, sessionID, data)
	})
	a.bridges[sessionID] = b
	a.bridgeMu.Unlock()

	if err := b.Sync(); err != nil {
		return nil, err
	}

	a.registry.SetActive(sessionID)
	if a.store != nil {
		if projectID, ok := a.registry.Unseen().ProjectFor(sessionID); ok {
			if err := a.store.SetActiveSession(projectID, sessionID); err != nil {
				log.Warn().Err(err).Msg("failed to persist active session")
			}
		}
	}
	return b, nil
}

// DetachTerminal tears down the bridge for a session, if any.
func (a *App) DetachTerminal(sessionID string) {
	a.bridgeMu.Lock()
	defer a.bridgeMu.Unlock()
	if b := a.bridges[sessionID]; b != nil {
		b.Close()
		delete(a.bridges, sessionID)
	}
}

// LastActiveSession returns the persisted active session for a project.
func (a *App) LastActiveSession(projectID string) string {
	if a.store == nil {
		return ""
	}
	id, err := a.store.ActiveSession(projectID)
	if err != nil {
		log.Warn().Err(err).Str("project_id", projectID).Msg("failed to load active session")
		return ""
	}
	return id
}

func (a *App) persistSession(info *session.Info) {
	if a.store == nil {
		return
	}
	if err := a.store.SaveSession(info); err != nil {
		log.Warn().Err(err).Str("session_id", info.ID).Msg("failed to persist session")
	}
}

func (a *App) deletePersisted(sessionID string) {
	if a.store == nil {
		return
	}
	if err := a.store.DeleteSession(sessionID); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("failed to delete persisted session")
	}
}
