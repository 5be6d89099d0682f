package app

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/konnect-cli/internal/api"
	"github.com/vovakirdan/konnect-cli/internal/chat"
	"github.com/vovakirdan/konnect-cli/internal/config"
	"github.com/vovakirdan/konnect-cli/internal/session"
	"github.com/vovakirdan/konnect-cli/internal/state"
	"github.com/vovakirdan/konnect-cli/internal/ui"
)

// App wires together state, session, api and chat layers.
type App struct {
	cfg config.Config
	log *zerolog.Logger

	Store   state.Store
	Session *session.Store
	API     *api.Client
	Engine  *chat.Engine
}

// New constructs the application with provided configuration. The local
// state store is opened and the previous session, if any, restored before
// any view renders.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := state.New(cfg.StatePath)
	if err != nil {
		return nil, fmt.Errorf("init state: %w", err)
	}

	logger.Info().Str("state_path", cfg.StatePath).Msg("state store opened")

	sess := session.NewStore(st, logger)
	sess.Restore()

	client := api.New(cfg.ServerURL, cfg.HTTPTimeout, logger)

	engine := chat.New(client, sess, st, chat.Options{
		BotEnabled:  cfg.BotEnabled,
		BotDelayMin: cfg.BotDelayMin,
		BotDelayMax: cfg.BotDelayMax,
	}, logger)

	return &App{
		cfg:     cfg,
		log:     logger,
		Store:   st,
		Session: sess,
		API:     client,
		Engine:  engine,
	}, nil
}

// Run starts the terminal UI and blocks until the user quits or the
// context is cancelled.
func (a *App) Run(ctx context.Context) error {
	model := ui.NewModel(ui.Deps{
		API:     a.API,
		Session: a.Session,
		Engine:  a.Engine,
		Log:     a.log,
	})

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	// Bot replies fire on a timer outside the update loop; wake the
	// program so the new message renders without a keypress.
	a.Engine.OnChange(func() {
		program.Send(ui.EngineChangedMsg{})
	})

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

// Close releases the engine's timers and the state store.
func (a *App) Close() {
	a.Engine.Reset()
	if err := a.Store.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close state store")
	} else {
		a.log.Info().Msg("state store closed")
	}
}
