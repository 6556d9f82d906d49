package tui

import (
	"context"
	"errors"
	"fmt"
	"net"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	wishssh "github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	wishTea "github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	"github.com/tifye/crossroads/assert"
	"github.com/tifye/crossroads/driver"
	"github.com/tifye/crossroads/sim"
	gossh "golang.org/x/crypto/ssh"
)

// SSHApp serves the menu and simulation over SSH. Every session runs
// its own simulation.
type SSHApp struct {
	s      *wishssh.Server
	logger *log.Logger
}

type SSHAppOptions struct {
	Host        string
	Port        string
	HostKeyPath string
	// OperatorsPath is an authorized_keys file. Sessions whose key is
	// listed may add cars by hand. Empty means nobody may.
	OperatorsPath string
	Config        sim.Config
	Settings      driver.RunSettings
}

func NewSSHApp(opts SSHAppOptions, logger *log.Logger) (*SSHApp, error) {
	assert.AssertNotNil(logger)
	logger = logger.WithPrefix("ssh")

	ops := newOperators(opts.OperatorsPath)
	s, err := wish.NewServer(
		wish.WithAddress(net.JoinHostPort(opts.Host, opts.Port)),
		wish.WithHostKeyPath(opts.HostKeyPath),
		wish.WithPublicKeyAuth(func(ctx wishssh.Context, key wishssh.PublicKey) bool {
			return true
		}),
		wish.WithKeyboardInteractiveAuth(func(ctx wishssh.Context, challenger gossh.KeyboardInteractiveChallenge) bool {
			return true
		}),
		wish.WithMiddleware(
			wishTea.Middleware(teaHandler(opts, ops, logger)),
			activeterm.Middleware(),
			logging.MiddlewareWithLogger(logger),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create new wish server: %s", err)
	}

	return &SSHApp{
		s:      s,
		logger: logger,
	}, nil
}

func (s *SSHApp) Start() {
	go func() {
		err := s.s.ListenAndServe()
		if err != nil && !errors.Is(err, wishssh.ErrServerClosed) {
			s.logger.Error("Could not serve server", "error", err)
		}
	}()
}

func (s *SSHApp) Stop(ctx context.Context) error {
	err := s.s.Shutdown(ctx)
	if err != nil && !errors.Is(err, wishssh.ErrServerClosed) {
		return err
	}
	return nil
}

func teaHandler(opts SSHAppOptions, ops *operators, logger *log.Logger) wishTea.Handler {
	return func(s wishssh.Session) (tea.Model, []tea.ProgramOption) {
		pty, _, _ := s.Pty()

		canSpawn, err := ops.isOperator(s.PublicKey())
		if err != nil {
			logger.Error("Failed to lookup operator", "error", err)
		}

		logger.Info("session", "user", s.User(), "term", pty.Term,
			"width", pty.Window.Width, "height", pty.Window.Height, "operator", canSpawn)

		m := NewModel(Options{
			Config:   opts.Config,
			Settings: opts.Settings,
			CanSpawn: canSpawn,
			Renderer: wishTea.MakeRenderer(s),
			Logger:   logger.With("user", s.User()),
		})
		return m, []tea.ProgramOption{tea.WithAltScreen()}
	}
}
