package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/tifye/crossroads/api"
	"github.com/tifye/crossroads/driver"
	"github.com/tifye/crossroads/sim"
	"github.com/tifye/crossroads/stream"
	"github.com/tifye/crossroads/tui"
)

const shutdownTimeout = 5 * time.Second

func main() {
	config := viper.New()
	config.AutomaticEnv()

	err := godotenv.Load()
	if err != nil {
		log.Warn("could not load .env file", "err", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	logger := log.NewWithOptions(os.Stdout, log.Options{
		Level:           log.InfoLevel,
		ReportTimestamp: true,
	})

	err = run(ctx, logger, config)
	if err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *log.Logger, config *viper.Viper) error {
	config.SetDefault("PORT", 6565)
	port := config.GetInt("PORT")

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("net listen: %s", err)
	}

	deps, cfs, err := initDependencies(ctx, logger, config)
	if err != nil {
		return fmt.Errorf("init deps: %s", err)
	}
	defer func() {
		if err := cfs.Cleanup(); err != nil {
			logger.Error("cleanup funcs", "err", err)
		}
	}()

	s := api.NewServer(logger.WithPrefix("api"), deps)
	go func() {
		logger.Printf("serving on %s", ln.Addr())
		err := s.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err = s.Shutdown(closeCtx)
	if err != nil {
		return fmt.Errorf("server shutdown: %s", err)
	}

	return nil
}

// initDependencies starts the shared simulation and everything that
// watches it. The returned cleanup funcs stop them again.
func initDependencies(ctx context.Context, logger *log.Logger, config *viper.Viper) (deps *api.ServerDependencies, cfs CleanupFuncs, err error) {
	defer func() {
		if err == nil {
			return
		}

		if ferr := cfs.Cleanup(); ferr != nil {
			err = errors.Join(err, ferr)
		}
	}()

	world, err := driver.LoadConfig(config)
	if err != nil {
		return nil, cfs, err
	}
	settings, err := driver.LoadRunSettings(config)
	if err != nil {
		return nil, cfs, fmt.Errorf("load run settings: %w", err)
	}
	if settings.Debug {
		logger.SetLevel(log.DebugLevel)
	}

	s, err := sim.New(world, settings.Rand(), sim.WithLogger(logger.WithPrefix("sim")))
	if err != nil {
		return nil, cfs, fmt.Errorf("new simulation: %w", err)
	}
	logger.Info("simulation ready",
		"grid", fmt.Sprintf("%dx%d", world.GridWidth, world.GridHeight),
		"tps", settings.TicksPerSecond, "seed1", settings.Seed1, "seed2", settings.Seed2)

	config.SetDefault("SNAPSHOT_TTL", 5*time.Second)
	store := api.NewSnapshotStore(config.GetDuration("SNAPSHOT_TTL"))

	hub := stream.NewHub(logger.WithPrefix("hub"))
	api.RegisterSpectatorHandlers(logger.WithPrefix("spectate"), hub, store)
	publisher := api.NewPublisher(logger.WithPrefix("publisher"), store, hub, s.Geometry())

	d := driver.New(logger.WithPrefix("driver"), s, settings.TicksPerSecond)
	runCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() {
		err := d.Run(runCtx, 0, func(f sim.Frame) error {
			return publisher.Publish(f, s.Cars())
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("driver stopped", "err", err)
		}
		done <- err
	}()
	cfs.Defer(func() error {
		stop()
		if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("driver: %s", err)
		}
		return nil
	})

	if hostKeyPath := config.GetString("SSH_HOST_KEY_PATH"); hostKeyPath != "" {
		config.SetDefault("SSH_PORT", "23234")
		app, err := tui.NewSSHApp(tui.SSHAppOptions{
			Host:          config.GetString("SSH_HOST"),
			Port:          config.GetString("SSH_PORT"),
			HostKeyPath:   hostKeyPath,
			OperatorsPath: config.GetString("SSH_OPERATORS_PATH"),
			Config:        world,
			Settings:      settings,
		}, logger)
		if err != nil {
			return nil, cfs, fmt.Errorf("new ssh app: %s", err)
		}
		app.Start()
		cfs.DeferShutdown(shutdownTimeout, app.Stop)
	} else {
		logger.Debug("ssh app disabled, SSH_HOST_KEY_PATH not set")
	}

	auth := api.AuthConfig{
		OTPSecret:  config.GetString("OTP_SECRET"),
		SigningKey: []byte(config.GetString("JWT_SIGNING_KEY")),
		TokenTTL:   config.GetDuration("JWT_TTL"),
	}
	if !auth.Enabled() {
		logger.Warn("OTP_SECRET or JWT_SIGNING_KEY not set, control routes disabled")
	}

	return &api.ServerDependencies{
		Snapshots: store,
		Hub:       hub,
		Spawner:   d,
		Auth:      auth,
	}, cfs, nil
}
