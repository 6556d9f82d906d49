package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := godotenv.Load(); err != nil {
		log.Debug("could not load .env file", "err", err)
	}

	Execute(ctx)
}

func newRootCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "crossroads",
		Short:        "A four way intersection in your terminal",
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	flags := cmd.PersistentFlags()
	flags.Int("tps", 0, "Frames per second (default 10)")
	flags.Uint64("seed1", 0, "First seed value, random when both seeds are 0")
	flags.Uint64("seed2", 0, "Second seed value, random when both seeds are 0")
	flags.Bool("debug", false, "Include debug logs")
	bindFlag(v, "TICKS_PER_SECOND", flags.Lookup("tps"))
	bindFlag(v, "SEED1", flags.Lookup("seed1"))
	bindFlag(v, "SEED2", flags.Lookup("seed2"))
	bindFlag(v, "DEBUG", flags.Lookup("debug"))

	cmd.AddCommand(
		newRunCommand(v),
		newMenuCommand(v),
	)
	return cmd
}

func Execute(ctx context.Context) {
	v := viper.New()
	v.AutomaticEnv()

	root := newRootCommand(v)
	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
