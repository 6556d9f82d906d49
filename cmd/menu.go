package main

import (
	"errors"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tifye/crossroads/tui"
)

func newMenuCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Pick a custom or standard run from the interactive menu",
		RunE: func(cmd *cobra.Command, args []string) error {
			world, settings, err := loadSettings(v)
			if err != nil {
				return err
			}

			logger, closeLog, err := newMenuLogger(settings.Debug)
			if err != nil {
				return err
			}
			defer closeLog()

			m := tui.NewModel(tui.Options{
				Config:   world,
				Settings: settings,
				CanSpawn: true,
				Renderer: lipgloss.NewRenderer(os.Stdout),
				Logger:   logger,
			})

			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return err
			}
			return nil
		},
	}
}
