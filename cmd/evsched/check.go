package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"evsched/internal/config"
	"evsched/internal/gateway"
	"evsched/internal/model"
	"evsched/internal/schedule"
	"evsched/internal/suggest"
)

var (
	titleStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("230")).
			Padding(0, 1)
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	conflictStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	windowStyle   = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)
)

type slotFlags struct {
	date, time, location string
}

func (f *slotFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.date, "date", "", "event date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.time, "time", "", "start time (HH:MM or HH:MM:SS)")
	cmd.Flags().StringVar(&f.location, "location", "", "venue")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("time")
	_ = cmd.MarkFlagRequired("location")
}

func (f slotFlags) slot() (model.Slot, error) {
	d, err := model.ParseDate(f.date)
	if err != nil {
		return model.Slot{}, fmt.Errorf("--date: %w", err)
	}
	t, err := model.ParseTimeOfDay(f.time)
	if err != nil {
		return model.Slot{}, fmt.Errorf("--time: %w", err)
	}
	return model.NewSlot(d, t, f.location), nil
}

func newCheckCmd(configPath *string) *cobra.Command {
	var (
		flags   slotFlags
		exclude int64
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report whether a venue slot is already booked",
		RunE: func(cmd *cobra.Command, _ []string) error {
			slot, err := flags.slot()
			if err != nil {
				return err
			}
			app, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer app.Close()

			ce, err := app.Events.CheckSlot(cmd.Context(), slot, exclude)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderCheck(slot, ce))
			if ce != nil {
				return errSlotTaken
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().Int64Var(&exclude, "exclude", 0, "event id to ignore, for checking a reschedule")
	return cmd
}

func newSuggestCmd(configPath *string) *cobra.Command {
	var flags slotFlags
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Ask the configured provider for alternative venues",
		RunE: func(cmd *cobra.Command, _ []string) error {
			slot, err := flags.slot()
			if err != nil {
				return err
			}
			cfg, err := gateway.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			provider := suggest.New(cfg.SuggestConfig(), config.NewLogger(cfg.LogLevel, os.Stderr))
			list := provider.Suggest(cmd.Context(), *slot.Location, *slot.Date, *slot.Time)
			fmt.Fprintln(cmd.OutOrStdout(), renderSuggestions(slot, list))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func renderCheck(slot model.Slot, ce *schedule.ConflictError) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Slot check") + "\n\n")
	b.WriteString(slot.String() + "\n\n")
	if ce == nil {
		b.WriteString(okStyle.Render("Available"))
		return windowStyle.Render(b.String())
	}
	b.WriteString(conflictStyle.Render("Booked") + "\n")
	b.WriteString(ce.Message + "\n")
	b.WriteString(suggestionLines(ce.Suggestions))
	return windowStyle.Render(b.String())
}

func renderSuggestions(slot model.Slot, list []string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Venue suggestions") + "\n\n")
	b.WriteString("Alternatives to " + slot.String() + "\n")
	b.WriteString(suggestionLines(list))
	return windowStyle.Render(b.String())
}

func suggestionLines(list []string) string {
	if len(list) == 0 {
		return "\n" + helpStyle.Render("No suggestions available.")
	}
	var b strings.Builder
	b.WriteString("\nSuggestions:")
	for i, s := range list {
		fmt.Fprintf(&b, "\n  %d. %s", i+1, s)
	}
	return b.String()
}
