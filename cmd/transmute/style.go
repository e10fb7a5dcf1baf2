package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/dusk-indust/transmute/internal/orchestrator"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	workingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// styleProgress renders a progress line with a colour per status.
func styleProgress(event orchestrator.ProgressEvent) string {
	line := orchestrator.FormatProgress(event)
	switch event.Status {
	case orchestrator.ProgressWorking:
		return workingStyle.Render(line)
	case orchestrator.ProgressComplete:
		return doneStyle.Render(line)
	case orchestrator.ProgressFailed:
		return failStyle.Render(line)
	default:
		return dimStyle.Render(line)
	}
}

// printProgress writes events until the channel is closed, then closes done.
func printProgress(w io.Writer, events <-chan orchestrator.ProgressEvent, done chan<- struct{}) {
	defer close(done)
	for event := range events {
		fmt.Fprintln(w, styleProgress(event))
	}
}
