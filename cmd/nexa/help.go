package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func printHelp() {
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#f87171")).
		Bold(true).
		Render("N E X A P D F")

	tagline := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Italic(true).
		Render("Every PDF tool, one terminal.")

	cmdStyle := lipgloss.NewStyle().Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	commands := []struct{ cmd, desc string }{
		{"nexa", "Open the toolbox (interactive TUI)"},
		{"nexa login", "Sign in with username and password"},
		{"nexa signup", "Create an account"},
		{"nexa logout", "Clear your session"},
		{"nexa update", "Check for updates"},
		{"nexa terms", "Terms of Service"},
		{"nexa privacy", "Privacy Policy"},
		{"nexa support", "Get help"},
		{"nexa --version", "Show version"},
		{"nexa help", "You are here"},
	}

	fmt.Printf("\n  %s\n\n  %s\n\n  Commands:\n", title, tagline)
	for _, c := range commands {
		fmt.Printf("    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-20s", c.cmd)), descStyle.Render(c.desc))
	}
	url := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("https://nexapdf.com")
	fmt.Printf("\n  %s\n\n", url)
}
