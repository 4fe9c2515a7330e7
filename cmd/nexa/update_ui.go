package main

import "fmt"

// ANSI color constants for update output (no lipgloss — runs outside TUI).
const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiItalic = "\033[3m"
	ansiCoral  = "\033[38;2;248;113;113m" // #f87171
	ansiRed    = "\033[38;2;239;68;68m"   // #ef4444
	ansiGold   = "\033[38;2;212;168;68m"  // #d4a844
	ansiSlate  = "\033[38;2;136;144;160m" // #8890a0
)

// printUpdateLogo prints the spaced NEXAPDF wordmark in alternating reds.
func printUpdateLogo() {
	letters := "NEXAPDF"
	colors := [2]string{ansiCoral, ansiRed}
	fmt.Print("\n  ")
	for i, ch := range letters {
		fmt.Printf("%s%s%c%s", colors[i%2], ansiBold, ch, ansiReset)
		if i < len(letters)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// printUpdateSuccess prints the update-complete message.
func printUpdateSuccess(oldVersion, newVersion string) {
	printUpdateLogo()
	fmt.Printf("\n  %s%s%s  %s%s→%s  %s%s%s%s\n",
		ansiSlate, oldVersion, ansiReset,
		ansiCoral, ansiBold, ansiReset,
		ansiCoral, ansiBold, newVersion, ansiReset,
	)
	fmt.Printf("\n  %s│%s %s%sUp to date. Back to your documents.%s\n\n", ansiGold, ansiReset, ansiSlate, ansiItalic, ansiReset)
}

// printAlreadyCurrent prints the already-up-to-date message.
func printAlreadyCurrent(currentVersion string) {
	printUpdateLogo()
	fmt.Printf("\n  %s%s%s%s  %s%s✦%s  %s%scurrent%s\n",
		ansiCoral, ansiBold, currentVersion, ansiReset,
		ansiGold, ansiBold, ansiReset,
		ansiSlate, ansiItalic, ansiReset,
	)
	fmt.Printf("\n  %s│%s %s%sAlready on the latest release.%s\n\n", ansiGold, ansiReset, ansiSlate, ansiItalic, ansiReset)
}
