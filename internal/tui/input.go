package tui

import (
	"strings"
	"unicode/utf8"
)

// maxInputLen is the maximum number of runes allowed in form inputs.
const maxInputLen = 2000

// editRune processes a keystroke for inline text editing.
// Handles backspace (rune-aware) and single printable characters.
// Returns the text unchanged for non-printable keys (enter, esc, etc.).
// Input is clamped to maxInputLen runes.
func editRune(text string, key string) string {
	switch key {
	case "backspace":
		if len(text) > 0 {
			runes := []rune(text)
			return string(runes[:len(runes)-1])
		}
		return text
	case "space":
		key = " "
	}
	if utf8.RuneCountInString(key) == 1 {
		if utf8.RuneCountInString(text) >= maxInputLen {
			return text
		}
		return text + key
	}
	return text
}

// formField is one line of an inline form.
type formField struct {
	key         string
	label       string
	placeholder string
	value       string
	required    bool
	secret      bool
}

// renderField renders a labeled form field with cursor blink when focused.
func renderField(f formField, focused bool, animFrame int) string {
	label := dimStyle.Render(f.label)
	if focused {
		label = selectedStyle.Render(f.label)
	}

	shown := f.value
	if f.secret {
		shown = strings.Repeat("•", utf8.RuneCountInString(f.value))
	}

	var body string
	switch {
	case shown == "" && !focused:
		body = inputPlaceholderStyle.Render(f.placeholder)
	case focused:
		cursor := " "
		if (animFrame/4)%2 == 0 {
			cursor = accentStyle.Render("█")
		}
		body = normalStyle.Render(shown) + cursor
	default:
		body = normalStyle.Render(shown)
	}

	marker := "  "
	if focused {
		marker = inputPromptStyle.Render("> ")
	}
	return " " + marker + label + "  " + body
}
