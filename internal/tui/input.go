package tui

import (
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
)

// maxInputLen is the maximum number of runes accepted by inline inputs.
// It matches the server's limit on mood notes.
const maxInputLen = 500

// editKey applies a keystroke to inline text. Backspace removes one rune;
// typed or pasted runes are appended up to maxInputLen. Every other key
// leaves the text unchanged.
func editKey(text string, msg tea.KeyMsg) string {
	switch msg.Type {
	case tea.KeyBackspace:
		if text == "" {
			return text
		}
		runes := []rune(text)
		return string(runes[:len(runes)-1])
	case tea.KeySpace:
		if utf8.RuneCountInString(text) >= maxInputLen {
			return text
		}
		return text + " "
	case tea.KeyRunes:
		if msg.Alt {
			return text
		}
		room := maxInputLen - utf8.RuneCountInString(text)
		if room <= 0 {
			return text
		}
		runes := msg.Runes
		if len(runes) > room {
			runes = runes[:room]
		}
		return text + string(runes)
	}
	return text
}

// truncateToHeight limits output to maxLines newline-delimited lines.
// Returns the original string if it fits or maxLines is <= 0.
func truncateToHeight(s string, maxLines int) string {
	if maxLines <= 0 {
		return s
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
			if n >= maxLines {
				return s[:i+1]
			}
		}
	}
	return s
}

// renderInput renders a single-line input with a prompt. Focused inputs
// show a blinking cursor driven by frame.
func renderInput(prompt, text, placeholder string, focused bool, frame int) string {
	p := inputPromptStyle.Render(prompt)
	if !focused {
		if text == "" {
			return p + inputPlaceholderStyle.Render(placeholder)
		}
		return p + dimStyle.Render(text)
	}
	cursor := " "
	if (frame/4)%2 == 0 {
		cursor = accentStyle.Render("█")
	}
	return p + searchStyle.Render(text) + cursor
}
