package ui

import (
	"image/color"

	"charm.land/lipgloss/v2"
)

// Theme defines the colors and styles used to draw views.
type Theme struct {
	TitleColor     color.Color // Title bar text
	SeparatorColor color.Color // Rule under the title
	MnemonicColor  color.Color // Shortcut character of a choice
	SelectedFG     color.Color // Highlighted choice foreground
	SelectedBG     color.Color // Highlighted choice background
	HeaderFG       color.Color // Result table header
	MutedColor     color.Color // Breadcrumbs, hints and placeholders
	StatusInfo     color.Color // Informational status text
	StatusError    color.Color // Error status text
	SpinnerColor   color.Color // Busy indicator
}

// DefaultTheme is the dark-terminal palette.
func DefaultTheme() Theme {
	return Theme{
		TitleColor:     lipgloss.Color("12"),
		SeparatorColor: lipgloss.Color("240"),
		MnemonicColor:  lipgloss.Color("214"),
		SelectedFG:     lipgloss.Color("230"),
		SelectedBG:     lipgloss.Color("62"),
		HeaderFG:       lipgloss.Color("39"),
		MutedColor:     lipgloss.Color("244"),
		StatusInfo:     lipgloss.Color("10"),
		StatusError:    lipgloss.Color("9"),
		SpinnerColor:   lipgloss.Color("205"),
	}
}

// styles are the lipgloss styles derived from a Theme.
type styles struct {
	title     lipgloss.Style
	crumbs    lipgloss.Style
	separator lipgloss.Style
	mnemonic  lipgloss.Style
	selected  lipgloss.Style
	muted     lipgloss.Style
	info      lipgloss.Style
	err       lipgloss.Style
	label     lipgloss.Style
	spinner   lipgloss.Style
}

func newStyles(th Theme, noColor bool) styles {
	if noColor {
		plain := lipgloss.NewStyle()
		return styles{
			title:     plain.Bold(true),
			crumbs:    plain,
			separator: plain,
			mnemonic:  plain.Underline(true),
			selected:  plain.Reverse(true),
			muted:     plain,
			info:      plain,
			err:       plain.Bold(true),
			label:     plain.Bold(true),
			spinner:   plain,
		}
	}
	return styles{
		title:     lipgloss.NewStyle().Foreground(th.TitleColor).Bold(true),
		crumbs:    lipgloss.NewStyle().Foreground(th.MutedColor),
		separator: lipgloss.NewStyle().Foreground(th.SeparatorColor),
		mnemonic:  lipgloss.NewStyle().Foreground(th.MnemonicColor).Bold(true).Underline(true),
		selected:  lipgloss.NewStyle().Foreground(th.SelectedFG).Background(th.SelectedBG),
		muted:     lipgloss.NewStyle().Foreground(th.MutedColor),
		info:      lipgloss.NewStyle().Foreground(th.StatusInfo),
		err:       lipgloss.NewStyle().Foreground(th.StatusError).Bold(true),
		label:     lipgloss.NewStyle().Foreground(th.HeaderFG).Bold(true),
		spinner:   lipgloss.NewStyle().Foreground(th.SpinnerColor),
	}
}
