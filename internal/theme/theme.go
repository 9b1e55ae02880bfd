// Package theme turns a UI configuration into concrete design tokens.
package theme

import ui "github.com/MikeSquared-Agency/vantage/internal/uiconfig"

// Palette is the colour set for one theme.
type Palette struct {
	Background    string `json:"bg"`
	BackgroundAlt string `json:"bg_alt"`
	Text          string `json:"text"`
	Accent        string `json:"accent"`
	Surface       string `json:"surface"`
	Border        string `json:"border"`
	Subtext       string `json:"subtext"`
}

// Scale is a typographic size scale.
type Scale struct {
	Body       string `json:"body"`
	Heading    string `json:"heading"`
	Small      string `json:"small"`
	LineHeight string `json:"line_height"`
}

// Theme is what a client needs to render the configuration.
type Theme struct {
	Palette    Palette `json:"palette"`
	FontFamily string  `json:"font_family"`
	Sizes      Scale   `json:"sizes"`

	ReduceMotion bool `json:"reduce_motion"`
	LargeTargets bool `json:"large_targets"`
	ReadAloud    bool `json:"read_aloud"`
	ProgressBars bool `json:"progress_bars"`
	NoTimers     bool `json:"no_timers"`
	InfoMinimal  bool `json:"info_minimal"`
}

var palettes = map[string]Palette{
	ui.ThemeCream:   {"#FDF6E3", "#F5F0DC", "#1A1410", "#3B6FA0", "#FAFAF5", "#E8DFC8", "#5A4E3A"},
	ui.ThemeDark:    {"#1A1D2E", "#22253A", "#DADAE8", "#7B6FA0", "#252840", "#383B5A", "#9090A8"},
	ui.ThemeWarm:    {"#F5F0E8", "#EDE8DF", "#3A3028", "#4A9E9E", "#FAF7F2", "#DDD5C5", "#6B5E50"},
	ui.ThemeCalm:    {"#F5F8FB", "#EBF0F5", "#1E2533", "#069494", "#FFFFFF", "#D0DCE8", "#5A6A7A"},
	ui.ThemeNeutral: {"#F8F9FA", "#EFF2F7", "#2C2C2C", "#4A90C4", "#FFFFFF", "#E4E7ED", "#525252"},
}

var fonts = map[string]string{
	ui.FontInter:        `"Inter", "IBM Plex Sans", sans-serif`,
	ui.FontLexend:       `"Lexend", "Open Sans", sans-serif`,
	ui.FontAtkinson:     `"Atkinson Hyperlegible", "Verdana", sans-serif`,
	ui.FontNunito:       `"Nunito", "Open Sans", sans-serif`,
	ui.FontOpenDyslexic: `"OpenDyslexic", "Comic Sans MS", cursive`,
}

var scales = map[string]Scale{
	ui.SizeDefault: {"15px", "24px", "13px", "1.6"},
	ui.SizeLarge:   {"17px", "26px", "14px", "1.7"},
	ui.SizeXL:      {"19px", "28px", "15px", "1.85"},
}

// Build resolves cfg into tokens. Unknown values fall back to the neutral
// palette, the Inter stack and the default scale.
func Build(cfg ui.UIConfig) Theme {
	p, ok := palettes[cfg.ColorTheme]
	if !ok {
		p = palettes[ui.ThemeNeutral]
	}
	f, ok := fonts[cfg.FontFamily]
	if !ok {
		f = fonts[ui.FontInter]
	}
	s, ok := scales[cfg.FontSize]
	if !ok {
		s = scales[ui.SizeDefault]
	}
	return Theme{
		Palette:      p,
		FontFamily:   f,
		Sizes:        s,
		ReduceMotion: cfg.Motion != ui.MotionOn,
		LargeTargets: cfg.LargeTargets,
		ReadAloud:    cfg.ReadAloud,
		ProgressBars: cfg.ProgressBars,
		NoTimers:     cfg.NoTimers,
		InfoMinimal:  cfg.InfoDensity == ui.DensityMinimal,
	}
}
