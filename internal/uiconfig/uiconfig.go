package uiconfig

import "fmt"

// Attribute names a UI configuration field. The names double as the label
// column names in training data and the JSON keys on the wire.
type Attribute string

const (
	ColorTheme   Attribute = "color_theme"
	FontFamily   Attribute = "font_family"
	FontSize     Attribute = "font_size"
	Motion       Attribute = "motion"
	InfoDensity  Attribute = "info_density"
	LargeTargets Attribute = "large_targets"
	ReadAloud    Attribute = "read_aloud"
	ProgressBars Attribute = "progress_bars"
	NoTimers     Attribute = "no_timers"
)

// CategoricalAttributes are resolved by priority rank when disorders conflict.
var CategoricalAttributes = []Attribute{ColorTheme, FontFamily, FontSize, Motion, InfoDensity}

// BooleanAttributes are OR-ed across disorders.
var BooleanAttributes = []Attribute{LargeTargets, ReadAloud, ProgressBars, NoTimers}

// Attribute values produced by the rule engine. Models may emit any label
// they were trained on, so these are not an exhaustive whitelist.
const (
	ThemeNeutral = "neutral"
	ThemeWarm    = "warm"
	ThemeCream   = "cream"
	ThemeDark    = "dark"
	ThemeCalm    = "calm"

	FontInter        = "inter"
	FontAtkinson     = "atkinson"
	FontLexend       = "lexend"
	FontNunito       = "nunito"
	FontOpenDyslexic = "opendyslexic"

	SizeDefault = "default"
	SizeLarge   = "large"
	SizeXL      = "xl"

	MotionOn      = "on"
	MotionReduced = "reduced"
	MotionOff     = "off"

	DensityMinimal  = "minimal"
	DensityModerate = "moderate"
	DensityFull     = "full"
)

// UIConfig is the full set of personalised UI settings for one student.
type UIConfig struct {
	ColorTheme   string `json:"color_theme"`
	FontFamily   string `json:"font_family"`
	FontSize     string `json:"font_size"`
	Motion       string `json:"motion"`
	InfoDensity  string `json:"info_density"`
	LargeTargets bool   `json:"large_targets"`
	ReadAloud    bool   `json:"read_aloud"`
	ProgressBars bool   `json:"progress_bars"`
	NoTimers     bool   `json:"no_timers"`
}

// NeutralDefault is the configuration for a profile with no disorders.
func NeutralDefault() UIConfig {
	return UIConfig{
		ColorTheme:  ThemeNeutral,
		FontFamily:  FontInter,
		FontSize:    SizeDefault,
		Motion:      MotionOn,
		InfoDensity: DensityFull,
	}
}

// Value returns the string value of a categorical attribute.
func (c UIConfig) Value(a Attribute) (string, error) {
	switch a {
	case ColorTheme:
		return c.ColorTheme, nil
	case FontFamily:
		return c.FontFamily, nil
	case FontSize:
		return c.FontSize, nil
	case Motion:
		return c.Motion, nil
	case InfoDensity:
		return c.InfoDensity, nil
	}
	return "", fmt.Errorf("%q is not a categorical attribute", a)
}

// WithValue returns a copy of c with categorical attribute a set to v.
func (c UIConfig) WithValue(a Attribute, v string) (UIConfig, error) {
	switch a {
	case ColorTheme:
		c.ColorTheme = v
	case FontFamily:
		c.FontFamily = v
	case FontSize:
		c.FontSize = v
	case Motion:
		c.Motion = v
	case InfoDensity:
		c.InfoDensity = v
	default:
		return c, fmt.Errorf("%q is not a categorical attribute", a)
	}
	return c, nil
}

// Flag returns the value of a boolean attribute.
func (c UIConfig) Flag(a Attribute) (bool, error) {
	switch a {
	case LargeTargets:
		return c.LargeTargets, nil
	case ReadAloud:
		return c.ReadAloud, nil
	case ProgressBars:
		return c.ProgressBars, nil
	case NoTimers:
		return c.NoTimers, nil
	}
	return false, fmt.Errorf("%q is not a boolean attribute", a)
}

// WithFlag returns a copy of c with boolean attribute a set to v.
func (c UIConfig) WithFlag(a Attribute, v bool) (UIConfig, error) {
	switch a {
	case LargeTargets:
		c.LargeTargets = v
	case ReadAloud:
		c.ReadAloud = v
	case ProgressBars:
		c.ProgressBars = v
	case NoTimers:
		c.NoTimers = v
	default:
		return c, fmt.Errorf("%q is not a boolean attribute", a)
	}
	return c, nil
}
