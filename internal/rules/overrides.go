package rules

import (
	"github.com/MikeSquared-Agency/vantage/internal/profile"
	ui "github.com/MikeSquared-Agency/vantage/internal/uiconfig"
)

// ApplySupportLevel adjusts cfg for the requested support level.
//
// High support forces minimal density and read-aloud and raises a default
// font size to xl; larger sizes are kept. Low support only demotes full
// density to moderate. Medium leaves cfg untouched.
func ApplySupportLevel(cfg ui.UIConfig, level profile.SupportLevel) ui.UIConfig {
	switch level {
	case profile.SupportHigh:
		cfg.InfoDensity = ui.DensityMinimal
		cfg.ReadAloud = true
		if cfg.FontSize == ui.SizeDefault {
			cfg.FontSize = ui.SizeXL
		}
	case profile.SupportLow:
		if cfg.InfoDensity == ui.DensityFull {
			cfg.InfoDensity = ui.DensityModerate
		}
	}
	return cfg
}

// ApplySensory applies sensory-sensitivity flags. It is idempotent.
func ApplySensory(cfg ui.UIConfig, s profile.Sensory) ui.UIConfig {
	if s.Light {
		cfg.ColorTheme = ui.ThemeDark
		cfg.Motion = ui.MotionOff
	}
	if s.Sound {
		cfg.ReadAloud = false
	}
	if s.Motion {
		cfg.Motion = ui.MotionOff
	}
	return cfg
}

// ApplyDensityPreference adopts the student's stated density only when it
// outranks the current one. A stronger rule-derived density is never
// weakened by a milder preference.
func ApplyDensityPreference(cfg ui.UIConfig, pref profile.Density) ui.UIConfig {
	if Rank(ui.InfoDensity, string(pref)) > Rank(ui.InfoDensity, cfg.InfoDensity) {
		cfg.InfoDensity = string(pref)
	}
	return cfg
}
