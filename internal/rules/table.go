package rules

import (
	"github.com/MikeSquared-Agency/vantage/internal/profile"
	ui "github.com/MikeSquared-Agency/vantage/internal/uiconfig"
)

// DisorderRules is each disorder's preferred configuration on its own.
var DisorderRules = map[profile.Disorder]ui.UIConfig{
	profile.ADHD: {
		ColorTheme:   ui.ThemeNeutral,
		FontFamily:   ui.FontInter,
		FontSize:     ui.SizeLarge,
		Motion:       ui.MotionReduced,
		InfoDensity:  ui.DensityMinimal,
		LargeTargets: true,
		ReadAloud:    true,
		ProgressBars: true,
		NoTimers:     true,
	},
	profile.ASD: {
		ColorTheme:   ui.ThemeWarm,
		FontFamily:   ui.FontAtkinson,
		FontSize:     ui.SizeDefault,
		Motion:       ui.MotionOff,
		InfoDensity:  ui.DensityMinimal,
		ReadAloud:    true,
		ProgressBars: true,
		NoTimers:     true,
	},
	profile.Dyslexia: {
		ColorTheme:   ui.ThemeCream,
		FontFamily:   ui.FontLexend,
		FontSize:     ui.SizeXL,
		Motion:       ui.MotionReduced,
		InfoDensity:  ui.DensityModerate,
		ReadAloud:    true,
		ProgressBars: true,
	},
	profile.Dyscalculia: {
		ColorTheme:   ui.ThemeNeutral,
		FontFamily:   ui.FontInter,
		FontSize:     ui.SizeLarge,
		Motion:       ui.MotionReduced,
		InfoDensity:  ui.DensityMinimal,
		ReadAloud:    true,
		ProgressBars: true, // visual only, no percentages
		NoTimers:     true,
	},
	profile.Dyspraxia: {
		ColorTheme:   ui.ThemeNeutral,
		FontFamily:   ui.FontAtkinson,
		FontSize:     ui.SizeLarge,
		Motion:       ui.MotionReduced,
		InfoDensity:  ui.DensityModerate,
		LargeTargets: true,
		ReadAloud:    true,
		ProgressBars: true,
	},
	profile.SPD: {
		ColorTheme:   ui.ThemeDark,
		FontFamily:   ui.FontInter,
		FontSize:     ui.SizeDefault,
		Motion:       ui.MotionOff,
		InfoDensity:  ui.DensityMinimal,
		ProgressBars: true,
	},
	profile.Anxiety: {
		ColorTheme:   ui.ThemeCalm,
		FontFamily:   ui.FontNunito,
		FontSize:     ui.SizeDefault,
		Motion:       ui.MotionReduced,
		InfoDensity:  ui.DensityModerate,
		ProgressBars: true,
		NoTimers:     true,
	},
}

// Priority ranks the values of each categorical attribute. Higher wins when
// disorders disagree.
var Priority = map[ui.Attribute]map[string]int{
	ui.Motion: {
		ui.MotionOff:     3,
		ui.MotionReduced: 2,
		ui.MotionOn:      1,
	},
	ui.FontSize: {
		ui.SizeXL:      3,
		ui.SizeLarge:   2,
		ui.SizeDefault: 1,
	},
	ui.InfoDensity: {
		ui.DensityMinimal:  3,
		ui.DensityModerate: 2,
		ui.DensityFull:     1,
	},
	ui.ColorTheme: {
		ui.ThemeDark:    2,
		ui.ThemeCream:   2,
		ui.ThemeWarm:    2,
		ui.ThemeCalm:    2,
		ui.ThemeNeutral: 1,
	},
	ui.FontFamily: {
		ui.FontLexend:       3,
		ui.FontOpenDyslexic: 3,
		ui.FontAtkinson:     2,
		ui.FontNunito:       2,
		ui.FontInter:        1,
	},
}

// Rank returns the priority of value for attribute a. Unranked values rank 0.
func Rank(a ui.Attribute, value string) int {
	return Priority[a][value]
}
