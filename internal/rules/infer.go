package rules

import (
	"github.com/MikeSquared-Agency/vantage/internal/profile"
	ui "github.com/MikeSquared-Agency/vantage/internal/uiconfig"
)

// Infer is the deterministic profile-to-config policy: merge the disorder
// rules, then apply support level, sensory flags and density preference in
// that order.
func Infer(p profile.Profile) ui.UIConfig {
	cfg := Merge(p.Disorders)
	cfg = ApplySupportLevel(cfg, p.Support)
	cfg = ApplySensory(cfg, p.Sensory)
	cfg = ApplyDensityPreference(cfg, p.DensityPref)
	return cfg
}

// Label produces a training label: Infer followed by noise.
func Label(p profile.Profile, n Noise) ui.UIConfig {
	return n.Apply(Infer(p))
}
