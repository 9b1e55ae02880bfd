package profile

// Defaults applied when a field is absent or unrecognised.
const (
	DefaultSupport = SupportMedium
	DefaultDensity = DensityModerate
	DefaultHorizon = Horizon1Week
)

var supportAliases = map[string]SupportLevel{
	"low":          SupportLow,
	"reminder":     SupportLow,
	"medium":       SupportMedium,
	"step-by-step": SupportMedium,
	"high":         SupportHigh,
	"full-agent":   SupportHigh,
}

var densityAliases = map[string]Density{
	"minimal":  DensityMinimal,
	"summary":  DensityMinimal,
	"moderate": DensityModerate,
	"full":     DensityFull,
}

var horizonAliases = map[string]TimeHorizon{
	"24h":    Horizon24h,
	"72h":    Horizon72h,
	"1week":  Horizon1Week,
	"2weeks": Horizon2Weeks,
}

type sensoryFlag int

const (
	flagIgnored sensoryFlag = iota
	flagLight
	flagSound
	flagMotion
)

// Questionnaire values without a feature of their own ("crowds", "open")
// are known vocabulary and map to flagIgnored.
var sensoryAliases = map[string]sensoryFlag{
	"light_sensitivity":  flagLight,
	"bright":             flagLight,
	"sound_sensitivity":  flagSound,
	"loud":               flagSound,
	"motion_sensitivity": flagMotion,
	"crowds":             flagIgnored,
	"open":               flagIgnored,
	"none":               flagIgnored,
}

// MaxListItems bounds how many entries of each list field Parse reads. Every
// known disorder and sensory alias fits well within it; anything past it is
// ignored without being reported.
const MaxListItems = 32

// UnmappedFunc is told about every present value Parse could not map.
type UnmappedFunc func(field, value string)

// Parse maps a raw profile onto canonical vocabulary. It never fails: absent
// fields take the documented defaults silently, unrecognised values take
// them too and are reported through unmapped (which may be nil).
func Parse(raw RawProfile, unmapped UnmappedFunc) Profile {
	report := func(field, value string) {
		if unmapped != nil {
			unmapped(field, value)
		}
	}

	p := Profile{
		Support:     DefaultSupport,
		DensityPref: DefaultDensity,
		Horizon:     DefaultHorizon,
	}

	if v := norm(raw.SupportLevel); v != "" {
		if s, ok := supportAliases[v]; ok {
			p.Support = s
		} else {
			report(FieldSupportLevel, raw.SupportLevel)
		}
	}
	if v := norm(raw.InformationDensity); v != "" {
		if d, ok := densityAliases[v]; ok {
			p.DensityPref = d
		} else {
			report(FieldDensity, raw.InformationDensity)
		}
	}
	if v := norm(raw.TimeHorizon); v != "" {
		if h, ok := horizonAliases[v]; ok {
			p.Horizon = h
		} else {
			report(FieldTimeHorizon, raw.TimeHorizon)
		}
	}

	var ds []Disorder
	for _, s := range capList(raw.Disorders) {
		d := Disorder(norm(s))
		if d == "" {
			continue
		}
		if !d.IsKnown() {
			report(FieldDisorders, s)
			continue
		}
		ds = append(ds, d)
	}
	p.Disorders = SortedDisorders(ds)

	for _, s := range capList(raw.SensoryFlags) {
		v := norm(s)
		if v == "" {
			continue
		}
		flag, ok := sensoryAliases[v]
		if !ok {
			report(FieldSensoryFlags, s)
			continue
		}
		switch flag {
		case flagLight:
			p.Sensory.Light = true
		case flagSound:
			p.Sensory.Sound = true
		case flagMotion:
			p.Sensory.Motion = true
		}
	}
	return p
}

func capList(items []string) []string {
	if len(items) > MaxListItems {
		return items[:MaxListItems]
	}
	return items
}
