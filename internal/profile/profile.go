package profile

import "sort"

// Disorder is one of the recognised cognitive-accessibility conditions.
type Disorder string

const (
	ADHD        Disorder = "adhd"
	ASD         Disorder = "asd"
	Dyslexia    Disorder = "dyslexia"
	Dyscalculia Disorder = "dyscalculia"
	Dyspraxia   Disorder = "dyspraxia"
	SPD         Disorder = "spd"
	Anxiety     Disorder = "anxiety"
)

// AllDisorders lists every disorder in feature-vector order.
var AllDisorders = []Disorder{ADHD, ASD, Dyslexia, Dyscalculia, Dyspraxia, SPD, Anxiety}

// SupportLevel is the ordinal amount of help a student asked for.
type SupportLevel string

const (
	SupportLow    SupportLevel = "low"
	SupportMedium SupportLevel = "medium"
	SupportHigh   SupportLevel = "high"
)

// Density is an information-density preference.
type Density string

const (
	DensityMinimal  Density = "minimal"
	DensityModerate Density = "moderate"
	DensityFull     Density = "full"
)

// TimeHorizon is how far ahead a student wants deadline reminders.
type TimeHorizon string

const (
	Horizon24h    TimeHorizon = "24h"
	Horizon72h    TimeHorizon = "72h"
	Horizon1Week  TimeHorizon = "1week"
	Horizon2Weeks TimeHorizon = "2weeks"
)

// Sensory holds the sensory-sensitivity flags. Conflicting combinations are
// accepted as given.
type Sensory struct {
	Light  bool `json:"light_sensitivity"`
	Sound  bool `json:"sound_sensitivity"`
	Motion bool `json:"motion_sensitivity"`
}

// Profile is a CAP in canonical vocabulary.
type Profile struct {
	Disorders   []Disorder   `json:"disorders"`
	Support     SupportLevel `json:"support_level"`
	DensityPref Density      `json:"information_density_preference"`
	Horizon     TimeHorizon  `json:"time_horizon"`
	Sensory     Sensory      `json:"sensory"`
}

// Has reports whether d is among the profile's disorders.
func (p Profile) Has(d Disorder) bool {
	for _, x := range p.Disorders {
		if x == d {
			return true
		}
	}
	return false
}

// IsKnown reports whether d belongs to the closed disorder set.
func (d Disorder) IsKnown() bool {
	for _, x := range AllDisorders {
		if x == d {
			return true
		}
	}
	return false
}

// SortedDisorders returns the distinct disorders of ds in lexicographic
// order. The input slice is not modified.
func SortedDisorders(ds []Disorder) []Disorder {
	seen := make(map[Disorder]bool, len(ds))
	out := make([]Disorder, 0, len(ds))
	for _, d := range ds {
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
