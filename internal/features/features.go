package features

import (
	"fmt"
	"log/slog"

	"github.com/MikeSquared-Agency/vantage/internal/profile"
)

// Size is the length of a feature vector.
const Size = 14

// Columns is the canonical feature order. Training data, the trained bundle
// and serving all use it; changing it invalidates every trained model.
var Columns = [Size]string{
	"has_adhd",
	"has_asd",
	"has_dyslexia",
	"has_dyscalculia",
	"has_dyspraxia",
	"has_spd",
	"has_anxiety",
	"n_disorders",
	"light_sensitivity",
	"sound_sensitivity",
	"motion_sensitivity",
	"support_level_enc",
	"info_density_pref_enc",
	"time_horizon_enc",
}

// Vector is an encoded CAP profile in Columns order.
type Vector [Size]float64

// Get returns the value of the named column.
func (v Vector) Get(column string) (float64, error) {
	i, ok := columnIndex[column]
	if !ok {
		return 0, fmt.Errorf("unknown feature column %q", column)
	}
	return v[i], nil
}

// Slice returns the vector as a slice, as classifiers consume it.
func (v Vector) Slice() []float64 {
	out := make([]float64, Size)
	copy(out, v[:])
	return out
}

var columnIndex = func() map[string]int {
	m := make(map[string]int, Size)
	for i, c := range Columns {
		m[c] = i
	}
	return m
}()

// IsColumn reports whether name is a known feature column.
func IsColumn(name string) bool {
	_, ok := columnIndex[name]
	return ok
}

var (
	supportOrdinal = map[profile.SupportLevel]float64{
		profile.SupportLow:    0,
		profile.SupportMedium: 1,
		profile.SupportHigh:   2,
	}
	densityOrdinal = map[profile.Density]float64{
		profile.DensityMinimal:  0,
		profile.DensityModerate: 1,
		profile.DensityFull:     2,
	}
	horizonOrdinal = map[profile.TimeHorizon]float64{
		profile.Horizon24h:    0,
		profile.Horizon72h:    1,
		profile.Horizon1Week:  2,
		profile.Horizon2Weeks: 3,
	}
)

// Observer is told about every unmapped value seen by an Encoder.
type Observer interface {
	Unmapped(field, value string)
}

// Encoder turns CAP profiles into feature vectors. It is safe for
// concurrent use as long as its Observer is.
type Encoder struct {
	observer Observer
	logger   *slog.Logger
}

// NewEncoder returns an encoder that reports unmapped vocabulary to obs and
// logs it. Either may be nil.
func NewEncoder(obs Observer, logger *slog.Logger) *Encoder {
	return &Encoder{observer: obs, logger: logger}
}

// Encode maps a CAP in external vocabulary onto a feature vector. It never
// fails; unrecognised values take the documented defaults.
func (e *Encoder) Encode(raw profile.RawProfile) Vector {
	return EncodeProfile(e.Parse(raw))
}

// Parse canonicalises raw, reporting unmapped values the same way Encode
// does.
func (e *Encoder) Parse(raw profile.RawProfile) profile.Profile {
	return profile.Parse(raw, e.unmapped)
}

func (e *Encoder) unmapped(field, value string) {
	if e == nil {
		return
	}
	if e.logger != nil {
		e.logger.Warn("unmapped cap value, using default", "field", field, "value", value)
	}
	if e.observer != nil {
		e.observer.Unmapped(field, value)
	}
}

// EncodeProfile maps a canonical profile onto a feature vector.
func EncodeProfile(p profile.Profile) Vector {
	var v Vector
	n := 0
	for i, d := range profile.AllDisorders {
		if p.Has(d) {
			v[i] = 1
			n++
		}
	}
	v[7] = float64(n)
	v[8] = bit(p.Sensory.Light)
	v[9] = bit(p.Sensory.Sound)
	v[10] = bit(p.Sensory.Motion)
	v[11] = ordinal(supportOrdinal, p.Support, profile.DefaultSupport)
	v[12] = ordinal(densityOrdinal, p.DensityPref, profile.DefaultDensity)
	v[13] = ordinal(horizonOrdinal, p.Horizon, profile.DefaultHorizon)
	return v
}

func ordinal[K comparable](m map[K]float64, k, fallback K) float64 {
	if x, ok := m[k]; ok {
		return x
	}
	return m[fallback]
}

func bit(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
