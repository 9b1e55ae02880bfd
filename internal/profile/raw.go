package profile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Field names reported for unmapped vocabulary.
const (
	FieldDisorders    = "disorders"
	FieldSupportLevel = "support_level"
	FieldDensity      = "information_density"
	FieldTimeHorizon  = "time_horizon"
	FieldSensoryFlags = "sensory_flags"
)

// RawProfile is a CAP exactly as an external system sent it. Values may use
// aliases ("full-agent", "summary", "bright") or be unrecognised.
type RawProfile struct {
	DisplayName        string   `json:"display_name,omitempty"`
	SessionID          string   `json:"session_id,omitempty"`
	Disorders          []string `json:"disorders"`
	SupportLevel       string   `json:"support_level"`
	InformationDensity string   `json:"information_density"`
	TimeHorizon        string   `json:"time_horizon"`
	SensoryFlags       []string `json:"sensory_flags"`
}

// Key spellings accepted on input, first match wins. The onboarding flow
// sends camelCase, the training pipeline snake_case.
var rawKeys = map[string][]string{
	"display_name":    {"display_name", "displayName"},
	"session_id":      {"session_id", "sessionId"},
	FieldDisorders:    {"disorders"},
	FieldSupportLevel: {"support_level", "supportLevel"},
	FieldDensity:      {"information_density", "information_density_preference", "informationDensity", "info_density_pref"},
	FieldTimeHorizon:  {"time_horizon", "timeHorizon"},
	FieldSensoryFlags: {"sensory_flags", "sensoryFlags"},
}

// UnmarshalJSON accepts snake_case and camelCase keys. Scalars that are not
// strings are kept as their JSON text so the encoder can fall back on them.
// List fields accept a single string in place of an array.
func (r *RawProfile) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("cap profile must be an object: %w", err)
	}
	if fields == nil {
		return fmt.Errorf("cap profile must be an object")
	}

	pick := func(name string) json.RawMessage {
		for _, k := range rawKeys[name] {
			if v, ok := fields[k]; ok {
				return v
			}
		}
		return nil
	}

	var out RawProfile
	var err error
	if out.DisplayName, err = scalar(pick("display_name")); err != nil {
		return fmt.Errorf("display_name: %w", err)
	}
	if out.SessionID, err = scalar(pick("session_id")); err != nil {
		return fmt.Errorf("session_id: %w", err)
	}
	if out.SupportLevel, err = scalar(pick(FieldSupportLevel)); err != nil {
		return fmt.Errorf("%s: %w", FieldSupportLevel, err)
	}
	if out.InformationDensity, err = scalar(pick(FieldDensity)); err != nil {
		return fmt.Errorf("%s: %w", FieldDensity, err)
	}
	if out.TimeHorizon, err = scalar(pick(FieldTimeHorizon)); err != nil {
		return fmt.Errorf("%s: %w", FieldTimeHorizon, err)
	}
	if out.Disorders, err = list(pick(FieldDisorders)); err != nil {
		return fmt.Errorf("%s: %w", FieldDisorders, err)
	}
	if out.SensoryFlags, err = list(pick(FieldSensoryFlags)); err != nil {
		return fmt.Errorf("%s: %w", FieldSensoryFlags, err)
	}
	*r = out
	return nil
}

func scalar(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	case '{', '[':
		return "", fmt.Errorf("expected a scalar value")
	}
	return string(raw), nil
}

func list(raw json.RawMessage) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] != '[' {
		s, err := scalar(raw)
		if err != nil {
			return nil, fmt.Errorf("expected a list")
		}
		if s == "" {
			return nil, nil
		}
		return []string{s}, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		s, err := scalar(it)
		if err != nil {
			return nil, fmt.Errorf("list items must be scalars")
		}
		if s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

// Raw renders a canonical profile in external vocabulary, the form the
// encoder receives at serving time.
func (p Profile) Raw() RawProfile {
	r := RawProfile{
		SupportLevel:       string(p.Support),
		InformationDensity: string(p.DensityPref),
		TimeHorizon:        string(p.Horizon),
	}
	for _, d := range p.Disorders {
		r.Disorders = append(r.Disorders, string(d))
	}
	if p.Sensory.Light {
		r.SensoryFlags = append(r.SensoryFlags, "light_sensitivity")
	}
	if p.Sensory.Sound {
		r.SensoryFlags = append(r.SensoryFlags, "sound_sensitivity")
	}
	if p.Sensory.Motion {
		r.SensoryFlags = append(r.SensoryFlags, "motion_sensitivity")
	}
	return r
}

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
