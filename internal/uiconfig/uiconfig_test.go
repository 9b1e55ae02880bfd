package uiconfig

import "testing"

func TestNeutralDefault(t *testing.T) {
	cfg := NeutralDefault()
	want := UIConfig{
		ColorTheme:  "neutral",
		FontFamily:  "inter",
		FontSize:    "default",
		Motion:      "on",
		InfoDensity: "full",
	}
	if cfg != want {
		t.Errorf("NeutralDefault() = %+v, want %+v", cfg, want)
	}
}

func TestValueRoundTrip(t *testing.T) {
	for _, a := range CategoricalAttributes {
		t.Run(string(a), func(t *testing.T) {
			cfg, err := NeutralDefault().WithValue(a, "sample")
			if err != nil {
				t.Fatalf("WithValue: %v", err)
			}
			got, err := cfg.Value(a)
			if err != nil {
				t.Fatalf("Value: %v", err)
			}
			if got != "sample" {
				t.Errorf("Value(%s) = %q, want sample", a, got)
			}
		})
	}
}

func TestFlagRoundTrip(t *testing.T) {
	for _, a := range BooleanAttributes {
		t.Run(string(a), func(t *testing.T) {
			cfg, err := UIConfig{}.WithFlag(a, true)
			if err != nil {
				t.Fatalf("WithFlag: %v", err)
			}
			got, err := cfg.Flag(a)
			if err != nil {
				t.Fatalf("Flag: %v", err)
			}
			if !got {
				t.Errorf("Flag(%s) = false, want true", a)
			}
		})
	}
}

func TestWrongKindRejected(t *testing.T) {
	if _, err := NeutralDefault().Value(ReadAloud); err == nil {
		t.Error("expected error reading boolean attribute as categorical")
	}
	if _, err := NeutralDefault().WithFlag(Motion, true); err == nil {
		t.Error("expected error setting categorical attribute as flag")
	}
}
