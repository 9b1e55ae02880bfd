package synth

import (
	"fmt"
	"io"
	"sort"

	"github.com/MikeSquared-Agency/vantage/internal/dataset"
	"github.com/MikeSquared-Agency/vantage/internal/profile"
)

// Share is one value's count within a generated dataset.
type Share struct {
	Value   string  `json:"value"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Distribution summarises a generated dataset for a quick sanity check.
type Distribution struct {
	Rows       int     `json:"rows"`
	Themes     []Share `json:"themes"`
	Motion     []Share `json:"motion"`
	Prevalence []Share `json:"prevalence"`
}

// Summarize computes theme and motion distributions (most common first) and
// disorder prevalence in feature order.
func Summarize(rows []dataset.Row) Distribution {
	d := Distribution{Rows: len(rows)}
	themes := map[string]int{}
	motion := map[string]int{}
	for _, r := range rows {
		themes[r.Label.ColorTheme]++
		motion[r.Label.Motion]++
	}
	d.Themes = shares(themes, len(rows))
	d.Motion = shares(motion, len(rows))

	for i, dis := range profile.AllDisorders {
		n := 0
		for _, r := range rows {
			if r.Features[i] == 1 {
				n++
			}
		}
		d.Prevalence = append(d.Prevalence, Share{Value: string(dis), Count: n, Percent: percent(n, len(rows))})
	}
	return d
}

// Write prints the distribution in a plain-text layout.
func (d Distribution) Write(w io.Writer) error {
	sections := []struct {
		title  string
		shares []Share
	}{
		{"Color theme distribution:", d.Themes},
		{"Motion distribution:", d.Motion},
		{"Disorder prevalence (% of students):", d.Prevalence},
	}
	for _, s := range sections {
		if _, err := fmt.Fprintf(w, "\n%s\n", s.title); err != nil {
			return err
		}
		for _, sh := range s.shares {
			if _, err := fmt.Fprintf(w, "  %-14s %5d  (%.1f%%)\n", sh.Value, sh.Count, sh.Percent); err != nil {
				return err
			}
		}
	}
	return nil
}

func shares(counts map[string]int, total int) []Share {
	out := make([]Share, 0, len(counts))
	for v, n := range counts {
		out = append(out, Share{Value: v, Count: n, Percent: percent(n, total)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
