package model

import "sort"

// ClassReport holds precision, recall and F1 for one class on held-out data.
type ClassReport struct {
	Label     string  `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

func accuracy(want, got []int) float64 {
	if len(want) == 0 {
		return 0
	}
	hits := 0
	for i := range want {
		if want[i] == got[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(want))
}

// classReports covers every class that occurs in want or got, in index
// order.
func classReports(want, got []int, labels []string) []ClassReport {
	type tally struct{ tp, fp, fn int }
	t := make(map[int]*tally)
	get := func(c int) *tally {
		if t[c] == nil {
			t[c] = &tally{}
		}
		return t[c]
	}
	for i := range want {
		if want[i] == got[i] {
			get(want[i]).tp++
			continue
		}
		get(got[i]).fp++
		get(want[i]).fn++
	}

	classes := make([]int, 0, len(t))
	for c := range t {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	out := make([]ClassReport, 0, len(classes))
	for _, c := range classes {
		x := t[c]
		r := ClassReport{Label: labelOf(c, labels), Support: x.tp + x.fn}
		if x.tp+x.fp > 0 {
			r.Precision = float64(x.tp) / float64(x.tp+x.fp)
		}
		if x.tp+x.fn > 0 {
			r.Recall = float64(x.tp) / float64(x.tp+x.fn)
		}
		if r.Precision+r.Recall > 0 {
			r.F1 = 2 * r.Precision * r.Recall / (r.Precision + r.Recall)
		}
		out = append(out, r)
	}
	return out
}

func labelOf(c int, labels []string) string {
	if c >= 0 && c < len(labels) {
		return labels[c]
	}
	return "?"
}

// kFold splits n samples into k contiguous folds and returns, per fold, the
// indices held out.
func kFold(n, k int) [][]int {
	if k > n {
		k = n
	}
	folds := make([][]int, k)
	start := 0
	for f := 0; f < k; f++ {
		size := n / k
		if f < n%k {
			size++
		}
		for i := start; i < start+size; i++ {
			folds[f] = append(folds[f], i)
		}
		start += size
	}
	return folds
}
