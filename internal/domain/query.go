package domain

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// VictimFilter selects registry rows. Zero values match everything.
type VictimFilter struct {
	Sex   Sex    // SexMale or SexFemale; anything else matches all
	Query string // case-insensitive substring of the English name
}

// FilterVictims returns the matching rows in their original order.
func FilterVictims(victims []Victim, f VictimFilter) []Victim {
	query := strings.ToLower(strings.TrimSpace(f.Query))
	bySex := f.Sex == SexMale || f.Sex == SexFemale

	out := make([]Victim, 0, len(victims))
	for _, v := range victims {
		if bySex && v.Sex != f.Sex {
			continue
		}
		if query != "" && (v.EnglishName == nil || !strings.Contains(strings.ToLower(*v.EnglishName), query)) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// NameCount is a first name and how many victims carry it.
type NameCount struct {
	Name  string `json:"first_name"`
	Count int    `json:"count"`
}

// TopFirstNames counts the first word of each English name, title-cased, and
// returns the n most common. Ties are ordered by name.
func TopFirstNames(victims []Victim, n int) []NameCount {
	caser := cases.Title(language.Und)
	counts := make(map[string]int)
	for _, v := range victims {
		if v.EnglishName == nil {
			continue
		}
		fields := strings.Fields(*v.EnglishName)
		if len(fields) == 0 {
			continue
		}
		counts[caser.String(fields[0])]++
	}

	out := make([]NameCount, 0, len(counts))
	for name, c := range counts {
		out = append(out, NameCount{Name: name, Count: c})
	}
	slices.SortFunc(out, func(a, b NameCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// AgeBin is one bucket of an age histogram, covering [Lower, Upper). The
// last bucket also includes Upper.
type AgeBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// AgeHistogram buckets known ages into equal-width bins spanning the observed
// range. Victims without an age are left out.
func AgeHistogram(victims []Victim, bins int) []AgeBin {
	if bins <= 0 {
		bins = 30
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range victims {
		if v.Age == nil {
			continue
		}
		lo = math.Min(lo, *v.Age)
		hi = math.Max(hi, *v.Age)
	}
	if math.IsInf(lo, 1) {
		return nil
	}
	if lo == hi {
		bins = 1
	}

	width := (hi - lo) / float64(bins)
	out := make([]AgeBin, bins)
	for i := range out {
		out[i].Lower = lo + float64(i)*width
		out[i].Upper = lo + float64(i+1)*width
	}
	out[bins-1].Upper = hi

	for _, v := range victims {
		if v.Age == nil {
			continue
		}
		i := bins - 1
		if width > 0 {
			i = min(int((*v.Age-lo)/width), bins-1)
		}
		out[i].Count++
	}
	return out
}
