package service

import (
	"sort"
	"strings"
	"time"

	"hicd.com/records/types"
)

var accentFolder = strings.NewReplacer(
	"á", "a", "à", "a", "â", "a", "ã", "a", "ä", "a",
	"é", "e", "ê", "e", "è", "e", "ë", "e",
	"í", "i", "î", "i", "ì", "i", "ï", "i",
	"ó", "o", "ô", "o", "õ", "o", "ò", "o", "ö", "o",
	"ú", "u", "û", "u", "ù", "u", "ü", "u",
	"ç", "c", "ñ", "n",
)

// foldForSearch lowercases and strips the Portuguese accents so "pediátrica"
// and "pediatrica" compare equal.
func foldForSearch(s string) string {
	return accentFolder.Replace(strings.ToLower(strings.TrimSpace(s)))
}

func containsFolded(haystack, foldedNeedle string) bool {
	return strings.Contains(foldForSearch(haystack), foldedNeedle)
}

func filterMedical(evolutions []types.Evolution) []types.Evolution {
	var out []types.Evolution
	for i := range evolutions {
		if evolutions[i].IsMedical() {
			out = append(out, evolutions[i])
		}
	}
	return out
}

var evolutionDateLayouts = []string{
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
}

func parseEvolutionDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range evolutionDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// sortNewestFirst orders notes by evolution date descending. Notes whose
// date does not parse keep their page order after the dated ones.
func sortNewestFirst(evolutions []types.Evolution) {
	sort.SliceStable(evolutions, func(i, j int) bool {
		return parseEvolutionDate(evolutions[i].EvolutionDate).
			After(parseEvolutionDate(evolutions[j].EvolutionDate))
	})
}
