package matching

import (
	"fmt"
	"sort"
)

const (
	enrichedNameSuffix = " (AI Matched)"
	mockLocation       = "Local Area (Mock)"
	avatarURLTemplate  = "https://placehold.co/100x100.png?text=%s"
	maxSpecialties     = 2
)

// Enrich turns raw suggestion tuples into display-ready contractors. The
// display name derives from the tuple's position, specialties from its two
// highest-scoring tags, and location/avatar are placeholders until a real
// contractor directory exists. Identity fields pass through unchanged, and
// zero tuples yield an empty slice, never an error.
func Enrich(raw []RawSuggestion) []SuggestedContractor {
	out := make([]SuggestedContractor, 0, len(raw))
	for i, r := range raw {
		letter := positionLetter(i)

		tags := make([]ContractorTag, len(r.Tags))
		copy(tags, r.Tags)

		out = append(out, SuggestedContractor{
			ContractorID: r.ContractorID,
			Tags:         tags,
			OverallScore: r.OverallScore,
			Name:         "Contractor " + letter + enrichedNameSuffix,
			Specialties:  topTagNames(r.Tags, maxSpecialties),
			Location:     mockLocation,
			AvatarURL:    fmt.Sprintf(avatarURLTemplate, letter),
		})
	}
	return out
}

// positionLetter maps 0->A, 1->B, ... 25->Z, 26->AA, like spreadsheet columns.
func positionLetter(i int) string {
	letter := ""
	for n := i; n >= 0; n = n/26 - 1 {
		letter = string(rune('A'+n%26)) + letter
	}
	return letter
}

// topTagNames returns the names of the highest-scoring tags, at most limit.
// Equal scores keep their input order.
func topTagNames(tags []ContractorTag, limit int) []string {
	if len(tags) == 0 {
		return nil
	}
	sorted := make([]ContractorTag, len(tags))
	copy(sorted, tags)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	names := make([]string, 0, len(sorted))
	for _, t := range sorted {
		names = append(names, t.TagName)
	}
	return names
}
