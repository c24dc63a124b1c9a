package bidrequests

import (
	"sort"
	"strings"
)

// Listing tabs. Anything else falls through to accept-all, a deliberately
// permissive default.
const (
	TabAll          = "All Projects"
	TabNew          = "New"
	TabExpiringSoon = "Expiring Soon"
)

// Sort keys accepted by the listing. An unknown key leaves the order as-is.
const (
	SortEndDate    = "endDate"
	SortPostedDate = "postedDate"
	SortTitle      = "title"
)

// FilterByTitle keeps summaries whose title contains the term,
// case-insensitive. An empty term keeps everything.
func FilterByTitle(items []Summary, term string) []Summary {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return items
	}
	out := make([]Summary, 0, len(items))
	for _, s := range items {
		if strings.Contains(strings.ToLower(s.Title), term) {
			out = append(out, s)
		}
	}
	return out
}

// FilterByTab keeps summaries belonging to the named tab. The status tabs
// match the derived status, the category tabs match the category exactly,
// and anything unrecognized accepts all.
func FilterByTab(items []Summary, tab string) []Summary {
	var keep func(Summary) bool
	switch tab {
	case TabNew:
		keep = func(s Summary) bool { return s.Status == DisplayNew }
	case TabExpiringSoon:
		keep = func(s Summary) bool { return s.Status == DisplayExpiringSoon }
	case CategoryResidential, CategoryCommercial, CategoryRenovation, CategoryNewBuild:
		keep = func(s Summary) bool { return s.Category == tab }
	default:
		return items
	}

	out := make([]Summary, 0, len(items))
	for _, s := range items {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}

// SortBy orders summaries by the given key: endDate ascending, postedDate
// descending (most recent first), title ascending. The sort is stable so
// ties keep their incoming order.
func SortBy(items []Summary, key string) []Summary {
	var less func(a, b Summary) bool
	switch key {
	case SortEndDate:
		less = func(a, b Summary) bool { return a.BiddingEndAt.Before(b.BiddingEndAt) }
	case SortPostedDate:
		less = func(a, b Summary) bool { return a.PostedAt.After(b.PostedAt) }
	case SortTitle:
		less = func(a, b Summary) bool { return a.Title < b.Title }
	default:
		return items
	}

	out := make([]Summary, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// ApplyListing runs the full pipeline in its fixed order: title filter,
// then tab filter, then sort.
func ApplyListing(items []Summary, term, tab, sortKey string) []Summary {
	return SortBy(FilterByTab(FilterByTitle(items, term), tab), sortKey)
}
