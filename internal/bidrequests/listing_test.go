package bidrequests

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func summary(id, title, status, category string, posted, end time.Time) Summary {
	return Summary{
		ID: id, Title: title, Status: status, Category: category,
		PostedAt: posted, BiddingEndAt: end,
	}
}

func TestFilterByTitleSubstringCaseInsensitive(t *testing.T) {
	items := []Summary{
		summary("1", "Kitchen Remodel", "open", CategoryRenovation, day, day.AddDate(0, 0, 7)),
		summary("2", "Office Fitout", "open", CategoryCommercial, day, day.AddDate(0, 0, 7)),
	}

	got := FilterByTitle(items, "kitchen")
	require.Len(t, got, 1)
	assert.Equal(t, "Kitchen Remodel", got[0].Title)

	assert.Len(t, FilterByTitle(items, ""), 2)
	assert.Len(t, FilterByTitle(items, "FITOUT"), 1)
	assert.Empty(t, FilterByTitle(items, "garage"))
}

func TestFilterByTab(t *testing.T) {
	items := []Summary{
		summary("1", "A", DisplayNew, CategoryResidential, day, day.AddDate(0, 0, 7)),
		summary("2", "B", DisplayExpiringSoon, CategoryCommercial, day, day.AddDate(0, 0, 1)),
		summary("3", "C", "open", CategoryResidential, day, day.AddDate(0, 0, 7)),
		summary("4", "D", DisplayExpiringSoon, CategoryResidential, day, day.AddDate(0, 0, 1)),
	}

	all := FilterByTab(items, TabAll)
	assert.Len(t, all, 4)

	// Status tabs match derived status regardless of category.
	expiring := FilterByTab(items, TabExpiringSoon)
	require.Len(t, expiring, 2)
	assert.Equal(t, "B", expiring[0].Title)
	assert.Equal(t, "D", expiring[1].Title)

	newOnes := FilterByTab(items, TabNew)
	require.Len(t, newOnes, 1)
	assert.Equal(t, "A", newOnes[0].Title)

	residential := FilterByTab(items, CategoryResidential)
	assert.Len(t, residential, 3)

	// Unrecognized tabs accept everything.
	assert.Len(t, FilterByTab(items, "Something Else"), 4)
}

func TestSortByEndDateAscending(t *testing.T) {
	items := []Summary{
		summary("1", "A", "open", "", day, day.AddDate(0, 0, 5)),
		summary("2", "B", "open", "", day, day.AddDate(0, 0, 2)),
		summary("3", "C", "open", "", day, day.AddDate(0, 0, 6)),
	}

	got := SortBy(items, SortEndDate)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"B", "A", "C"}, []string{got[0].Title, got[1].Title, got[2].Title})

	// Input order is untouched.
	assert.Equal(t, "A", items[0].Title)
}

func TestSortByPostedDateDescending(t *testing.T) {
	items := []Summary{
		summary("1", "A", "open", "", day.AddDate(0, 0, -3), day.AddDate(0, 0, 7)),
		summary("2", "B", "open", "", day, day.AddDate(0, 0, 7)),
		summary("3", "C", "open", "", day.AddDate(0, 0, -1), day.AddDate(0, 0, 7)),
	}

	got := SortBy(items, SortPostedDate)
	assert.Equal(t, []string{"B", "C", "A"}, []string{got[0].Title, got[1].Title, got[2].Title})
}

func TestSortByTitleLexicographic(t *testing.T) {
	items := []Summary{
		summary("1", "Garage Build", "open", "", day, day.AddDate(0, 0, 7)),
		summary("2", "Attic Conversion", "open", "", day, day.AddDate(0, 0, 7)),
	}

	got := SortBy(items, SortTitle)
	assert.Equal(t, "Attic Conversion", got[0].Title)
}

func TestSortByUnknownKeyKeepsOrder(t *testing.T) {
	items := []Summary{
		summary("1", "Z", "open", "", day, day.AddDate(0, 0, 7)),
		summary("2", "A", "open", "", day, day.AddDate(0, 0, 7)),
	}
	got := SortBy(items, "budget")
	assert.Equal(t, "Z", got[0].Title)
}

func TestSortStableOnTies(t *testing.T) {
	end := day.AddDate(0, 0, 7)
	items := []Summary{
		summary("1", "First", "open", "", day, end),
		summary("2", "Second", "open", "", day, end),
		summary("3", "Third", "open", "", day, end),
	}
	got := SortBy(items, SortEndDate)
	assert.Equal(t, []string{"First", "Second", "Third"}, []string{got[0].Title, got[1].Title, got[2].Title})
}

func TestApplyListingCompositionOrder(t *testing.T) {
	items := []Summary{
		summary("1", "Kitchen Remodel", DisplayNew, CategoryRenovation, day, day.AddDate(0, 0, 5)),
		summary("2", "Kitchen Extension", DisplayNew, CategoryRenovation, day.AddDate(0, 0, -1), day.AddDate(0, 0, 2)),
		summary("3", "Kitchen Island", "open", CategoryResidential, day, day.AddDate(0, 0, 6)),
		summary("4", "Office Fitout", DisplayNew, CategoryCommercial, day, day.AddDate(0, 0, 1)),
	}

	got := ApplyListing(items, "kitchen", TabNew, SortEndDate)
	require.Len(t, got, 2)
	assert.Equal(t, "Kitchen Extension", got[0].Title)
	assert.Equal(t, "Kitchen Remodel", got[1].Title)
}
