// Package pagination computes page slices and the ellipsis-collapsed page
// window shown under the domain table. Everything here is pure.
package pagination

import (
	"github.com/terra-clan/domain-lists/internal/models"
)

// DefaultRadius is how many pages on each side of the current page stay visible
const DefaultRadius = 2

// PageCount returns ceil(total/limit), or 0 when there is nothing to show
func PageCount(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// Clamp builds the page state for a request, moving out-of-range pages to the
// nearest valid one
func Clamp(page, total, limit int) models.PageState {
	if limit <= 0 {
		limit = models.DefaultLimit
	}
	if total < 0 {
		total = 0
	}

	count := PageCount(total, limit)
	last := max(count, 1)

	return models.PageState{
		CurrentPage: min(max(page, 1), last),
		Limit:       limit,
		Total:       total,
		PageCount:   count,
	}
}

// Slice returns the records visible on the page described by state
func Slice(results models.ResultSet, state models.PageState) models.ResultSet {
	start := state.StartIndex()
	if start >= len(results) || start < 0 {
		return models.ResultSet{}
	}
	end := min(start+state.Limit, len(results))
	return results[start:end]
}

// Window returns the page numbers to show for current out of totalPages.
// Page 1 and totalPages are always present, every page within radius of
// current is present, and each run of hidden pages becomes one ellipsis.
func Window(current, totalPages, radius int) []models.PageItem {
	if totalPages < 1 {
		return nil
	}
	if radius < 0 {
		radius = 0
	}
	current = min(max(current, 1), totalPages)

	lo := max(current-radius, 1)
	hi := min(current+radius, totalPages)

	pages := make([]int, 0, hi-lo+3)
	if lo > 1 {
		pages = append(pages, 1)
	}
	for p := lo; p <= hi; p++ {
		pages = append(pages, p)
	}
	if hi < totalPages {
		pages = append(pages, totalPages)
	}

	items := make([]models.PageItem, 0, len(pages)+2)
	prev := 0
	for _, p := range pages {
		if prev != 0 && p-prev > 1 {
			items = append(items, models.Gap())
		}
		items = append(items, models.PageNumber(p))
		prev = p
	}
	return items
}

// Paginate clamps the requested page, slices the visible rows and builds the
// pagination controls. Empty results produce no rows and no controls.
func Paginate(results models.ResultSet, page, limit, radius int) (models.ResultSet, models.PaginationModel, models.PageState) {
	state := Clamp(page, len(results), limit)
	rows := Slice(results, state)

	if state.PageCount == 0 {
		return rows, models.PaginationModel{}, state
	}

	model := models.PaginationModel{
		Items:     Window(state.CurrentPage, state.PageCount, radius),
		Current:   state.CurrentPage,
		PageCount: state.PageCount,
	}
	if state.CurrentPage > 1 {
		model.Prev = state.CurrentPage - 1
	}
	if state.CurrentPage < state.PageCount {
		model.Next = state.CurrentPage + 1
	}

	return rows, model, state
}
