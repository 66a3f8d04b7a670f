package models

import "strconv"

// PageState is derived on every render from the result size and the requested page
type PageState struct {
	CurrentPage int `json:"current_page"`
	Limit       int `json:"limit"`
	Total       int `json:"total"`
	PageCount   int `json:"page_count"`
}

// StartIndex returns the zero-based index of the first row on the current page
func (p PageState) StartIndex() int {
	return (p.CurrentPage - 1) * p.Limit
}

// PageItem is one entry of the pagination window: a page number or an ellipsis
type PageItem struct {
	Page     int  `json:"page,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
}

// PageNumber returns a PageItem for page n
func PageNumber(n int) PageItem {
	return PageItem{Page: n}
}

// Gap returns an ellipsis marker
func Gap() PageItem {
	return PageItem{Ellipsis: true}
}

// String renders the item the way it is shown to users
func (i PageItem) String() string {
	if i.Ellipsis {
		return "..."
	}
	return strconv.Itoa(i.Page)
}

// PaginationModel describes the pagination controls for one render.
// Prev and Next are zero when the control is hidden.
type PaginationModel struct {
	Items     []PageItem `json:"items"`
	Current   int        `json:"current"`
	PageCount int        `json:"page_count"`
	Prev      int        `json:"prev,omitempty"`
	Next      int        `json:"next,omitempty"`
}

// IsEmpty reports whether there are no controls to show
func (m PaginationModel) IsEmpty() bool {
	return len(m.Items) == 0
}
