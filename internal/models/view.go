package models

import "strconv"

// ViewState distinguishes a populated table from the empty and error states
type ViewState string

const (
	ViewOK    ViewState = "ok"
	ViewEmpty ViewState = "empty"
	ViewError ViewState = "error"
)

// Columns is the fixed header of the domain table
var Columns = []string{"#", "Domain", "Type", "Auction", "Marketplace", "Brokerage", "Average", "Date"}

// Row is one rendered table row with display-ready cells
type Row struct {
	Rank         int    `json:"rank"`
	Domain       string `json:"domain"`
	DomainType   string `json:"domain_type"`
	Auction      string `json:"auction"`
	Marketplace  string `json:"marketplace"`
	Brokerage    string `json:"brokerage"`
	AverageValue string `json:"average_value"`
	Date         string `json:"date"`
}

// Cells returns the row in Columns order
func (r Row) Cells() []string {
	return []string{
		strconv.Itoa(r.Rank),
		r.Domain,
		r.DomainType,
		r.Auction,
		r.Marketplace,
		r.Brokerage,
		r.AverageValue,
		r.Date,
	}
}

// View is the presentation-agnostic result of one pipeline run.
// In the error state Rows and Pagination are always empty and Retry holds
// the invocation to re-run.
type View struct {
	State      ViewState       `json:"state"`
	Selection  FilterSelection `json:"selection"`
	Page       PageState       `json:"page"`
	Columns    []string        `json:"columns"`
	Rows       []Row           `json:"rows"`
	Pagination PaginationModel `json:"pagination"`
	Message    string          `json:"message,omitempty"`
	Retry      *Invocation     `json:"retry,omitempty"`
}
