// Package view maps paginated results to the presentation-agnostic view model.
// Nothing in here performs I/O; concrete UIs bind to models.View.
package view

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/terra-clan/domain-lists/internal/models"
	"github.com/terra-clan/domain-lists/internal/pagination"
)

// EmptyMessage is shown in place of rows when a list has no records
const EmptyMessage = "No domains found matching your criteria"

// RetryHint follows the error message in the error row
const RetryHint = "Please check your filters and try again"

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Build renders one page of results for inv
func Build(inv models.Invocation, results models.ResultSet, radius int) models.View {
	rows, model, state := pagination.Paginate(results, inv.Page, inv.Selection.Limit, radius)

	v := models.View{
		State:      models.ViewOK,
		Selection:  inv.Selection,
		Page:       state,
		Columns:    models.Columns,
		Rows:       make([]models.Row, 0, len(rows)),
		Pagination: model,
	}

	if len(results) == 0 {
		v.State = models.ViewEmpty
		v.Message = EmptyMessage
		return v
	}

	start := state.StartIndex()
	for i, rec := range rows {
		v.Rows = append(v.Rows, Row(start+i+1, rec))
	}
	return v
}

// Error renders the error state. The whole table is replaced: no rows, no
// pagination, and a retry of the exact same invocation. cause is shown to
// users as-is and must not carry internal detail such as upstream URLs.
func Error(inv models.Invocation, cause string) models.View {
	retry := inv
	return models.View{
		State:     models.ViewError,
		Selection: inv.Selection,
		Page: models.PageState{
			CurrentPage: max(inv.Page, 1),
			Limit:       inv.Selection.Limit,
		},
		Columns: models.Columns,
		Rows:    []models.Row{},
		Message: "Error loading data: " + cause,
		Retry:   &retry,
	}
}

// Row formats one record
func Row(rank int, rec models.DomainRecord) models.Row {
	return models.Row{
		Rank:         rank,
		Domain:       rec.Domain,
		DomainType:   rec.DomainType,
		Auction:      Money(rec.Auction),
		Marketplace:  Money(rec.Marketplace),
		Brokerage:    Money(rec.Brokerage),
		AverageValue: Money(rec.AverageValue),
		Date:         Date(rec.Date),
	}
}

// Money formats a value as dollars with thousands separators, e.g. "$1,566.83"
func Money(d decimal.Decimal) string {
	return "$" + humanize.Commaf(d.Round(2).InexactFloat64())
}

// Date formats a record date as M/D/YYYY. Unparseable dates are shown as-is.
func Date(s string) string {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("1/2/2006")
		}
	}
	return s
}
