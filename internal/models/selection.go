package models

// FilterType is the domain-type filter as exposed by the UI
type FilterType string

const (
	TypeAll        FilterType = "5L.coms & 6L.coms"
	TypeFiveLetter FilterType = "5L.coms"
	TypeSixLetter  FilterType = "6L.coms"
)

// SortMetric selects which valuation the list is ordered by
type SortMetric string

const (
	SortMarketplace SortMetric = "marketplace"
	SortAuction     SortMetric = "auction"
	SortBrokerage   SortMetric = "brokerage"
	SortAverage     SortMetric = "average"
)

// DateRange selects the reporting window of a list
type DateRange string

const (
	DateToday      DateRange = "today"
	DateYesterday  DateRange = "yesterday"
	DateLast7Days  DateRange = "last7days"
	DateLast30Days DateRange = "last30days"
)

// DefaultLimit is the page size used when none is selected
const DefaultLimit = 25

// FilterSelection holds the four values a user picks before applying filters
type FilterSelection struct {
	Type  FilterType `json:"type"`
	Sort  SortMetric `json:"sort"`
	Date  DateRange  `json:"date"`
	Limit int        `json:"limit"`
}

// DefaultSelection returns the selection shown on first load
func DefaultSelection() FilterSelection {
	return FilterSelection{
		Type:  TypeAll,
		Sort:  SortAverage,
		Date:  DateLast7Days,
		Limit: DefaultLimit,
	}
}

// WithDefaults fills empty fields from DefaultSelection
func (s FilterSelection) WithDefaults() FilterSelection {
	def := DefaultSelection()
	if s.Type == "" {
		s.Type = def.Type
	}
	if s.Sort == "" {
		s.Sort = def.Sort
	}
	if s.Date == "" {
		s.Date = def.Date
	}
	if s.Limit == 0 {
		s.Limit = def.Limit
	}
	return s
}

// Invocation is everything needed to run the list pipeline once.
// Retrying an invocation must produce the same request.
type Invocation struct {
	Selection FilterSelection `json:"selection"`
	Page      int             `json:"page"`
}
