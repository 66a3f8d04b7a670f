package models

import (
	"github.com/shopspring/decimal"
)

// DomainRecord is one row of a precomputed valuation list.
// Missing numeric fields decode to zero.
type DomainRecord struct {
	Domain       string          `json:"domain"`
	DomainType   string          `json:"domain_type"`
	Auction      decimal.Decimal `json:"auction"`
	Marketplace  decimal.Decimal `json:"marketplace"`
	Brokerage    decimal.Decimal `json:"brokerage"`
	AverageValue decimal.Decimal `json:"average_value"`
	Date         string          `json:"date"`
}

// ResultSet is the full, unpaginated list in the order the source file provides
type ResultSet []DomainRecord
