package resolver

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/terra-clan/domain-lists/internal/models"
)

// Tables maps UI selection values to the filename tokens of the list files.
// It is the single place those mappings live.
type Tables struct {
	Types map[string]string `yaml:"types" json:"types"`
	Dates map[string]string `yaml:"dates" json:"dates"`
	Sorts map[string]string `yaml:"sorts" json:"sorts"`
}

// Display order of the built-in values. Values added by a mapping file
// follow them in sorted order.
var (
	typeOrder = []string{string(models.TypeAll), string(models.TypeFiveLetter), string(models.TypeSixLetter)}
	dateOrder = []string{string(models.DateToday), string(models.DateYesterday), string(models.DateLast7Days), string(models.DateLast30Days)}
	sortOrder = []string{string(models.SortMarketplace), string(models.SortAuction), string(models.SortBrokerage), string(models.SortAverage)}
)

// DefaultTables returns the canonical mapping shipped with the service
func DefaultTables() Tables {
	return Tables{
		Types: map[string]string{
			string(models.TypeAll):        "all",
			string(models.TypeFiveLetter): "5L",
			string(models.TypeSixLetter):  "6L",
		},
		Dates: map[string]string{
			string(models.DateToday):      "today",
			string(models.DateYesterday):  "yesterday",
			string(models.DateLast7Days):  "last7days",
			string(models.DateLast30Days): "last30days",
		},
		Sorts: map[string]string{
			string(models.SortMarketplace): "marketplace",
			string(models.SortAuction):     "auction",
			string(models.SortBrokerage):   "brokerage",
			string(models.SortAverage):     "average_value",
		},
	}
}

// LoadTables reads a mapping file. Sections left out of the file keep their
// default values.
func LoadTables(path string) (Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("failed to read mapping file: %w", err)
	}

	var file Tables
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Tables{}, fmt.Errorf("failed to parse mapping YAML: %w", err)
	}

	tables := DefaultTables()
	if file.Types != nil {
		tables.Types = file.Types
	}
	if file.Dates != nil {
		tables.Dates = file.Dates
	}
	if file.Sorts != nil {
		tables.Sorts = file.Sorts
	}

	if err := tables.Validate(); err != nil {
		return Tables{}, err
	}

	slog.Info("mapping tables loaded",
		"file", path,
		"types", len(tables.Types),
		"dates", len(tables.Dates),
		"sorts", len(tables.Sorts),
	)
	return tables, nil
}

// Validate checks that every table is populated and every token can be
// joined into a filename unambiguously
func (t Tables) Validate() error {
	sections := []struct {
		name  string
		table map[string]string
	}{
		{"types", t.Types},
		{"dates", t.Dates},
		{"sorts", t.Sorts},
	}

	for _, s := range sections {
		if len(s.table) == 0 {
			return fmt.Errorf("mapping table %q is empty", s.name)
		}
		for value, token := range s.table {
			if value == "" {
				return fmt.Errorf("mapping table %q has an empty key", s.name)
			}
			if token == "" {
				return fmt.Errorf("mapping table %q: value %q has an empty token", s.name, value)
			}
			if strings.ContainsAny(token, "/\\?#") {
				return fmt.Errorf("mapping table %q: token %q contains a path character", s.name, token)
			}
		}
	}
	return nil
}

// Options lists the selectable values of each table in display order
type Options struct {
	Types    []string               `json:"types"`
	Sorts    []string               `json:"sorts"`
	Dates    []string               `json:"dates"`
	Defaults models.FilterSelection `json:"defaults"`
}

// Options returns the selectable values for populating UI controls
func (t Tables) Options() Options {
	return Options{
		Types:    orderedKeys(t.Types, typeOrder),
		Sorts:    orderedKeys(t.Sorts, sortOrder),
		Dates:    orderedKeys(t.Dates, dateOrder),
		Defaults: models.DefaultSelection(),
	}
}

func orderedKeys(m map[string]string, order []string) []string {
	keys := make([]string, 0, len(m))
	known := make(map[string]bool, len(order))
	for _, k := range order {
		known[k] = true
		if _, ok := m[k]; ok {
			keys = append(keys, k)
		}
	}

	var extra []string
	for k := range m {
		if !known[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}
