package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/terra-clan/domain-lists/internal/board"
	"github.com/terra-clan/domain-lists/internal/lists"
	"github.com/terra-clan/domain-lists/internal/models"
)

// selectionFlags are shared by the commands that take a filter selection
type selectionFlags struct {
	filterType string
	sort       string
	date       string
	limit      int
}

func (f *selectionFlags) register(cmd *cobra.Command) {
	def := models.DefaultSelection()
	cmd.Flags().StringVar(&f.filterType, "type", string(def.Type), "domain type filter")
	cmd.Flags().StringVar(&f.sort, "sort", string(def.Sort), "valuation to sort by")
	cmd.Flags().StringVar(&f.date, "date", string(def.Date), "date range")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "rows per page (default from PAGINATION_DEFAULT_LIMIT)")
}

func (f *selectionFlags) selection() (models.FilterSelection, error) {
	limit := f.limit
	if limit == 0 {
		limit = cfg.Pagination.DefaultLimit
	}
	if limit < 1 || limit > cfg.Pagination.MaxLimit {
		return models.FilterSelection{}, fmt.Errorf("limit must be between 1 and %d", cfg.Pagination.MaxLimit)
	}
	return models.FilterSelection{
		Type:  models.FilterType(f.filterType),
		Sort:  models.SortMetric(f.sort),
		Date:  models.DateRange(f.date),
		Limit: limit,
	}, nil
}

func pageCmd() *cobra.Command {
	var (
		sel     selectionFlags
		page    int
		baseURL string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "page",
		Short: "Fetch one list and print a page of it",
		RunE: func(cmd *cobra.Command, args []string) error {
			selection, err := sel.selection()
			if err != nil {
				return err
			}

			res, err := newResolver(cfg.Mapping.File)
			if err != nil {
				return err
			}
			if baseURL == "" {
				baseURL = cfg.Lists.BaseURL
			}
			loader, err := newLoader(baseURL)
			if err != nil {
				return err
			}

			pipeline := board.NewPipeline(res, loader, board.WithRadius(cfg.Pagination.Radius))
			v, runErr := pipeline.Run(cmd.Context(), models.Invocation{Selection: selection, Page: page})
			if runErr != nil && !errors.Is(runErr, lists.ErrResourceUnavailable) {
				return runErr
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(v); err != nil {
					return err
				}
			} else {
				fmt.Print(renderView(v))
			}
			return runErr
		},
	}

	sel.register(cmd)
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "lists base URL (default from LISTS_BASE_URL)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the view as JSON")
	return cmd
}
