package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func resolveCmd() *cobra.Command {
	var sel selectionFlags

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the list file a filter selection maps to",
		RunE: func(cmd *cobra.Command, args []string) error {
			selection, err := sel.selection()
			if err != nil {
				return err
			}

			res, err := newResolver(cfg.Mapping.File)
			if err != nil {
				return err
			}
			id, err := res.Resolve(selection)
			if err != nil {
				return err
			}

			loader, err := newLoader(cfg.Lists.BaseURL)
			if err != nil {
				return err
			}

			fmt.Printf("File: %s\n", id.Filename)
			fmt.Printf("URL:  %s\n", loader.URL(id))
			return nil
		},
	}

	sel.register(cmd)
	return cmd
}
