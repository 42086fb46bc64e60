package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List past analysis runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		runs, err := st.ListRuns(ctx, runsLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs yet")
			return nil
		}

		fmt.Printf("%-36s  %-9s  %-8s  %-7s  %s\n", "ID", "STATUS", "MODE", "CLASSES", "CREATED")
		for _, r := range runs {
			fmt.Printf("%-36s  %-9s  %-8s  %-7d  %s\n",
				r.ID, r.Status, r.Params.Mode, r.Params.Classes,
				r.CreatedAt.Format("2006-01-02 15:04"))
			if r.Result != nil && len(r.Result.Warnings) > 0 {
				fmt.Printf("    warnings: %s\n", strings.Join(r.Result.Warnings, "; "))
			}
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum runs to list")
	rootCmd.AddCommand(runsCmd)
}
