package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	schemapkg "github.com/SortieWorks/sortiechart-cli/internal/schema"
)

var (
	schData      []string
	schDB        string
	schTable     string
	schWorkspace string
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Inspect the inferred schema of the loaded datasets",
	RunE: func(cmd *cobra.Command, args []string) error {
		datasets, err := loadDatasets(schData, schDB, schTable, schWorkspace)
		if err != nil {
			return err
		}
		names := make([]string, 0, len(datasets))
		for name := range datasets {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Print(schemapkg.Build(datasets[name]).Describe())
			fmt.Println()
		}
		return nil
	},
}

func init() {
	schemaCmd.Flags().StringArrayVar(&schData, "data", nil, "CSV/TSV file to load (repeatable)")
	schemaCmd.Flags().StringVar(&schDB, "db", "", "SQLite database file to load")
	schemaCmd.Flags().StringVar(&schTable, "table", "", "table name inside --db")
	schemaCmd.Flags().StringVar(&schWorkspace, "workspace", "", "load datasets from a named workspace")
	rootCmd.AddCommand(schemaCmd)
}
