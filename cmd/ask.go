package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/SortieWorks/sortiechart-cli/internal/engine"
	"github.com/SortieWorks/sortiechart-cli/internal/query"
)

var (
	askData      []string
	askDB        string
	askTable     string
	askWorkspace string
	askDataset   string
	askFormat    string
)

var askCmd = &cobra.Command{
	Use:   "ask <prompt>",
	Short: "Resolve a natural-language chart request against the loaded datasets",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prompt := args[0]

		datasets, err := loadDatasets(askData, askDB, askTable, askWorkspace)
		if err != nil {
			return err
		}
		parser, err := buildParser()
		if err != nil {
			return err
		}
		session := engine.NewSession(parser, datasets)

		var out *engine.Outcome
		if askDataset != "" {
			out, err = session.ResolveIn(cmd.Context(), prompt, askDataset)
		} else {
			out, err = session.Resolve(cmd.Context(), prompt)
		}
		if err != nil {
			return friendlyError(err)
		}
		return printOutcome(out, askFormat)
	},
}

func init() {
	askCmd.Flags().StringArrayVar(&askData, "data", nil, "CSV/TSV file to load (repeatable)")
	askCmd.Flags().StringVar(&askDB, "db", "", "SQLite database file to load")
	askCmd.Flags().StringVar(&askTable, "table", "", "table name inside --db")
	askCmd.Flags().StringVar(&askWorkspace, "workspace", "", "load datasets from a named workspace")
	askCmd.Flags().StringVar(&askDataset, "dataset", "", "resolve against this dataset only")
	askCmd.Flags().StringVar(&askFormat, "format", "table", "output format: table, json, or yaml")
	rootCmd.AddCommand(askCmd)
}

func printOutcome(out *engine.Outcome, format string) error {
	switch format {
	case "json":
		b, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(b))
	case "yaml":
		b, err := yaml.Marshal(out)
		if err != nil {
			return err
		}
		fmt.Print(string(b))
	case "table":
		fmt.Printf("%s (%s chart, dataset %s)\n\n", out.Spec.Title, out.Spec.Kind, out.Dataset)
		width := 0
		for _, l := range out.Spec.Labels {
			if len(l) > width {
				width = len(l)
			}
		}
		for i, l := range out.Spec.Labels {
			fmt.Printf("  %-*s  %10.2f\n", width, l, out.Spec.Values[i])
		}
	default:
		return fmt.Errorf("unknown format %q (use table, json, or yaml)", format)
	}
	return nil
}

// friendlyError rewords the core's tagged errors for terminal users.
func friendlyError(err error) error {
	var parseErr *query.ParseError
	if errors.As(err, &parseErr) {
		return fmt.Errorf("%s — try rephrasing, e.g. \"draw a pie chart of percentage of airtime detected by pcl\"", parseErr.Error())
	}
	var valErr *query.ValidateError
	if errors.As(err, &valErr) {
		if len(valErr.Suggestions) > 0 {
			return fmt.Errorf("%s: %q is not in the data — known values: %s",
				err.Error(), valErr.Token, strings.Join(valErr.Suggestions, ", "))
		}
		return err
	}
	var execErr *query.ExecError
	if errors.As(err, &execErr) && execErr.Kind == query.ExecEmptyResult {
		return fmt.Errorf("no flights match the given filters — nothing to chart")
	}
	return err
}
