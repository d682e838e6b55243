package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	wspkg "github.com/SortieWorks/sortiechart-cli/internal/workspace"
)

var wsAddTable string

var workspaceCmd = &cobra.Command{
	Use:   "workspace",
	Short: "Manage named sets of registered datasets",
}

var workspaceInitCmd = &cobra.Command{
	Use:   "init <name>",
	Short: "Create a new workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		dir, err := workspaceDir(name)
		if err != nil {
			return err
		}
		ws := wspkg.New(name, dir)
		if err := ws.Save(); err != nil {
			return err
		}
		fmt.Printf("✓ Created workspace %s at %s\n", name, ws.RootDir())
		return nil
	},
}

var workspaceAddCmd = &cobra.Command{
	Use:   "add <workspace> <dataset-name> <path>",
	Short: "Register a CSV or SQLite dataset in a workspace",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		wsName, dsName, path := args[0], args[1], args[2]
		ws, err := loadWorkspace(wsName)
		if err != nil {
			return err
		}
		kind := "csv"
		switch strings.ToLower(filepath.Ext(path)) {
		case ".db", ".sqlite", ".sqlite3":
			kind = "sqlite"
			if wsAddTable == "" {
				return fmt.Errorf("--table is required for SQLite datasets")
			}
		}
		ref, err := ws.Add(dsName, kind, path, wsAddTable)
		if err != nil {
			return err
		}
		if err := ws.Save(); err != nil {
			return err
		}
		fmt.Printf("✓ Registered %s (%s) as %s [%s]\n", dsName, kind, ref.ID, path)
		return nil
	},
}

var workspaceListCmd = &cobra.Command{
	Use:   "list <workspace>",
	Short: "List the datasets registered in a workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := loadWorkspace(args[0])
		if err != nil {
			return err
		}
		refs := ws.List()
		if len(refs) == 0 {
			fmt.Println("No datasets registered")
			return nil
		}
		for _, ref := range refs {
			line := fmt.Sprintf("- %s (%s) %s", ref.Name, ref.Kind, ref.Path)
			if ref.Table != "" {
				line += " table=" + ref.Table
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	workspaceAddCmd.Flags().StringVar(&wsAddTable, "table", "", "table name for SQLite datasets")
	workspaceCmd.AddCommand(workspaceInitCmd)
	workspaceCmd.AddCommand(workspaceAddCmd)
	workspaceCmd.AddCommand(workspaceListCmd)
	rootCmd.AddCommand(workspaceCmd)
}
