package cmd

import (
	"log"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/SortieWorks/sortiechart-cli/internal/engine"
	"github.com/SortieWorks/sortiechart-cli/internal/server"
)

var (
	srvData      []string
	srvDB        string
	srvTable     string
	srvWorkspace string
	srvAddr      string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve chart requests over HTTP",
	Long:  `Starts the thin HTTP shell: POST /v1/chart with {"prompt": "..."} returns the chart spec and the aggregated table for the configured datasets.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		datasets, err := loadDatasets(srvData, srvDB, srvTable, srvWorkspace)
		if err != nil {
			return err
		}
		parser, err := buildParser()
		if err != nil {
			return err
		}
		session := engine.NewSession(parser, datasets)

		addr := srvAddr
		if addr == "" && cfg != nil {
			addr = cfg.ServeAddr
		}
		if addr == "" {
			addr = "127.0.0.1:8765"
		}

		srv := server.New(session)
		log.Printf("serving %d dataset(s) on %s", len(datasets), addr)
		return http.ListenAndServe(addr, srv.Handler())
	},
}

func init() {
	serveCmd.Flags().StringArrayVar(&srvData, "data", nil, "CSV/TSV file to load (repeatable)")
	serveCmd.Flags().StringVar(&srvDB, "db", "", "SQLite database file to load")
	serveCmd.Flags().StringVar(&srvTable, "table", "", "table name inside --db")
	serveCmd.Flags().StringVar(&srvWorkspace, "workspace", "", "load datasets from a named workspace")
	serveCmd.Flags().StringVar(&srvAddr, "addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
