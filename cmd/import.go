package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/setorlab/choromap/internal/ibge"
	"github.com/setorlab/choromap/internal/model"
	"github.com/setorlab/choromap/internal/source"
)

var (
	importShapefile string
	importFetchURL  string

	importCSVPath   string
	importXLSXPath  string
	importSheet     string
	importDelimiter string
	importIDCol     string
	importCatCol    string
	importNameCol   string
	importLatCol    string
	importLonCol    string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import census geometry and event extracts into the store",
}

var importTractsCmd = &cobra.Command{
	Use:   "tracts",
	Short: "Import census-sector geometry from a shapefile",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		shpPath := importShapefile
		if shpPath == "" && importFetchURL != "" {
			fetcher := ibge.NewFetcher(nil, cfg.IBGE.RatePerSec)
			p, err := fetcher.FetchArchive(ctx, importFetchURL, cfg.IBGE.TempDir)
			if err != nil {
				return err
			}
			shpPath = p
		}
		if shpPath == "" {
			return eris.New("either --shapefile or --fetch is required")
		}

		tracts, err := ibge.LoadTracts(shpPath)
		if err != nil {
			return err
		}

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		n, err := st.ReplaceTracts(ctx, tracts)
		if err != nil {
			return err
		}

		zap.L().Info("import: tracts stored", zap.Int("count", n))
		fmt.Printf("Imported %d tracts\n", n)
		return nil
	},
}

var importEventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Import point-of-interest events from CSV or XLSX",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cols := source.Columns{
			UnitID:   importIDCol,
			Category: importCatCol,
			Name:     importNameCol,
			Lat:      importLatCol,
			Lon:      importLonCol,
		}

		events, err := readEvents(cols)
		if err != nil {
			return err
		}

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		n, err := st.ReplaceEvents(ctx, events)
		if err != nil {
			return err
		}

		zap.L().Info("import: events stored", zap.Int("count", n))
		fmt.Printf("Imported %d events\n", n)
		return nil
	},
}

func readEvents(cols source.Columns) ([]model.RawEvent, error) {
	switch {
	case importCSVPath != "":
		f, err := os.Open(importCSVPath)
		if err != nil {
			return nil, eris.Wrapf(err, "open %s", importCSVPath)
		}
		defer func() { _ = f.Close() }()

		opts := source.CSVOptions{Columns: cols}
		if importDelimiter != "" {
			opts.Delimiter = rune(importDelimiter[0])
		}
		return source.ReadCSV(f, opts)
	case importXLSXPath != "":
		return source.ReadXLSX(importXLSXPath, source.XLSXOptions{
			Columns:   cols,
			SheetName: importSheet,
		})
	}
	return nil, eris.New("either --csv or --xlsx is required")
}

func init() {
	importTractsCmd.Flags().StringVar(&importShapefile, "shapefile", "", "path to a local .shp file")
	importTractsCmd.Flags().StringVar(&importFetchURL, "fetch", "", "http(s) or ftp URL of a sector geometry ZIP")

	importEventsCmd.Flags().StringVar(&importCSVPath, "csv", "", "path to a CSV extract")
	importEventsCmd.Flags().StringVar(&importXLSXPath, "xlsx", "", "path to an XLSX extract")
	importEventsCmd.Flags().StringVar(&importSheet, "sheet", "", "XLSX sheet name (default: first sheet)")
	importEventsCmd.Flags().StringVar(&importDelimiter, "delimiter", "", "CSV delimiter (default ',')")
	importEventsCmd.Flags().StringVar(&importIDCol, "id-col", "CD_SETOR", "column holding the sector id")
	importEventsCmd.Flags().StringVar(&importCatCol, "category-col", "CATEGORIA", "column holding the category code")
	importEventsCmd.Flags().StringVar(&importNameCol, "name-col", "", "optional column holding the POI name")
	importEventsCmd.Flags().StringVar(&importLatCol, "lat-col", "", "optional latitude column")
	importEventsCmd.Flags().StringVar(&importLonCol, "lon-col", "", "optional longitude column")

	importCmd.AddCommand(importTractsCmd, importEventsCmd)
	rootCmd.AddCommand(importCmd)
}
