package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/setorlab/choromap/internal/analysis"
	"github.com/setorlab/choromap/internal/model"
	"github.com/setorlab/choromap/internal/render"
)

var analyzeOut string

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Classify the imported data and write color-assigned GeoJSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		spec, err := buildSpec(cfg.Analyze)
		if err != nil {
			return err
		}

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		tracts, err := st.LoadTracts(ctx)
		if err != nil {
			return err
		}
		events, err := st.LoadEvents(ctx)
		if err != nil {
			return err
		}

		res, err := analysis.Run(ctx, tracts, events, spec)
		if err != nil {
			return err
		}

		run := &model.Run{
			ID:     res.RunID,
			Params: res.Params,
			Status: model.RunStatusComplete,
			Result: buildRunResult(res, cfg.Analyze.Locale),
		}
		if err := st.SaveRun(ctx, run); err != nil {
			return err
		}

		if analyzeOut != "" {
			if err := render.WriteFile(analyzeOut, res.Enriched); err != nil {
				return err
			}
			zap.L().Info("analyze: geojson written", zap.String("path", analyzeOut))
		}

		printRunSummary(res, cfg.Analyze.Locale)
		return nil
	},
}

// buildRunResult flattens an analysis result into its persisted form.
func buildRunResult(res *analysis.Result, locale string) *model.RunResult {
	variants := make(map[string]model.VariantBreak, len(res.Variants))
	for name, v := range res.Variants {
		variants[name] = model.VariantBreak{
			Breaks: v.Breaks,
			Legend: render.Legend(v.Breaks, locale),
		}
	}
	return &model.RunResult{
		UnitsTotal:    res.Report.UnitsTotal,
		UnitsWithData: res.Report.UnitsWithData,
		UnitsMissing:  len(res.Report.Missing),
		MissingIDs:    res.Report.Missing,
		Variants:      variants,
		Summary:       res.Summary,
		Warnings:      res.Warnings,
	}
}

func printRunSummary(res *analysis.Result, locale string) {
	fmt.Printf("Run %s\n", res.RunID)
	fmt.Printf("  sectors: %d total, %d with data, %d missing\n",
		res.Report.UnitsTotal, res.Report.UnitsWithData, len(res.Report.Missing))
	fmt.Printf("  metric: n=%d mean=%.3f sd=%.3f range=[%.3f, %.3f]\n",
		res.Summary.Count, res.Summary.Mean, res.Summary.StdDev, res.Summary.Min, res.Summary.Max)
	for name, v := range res.Variants {
		fmt.Printf("  %s:\n", name)
		for _, label := range render.Legend(v.Breaks, locale) {
			fmt.Printf("    %s\n", label)
		}
	}
	for _, w := range res.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeOut, "out", "choropleth.geojson", "output GeoJSON path (empty to skip)")
	analyzeCmd.Flags().IntVar(&analyzeClasses, "classes", 0, "override class count")
	analyzeCmd.Flags().StringVar(&analyzeMode, "mode", "", "override metric mode (raw|density|log)")
	analyzeCmd.Flags().StringVar(&analyzeRamp, "ramp", "", "override color ramp name")
	analyzeCmd.Flags().Float64Var(&analyzeCap, "cap", -1, "override upper winsorization fraction (0 disables)")
	analyzeCmd.Flags().StringSliceVar(&analyzeMethods, "methods", nil, "override methods (equal,quantile,jenks)")
	analyzeCmd.Flags().IntSliceVar(&analyzeCategories, "categories", nil, "override category filter")

	analyzeCmd.PreRun = func(cmd *cobra.Command, args []string) {
		if analyzeClasses > 0 {
			cfg.Analyze.Classes = analyzeClasses
		}
		if analyzeMode != "" {
			cfg.Analyze.Mode = analyzeMode
		}
		if analyzeRamp != "" {
			cfg.Analyze.Ramp = analyzeRamp
		}
		if analyzeCap >= 0 {
			cfg.Analyze.CapFraction = analyzeCap
		}
		if len(analyzeMethods) > 0 {
			cfg.Analyze.Methods = analyzeMethods
		}
		if len(analyzeCategories) > 0 {
			cfg.Analyze.Categories = analyzeCategories
		}
	}

	rootCmd.AddCommand(analyzeCmd)
}

var (
	analyzeClasses    int
	analyzeMode       string
	analyzeRamp       string
	analyzeCap        float64
	analyzeMethods    []string
	analyzeCategories []int
)
