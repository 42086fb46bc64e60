package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/setorlab/choromap/internal/analysis"
	"github.com/setorlab/choromap/internal/classify"
	"github.com/setorlab/choromap/internal/config"
	"github.com/setorlab/choromap/internal/metric"
	"github.com/setorlab/choromap/internal/ramp"
	"github.com/setorlab/choromap/internal/store"
)

// openStore opens and migrates the configured store backend.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

// buildSpec turns the analyze config section into a runnable analysis spec.
func buildSpec(ac config.AnalyzeConfig) (analysis.Spec, error) {
	mode, err := metric.ParseMode(ac.Mode)
	if err != nil {
		return analysis.Spec{}, err
	}

	if len(ac.Methods) == 0 {
		return analysis.Spec{}, eris.New("no classification methods configured")
	}
	methods := make([]classify.Method, 0, len(ac.Methods))
	for _, m := range ac.Methods {
		method, err := classify.ParseMethod(m)
		if err != nil {
			return analysis.Spec{}, err
		}
		methods = append(methods, method)
	}

	var reg ramp.Registry
	if ac.RampFile != "" {
		if err := reg.LoadFile(ac.RampFile); err != nil {
			return analysis.Spec{}, err
		}
	}
	r, err := reg.Get(ac.Ramp, ac.Classes)
	if err != nil {
		return analysis.Spec{}, err
	}

	return analysis.Spec{
		Categories:  ac.Categories,
		Classes:     ac.Classes,
		Methods:     methods,
		Mode:        mode,
		Ramp:        r,
		RampName:    ac.Ramp,
		CapFraction: ac.CapFraction,
		LogVariant:  ac.LogVariant,
	}, nil
}
