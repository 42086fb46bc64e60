// Package ramp defines the discrete color sequences choropleth classes are
// painted with. A ramp is a pure value: classification code receives it as
// an argument and never mutates shared palette state.
package ramp

import (
	"sort"

	"github.com/rotisserie/eris"
)

// Token is a resolved display color in #rrggbb hex form, or the NoData
// sentinel for units without a metric.
type Token string

// NoData marks a unit that has no metric value. Renderers must draw it in a
// neutral style that cannot be confused with the low end of a ramp.
const NoData Token = "no-data"

// NoDataFill is the neutral fill renderers conventionally use for NoData.
const NoDataFill = "#c8c8c8"

// Ramp is an ordered light-to-dark sequence of class colors.
type Ramp []Token

// Builtin palettes, ColorBrewer 9-class sequences. Resize picks the class
// count actually needed.
var builtin = map[string]Ramp{
	"ylorrd": {
		"#ffffcc", "#ffeda0", "#fed976", "#feb24c", "#fd8d3c",
		"#fc4e2a", "#e31a1c", "#bd0026", "#800026",
	},
	"blues": {
		"#f7fbff", "#deebf7", "#c6dbef", "#9ecae1", "#6baed6",
		"#4292c6", "#2171b5", "#08519c", "#08306b",
	},
	"greens": {
		"#f7fcf5", "#e5f5e0", "#c7e9c0", "#a1d99b", "#74c476",
		"#41ab5d", "#238b45", "#006d2c", "#00441b",
	},
	"purples": {
		"#fcfbfd", "#efedf5", "#dadaeb", "#bcbddc", "#9e9ac8",
		"#807dba", "#6a51a3", "#54278f", "#3f007d",
	},
}

// Get returns the named builtin ramp resized to n classes.
func Get(name string, n int) (Ramp, error) {
	r, ok := builtin[name]
	if !ok {
		return nil, eris.Errorf("ramp: unknown ramp %q (have %v)", name, Names())
	}
	return r.Resize(n)
}

// Names lists the builtin ramp names, sorted.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resize samples n colors evenly across the ramp, keeping both endpoints.
func (r Ramp) Resize(n int) (Ramp, error) {
	if n < 1 {
		return nil, eris.Errorf("ramp: need at least 1 color, got %d", n)
	}
	if n > len(r) {
		return nil, eris.Errorf("ramp: %d classes exceed ramp size %d", n, len(r))
	}
	if n == len(r) {
		return append(Ramp(nil), r...), nil
	}
	out := make(Ramp, n)
	if n == 1 {
		out[0] = r[len(r)-1]
		return out, nil
	}
	for i := 0; i < n; i++ {
		idx := i * (len(r) - 1) / (n - 1)
		out[i] = r[idx]
	}
	return out, nil
}
