package ramp

import (
	"os"
	"regexp"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Registry resolves ramp names against user-defined palettes first, then
// the builtins. It is a plain value; loading a file never touches the
// builtin table, so concurrent analyses can hold independent registries.
type Registry struct {
	custom map[string]Ramp
}

// rampFile is the on-disk shape of a user ramp file:
//
//	ramps:
//	  heat:
//	    - "#ffffb2"
//	    - "#fd8d3c"
//	    - "#bd0026"
type rampFile struct {
	Ramps map[string][]string `yaml:"ramps"`
}

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// LoadFile adds user-defined ramps from a YAML file. Loaded ramps shadow
// builtins of the same name for later Get calls on this registry.
func (reg *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "ramp: read %s", path)
	}

	var f rampFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return eris.Wrapf(err, "ramp: parse %s", path)
	}

	if reg.custom == nil {
		reg.custom = make(map[string]Ramp, len(f.Ramps))
	}
	for name, colors := range f.Ramps {
		if len(colors) < 2 {
			return eris.Errorf("ramp: %q needs at least 2 colors", name)
		}
		r := make(Ramp, len(colors))
		for i, c := range colors {
			if !hexColor.MatchString(c) {
				return eris.Errorf("ramp: %q color %q is not #rrggbb", name, c)
			}
			r[i] = Token(c)
		}
		reg.custom[name] = r
	}
	return nil
}

// Get returns the named ramp resized to n classes, preferring user-defined
// ramps over builtins.
func (reg *Registry) Get(name string, n int) (Ramp, error) {
	if r, ok := reg.custom[name]; ok {
		return r.Resize(n)
	}
	return Get(name, n)
}
