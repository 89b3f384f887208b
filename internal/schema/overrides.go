// Package schema loads alias and key-column overrides that extend the
// built-in schema without a rebuild.
//
// An override file looks like:
//
//	fields:
//	  EVID: ["Event Identifier"]
//	  LOCNAME: ["Place"]
//	keys:
//	  Locations: ["PLACE_ID"]
//
// Entries are tried before the built-in ones.
package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/eventmap/internal/core"
)

// Overrides is the decoded form of an override file.
type Overrides struct {
	Fields map[string][]string `yaml:"fields"`
	Keys   map[string][]string `yaml:"keys"`
}

// Parse decodes override YAML. Unknown top-level keys are rejected.
func Parse(data []byte) (Overrides, error) {
	var o Overrides
	if len(bytes.TrimSpace(data)) == 0 {
		return o, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&o); err != nil && !errors.Is(err, io.EOF) {
		return Overrides{}, fmt.Errorf("parse schema overrides: %w", err)
	}

	if err := o.Validate(); err != nil {
		return Overrides{}, err
	}
	return o, nil
}

// LoadFile reads and parses an override file.
func LoadFile(path string) (Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Overrides{}, fmt.Errorf("read schema overrides: %w", err)
	}
	o, err := Parse(data)
	if err != nil {
		return Overrides{}, fmt.Errorf("%s: %w", path, err)
	}
	return o, nil
}

// Validate reports blank names and keys for sheets that are not registered
// as dimensions.
func (o Overrides) Validate() error {
	var errs []string

	for field, aliases := range o.Fields {
		if strings.TrimSpace(field) == "" {
			errs = append(errs, "fields: blank canonical name")
		}
		for _, a := range aliases {
			if strings.TrimSpace(a) == "" {
				errs = append(errs, fmt.Sprintf("fields.%s: blank alias", field))
			}
		}
	}

	for sheet, cols := range o.Keys {
		def, ok := core.Get(core.SheetName(sheet))
		if !ok {
			errs = append(errs, fmt.Sprintf("keys.%s: unknown sheet", sheet))
		} else if def.Kind == core.KindFact {
			errs = append(errs, fmt.Sprintf("keys.%s: the fact sheet is not indexed", sheet))
		}
		for _, c := range cols {
			if strings.TrimSpace(c) == "" {
				errs = append(errs, fmt.Sprintf("keys.%s: blank column", sheet))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid schema overrides:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Schema converts the overrides into a core.Schema layer.
func (o Overrides) Schema() core.Schema {
	s := core.Schema{
		Fields: make(core.AliasTable, len(o.Fields)),
		Keys:   make(map[core.SheetName][]string, len(o.Keys)),
	}
	for field, aliases := range o.Fields {
		s.Fields[strings.TrimSpace(field)] = trimAll(aliases)
	}
	for sheet, cols := range o.Keys {
		s.Keys[core.SheetName(sheet)] = trimAll(cols)
	}
	return s
}

// Resolve returns the built-in schema, extended by the file at path when
// path is non-empty.
func Resolve(path string) (core.Schema, error) {
	base := core.DefaultSchema()
	if path == "" {
		return base, nil
	}
	o, err := LoadFile(path)
	if err != nil {
		return core.Schema{}, err
	}
	return base.Merge(o.Schema()), nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.TrimSpace(s))
	}
	return out
}
