package strategies

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/newthinker/stratbench/internal/core"
	"github.com/newthinker/stratbench/internal/strategy/custom"
)

// Format is a serialisation format for definition files.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts json, yaml or yml.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", core.WrapError(core.ErrInvalidParams, errors.Errorf("unsupported format %q", s))
}

// FormatFromPath infers the format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	f, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return FormatJSON
	}
	return f
}

// Encode serialises defs as a list. JSON output is indented.
func Encode(defs []*custom.Strategy, format Format) ([]byte, error) {
	if defs == nil {
		defs = []*custom.Strategy{}
	}
	switch format {
	case FormatYAML:
		data, err := yaml.Marshal(defs)
		return data, errors.Wrap(err, "encoding yaml")
	default:
		data, err := sonic.ConfigStd.MarshalIndent(defs, "", "  ")
		return data, errors.Wrap(err, "encoding json")
	}
}

// Decode parses a list of definitions. A single definition object is
// accepted as a list of one. Every definition is validated.
func Decode(data []byte, format Format) ([]*custom.Strategy, error) {
	var defs []*custom.Strategy
	var err error
	switch format {
	case FormatYAML:
		defs, err = decodeYAML(data)
	default:
		defs, err = decodeJSON(data)
	}
	if err != nil {
		return nil, core.WrapError(core.ErrInvalidStrategy, err)
	}

	for i, def := range defs {
		if def == nil {
			return nil, core.WrapError(core.ErrInvalidStrategy, errors.Errorf("entry %d is empty", i))
		}
		if err := def.Validate(); err != nil {
			return nil, errors.Wrapf(err, "entry %d", i)
		}
	}
	return defs, nil
}

func decodeJSON(data []byte) ([]*custom.Strategy, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty document")
	}
	if trimmed[0] == '{' {
		var def custom.Strategy
		if err := sonic.Unmarshal(trimmed, &def); err != nil {
			return nil, errors.Wrap(err, "decoding json")
		}
		return []*custom.Strategy{&def}, nil
	}
	var defs []*custom.Strategy
	if err := sonic.Unmarshal(trimmed, &defs); err != nil {
		return nil, errors.Wrap(err, "decoding json")
	}
	return defs, nil
}

func decodeYAML(data []byte) ([]*custom.Strategy, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("empty document")
	}
	var defs []*custom.Strategy
	if err := yaml.Unmarshal(data, &defs); err == nil {
		return defs, nil
	}
	var def custom.Strategy
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, errors.Wrap(err, "decoding yaml")
	}
	return []*custom.Strategy{&def}, nil
}

// ParseFile reads and decodes a definition file, choosing the format by extension.
func ParseFile(path string) ([]*custom.Strategy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return Decode(data, FormatFromPath(path))
}
