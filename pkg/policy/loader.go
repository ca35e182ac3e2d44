package policy

import (
	"encoding/json"
	"log/slog"
	"os"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Load reads a policy document from filename (YAML or JSON, tried in that
// order) and returns a validated Policy.
func Load(filename string) (*Policy, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read policy file: %s", filename)
	}
	return LoadBytes(data)
}

// LoadBytes decodes a policy document, tolerating the legacy map-of-tables
// shape, and validates it. The core never sees anything but a normalized
// RawPolicy.
func LoadBytes(data []byte) (*Policy, error) {
	var generic map[string]any

	if err := yaml.Unmarshal(data, &generic); err != nil {
		slog.Debug("policy: YAML decode failed, trying JSON", "error", err)
		if err := json.Unmarshal(data, &generic); err != nil {
			return nil, errors.Wrap(err, "policy document is neither valid YAML nor valid JSON")
		}
	}

	raw, err := normalize(generic)
	if err != nil {
		return nil, errors.Wrap(err, "failed to normalize policy document")
	}

	return Validate(raw)
}

// normalize tolerates both the canonical list-of-tables shape and a legacy
// shape where "tables" is a map of table name to body, decoding either into
// a RawPolicy via mapstructure's weakly-typed decoder.
func normalize(generic map[string]any) (RawPolicy, error) {
	tables, _ := generic["tables"]

	var list []any
	switch t := tables.(type) {
	case []any:
		list = t
	case map[string]any:
		for name, body := range t {
			entry, ok := body.(map[string]any)
			if !ok {
				entry = map[string]any{}
			}
			if _, hasName := entry["table_name"]; !hasName {
				entry["table_name"] = name
			}
			list = append(list, entry)
		}
	default:
		return RawPolicy{}, errors.New(`policy document missing a "tables" list or map`)
	}

	var raw RawPolicy
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &raw.Tables,
	})
	if err != nil {
		return RawPolicy{}, err
	}
	if err := decoder.Decode(list); err != nil {
		return RawPolicy{}, errors.Wrap(err, "failed to decode policy tables")
	}
	return raw, nil
}
