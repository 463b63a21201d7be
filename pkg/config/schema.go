package config

import (
	"reflect"

	"github.com/goccy/go-yaml"
	"github.com/invopop/jsonschema"
)

// SchemaID identifies the generated schema.
const SchemaID = "https://github.com/calque-ai/ragate/ragate.schema.json"

// Schema returns the JSON Schema of the YAML file, keyed by yaml field names,
// for editor completion and CI linting of ragate.yaml.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		FieldNameTag:               "yaml",
		DoNotReference:             true,
		AllowAdditionalProperties:  false,
		RequiredFromJSONSchemaTags: true,
		Mapper:                     schemaMapper,
	}
	s := r.Reflect(&Config{})
	s.ID = SchemaID
	s.Title = "ragate configuration"
	return s
}

var mapSliceType = reflect.TypeOf(yaml.MapSlice{})

// schemaMapper describes attack_patterns as the mapping it is in YAML rather
// than the decoder's ordered slice.
func schemaMapper(t reflect.Type) *jsonschema.Schema {
	if t != mapSliceType {
		return nil
	}
	return &jsonschema.Schema{
		Type:                 "object",
		Description:          "attack family -> regular expressions, evaluated in file order",
		AdditionalProperties: &jsonschema.Schema{Type: "array", Items: &jsonschema.Schema{Type: "string"}},
	}
}

// Redacted returns a copy with credentials masked, for printing.
func (c *Config) Redacted() *Config {
	out := *c
	mask := func(s *string) {
		if *s != "" {
			*s = "******"
		}
	}
	mask(&out.Search.Qdrant.APIKey)
	mask(&out.Search.PGVector.DSN)
	mask(&out.Search.Weaviate.APIKey)
	mask(&out.Embedding.APIKey)
	return &out
}

// YAML renders the configuration in file form.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
