// Package schemas holds the JSON schemas of the three resources and decodes
// inbound payloads against them.
package schemas

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed json/*.json
var schemaFS embed.FS

// Resource names a document collection.
type Resource string

const (
	Users    Resource = "users"
	Sensors  Resource = "sensors"
	Measures Resource = "measures"
)

// Mode selects between the full (create) and partial (update) schema.
type Mode string

const (
	Create Mode = "create"
	Patch  Mode = "patch"
)

// RootField is the key used for errors that concern the whole payload.
const RootField = "(root)"

// Error lists field level problems found in a payload.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "invalid payload"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid payload: " + strings.Join(parts, "; ")
}

func rootError(msg string) *Error {
	return &Error{Fields: map[string]string{RootField: msg}}
}

// Validator validates payloads against the embedded resource schemas.
type Validator struct {
	schemas map[string]*gojsonschema.Schema
}

func schemaKey(r Resource, m Mode) string { return string(r) + "." + string(m) }

// NewValidator compiles every embedded schema.
func NewValidator() (*Validator, error) {
	v := &Validator{schemas: make(map[string]*gojsonschema.Schema)}
	for _, r := range []Resource{Users, Sensors, Measures} {
		for _, m := range []Mode{Create, Patch} {
			key := schemaKey(r, m)
			raw, err := schemaFS.ReadFile("json/" + key + ".json")
			if err != nil {
				return nil, fmt.Errorf("cannot read schema %s: %w", key, err)
			}
			s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
			if err != nil {
				return nil, fmt.Errorf("cannot compile schema %s: %w", key, err)
			}
			v.schemas[key] = s
		}
	}
	return v, nil
}

// MustNewValidator is NewValidator for package initialisation.
func MustNewValidator() *Validator {
	v, err := NewValidator()
	if err != nil {
		panic(err)
	}
	return v
}

// Decode validates body against the schema of resource/mode and, if valid,
// unmarshals it into out. Legacy foreign key spellings are normalised first.
// Validation failures are returned as *Error.
func (v *Validator) Decode(r Resource, m Mode, body []byte, out any) error {
	schema, ok := v.schemas[schemaKey(r, m)]
	if !ok {
		return fmt.Errorf("no schema for %s", schemaKey(r, m))
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return rootError("request body is required")
	}

	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return rootError("body must be a JSON object")
	}
	if doc == nil {
		return rootError("body must be a JSON object")
	}
	NormalizeLegacyFields(doc)

	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("validate %s: %w", schemaKey(r, m), err)
	}
	if !result.Valid() {
		verr := &Error{Fields: make(map[string]string)}
		for _, e := range result.Errors() {
			field := e.Field()
			if e.Type() == "required" {
				if p, ok := e.Details()["property"].(string); ok {
					field = p
				}
			}
			verr.Fields[field] = e.Description()
		}
		return verr
	}

	normalized, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("re-encode payload: %w", err)
	}
	if err := json.Unmarshal(normalized, out); err != nil {
		return rootError(err.Error())
	}
	return nil
}
