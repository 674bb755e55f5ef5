package loader

import "github.com/google/jsonschema-go/jsonschema"

// projectFileSchema is a pre-validation pass over a parsed project
// file's JSON-shaped record (after YAML decodes it into map[string]any)
// before any of its fields reach the context/module builders, so a
// malformed field is reported as a schema error instead of surfacing
// as a confusing downstream panic.
var projectFileSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"subdirs": {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
		"contexts": {
			Type:  "array",
			Items: contextSchema,
		},
		"builders": {
			Type:  "array",
			Items: contextSchema,
		},
		"modules": {
			Type:  "array",
			Items: moduleSchema,
		},
	},
}

var contextSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"name":   {Type: "string"},
		"parent": {Type: "string"},
		"disable": {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
		"select":  {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
	},
	Required: []string{"name"},
}

var moduleSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"name":      {Type: "string"},
		"context":   {Type: "string"},
		"help":      {Type: "string"},
		"selects":   {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
		"imports":   {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
		"provides":  {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
		"conflicts": {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
		"disable":   {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
		"sources":   {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
		"blocklist": {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
		"allowlist": {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
		"is_binary": {Type: "boolean"},
		"notify_all": {Type: "boolean"},
	},
	Required: []string{"name"},
}

// validateProjectFile resolves projectFileSchema once and validates a
// decoded record against it, returning every violation joined into one
// error so a loader failure names every malformed field at once rather
// than one-at-a-time.
func validateProjectFile(record map[string]any) error {
	resolved, err := projectFileSchema.Resolve(nil)
	if err != nil {
		return err
	}
	return resolved.Validate(record)
}
