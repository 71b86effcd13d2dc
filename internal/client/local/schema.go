package local

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "ostadtodo://local/todos.schema.json"

// documentSchema describes the persisted mapping: date -> ordered task records.
// Ids written by older builds are numbers, newer ones strings.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "propertyNames": {"pattern": "^[0-9]{4}-[0-9]{2}-[0-9]{2}$"},
  "additionalProperties": {
    "type": "array",
    "items": {
      "type": "object",
      "required": ["id", "text", "completed"],
      "properties": {
        "id": {"type": ["string", "integer"]},
        "text": {"type": "string"},
        "completed": {"type": "boolean"}
      }
    }
  }
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, strings.NewReader(documentSchema)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = compiler.Compile(schemaURL)
	})
	return schema, schemaErr
}

// validateDocument checks raw against documentSchema.
func validateDocument(raw []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return err
	}
	return s.Validate(doc)
}
