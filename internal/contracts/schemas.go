// Package contracts валидирует входящие события по встроенным JSON-схемам.
package contracts

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"strings"

	"cireba-dedup-service/internal/schemas"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var compiledSchemas = make(map[string]*jsonschema.Schema)

// schemaKeys сопоставляет путь схемы с ключом "EventType/version".
var schemaKeys = map[string]string{
	"events/parsed-listings/v1.json": "ParsedListingsEvent/1.0.0",
}

func init() {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	// Схемы добавляются ресурсами до компиляции, чтобы работали $ref между ними.
	err := fs.WalkDir(schemas.SchemasFS, "events", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".json") {
			file, openErr := schemas.SchemasFS.Open(path)
			if openErr != nil {
				return openErr
			}
			defer file.Close()
			if err := compiler.AddResource(path, file); err != nil {
				log.Fatalf("failed to add schema resource %s: %v", path, err)
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("error walking and adding schema resources: %v", err)
	}

	for path, key := range schemaKeys {
		schema, err := compiler.Compile(path)
		if err != nil {
			log.Fatalf("could not compile schema %s: %v", path, err)
		}
		compiledSchemas[key] = schema
	}
}

// ValidateEvent проверяет тело сообщения по схеме его типа и версии.
func ValidateEvent(eventType, eventVersion string, body []byte) error {
	key := fmt.Sprintf("%s/%s", eventType, eventVersion)
	schema, ok := compiledSchemas[key]
	if !ok {
		return fmt.Errorf("schema for event '%s' version '%s' not found", eventType, eventVersion)
	}

	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return fmt.Errorf("message body is not a valid JSON: %w", err)
	}

	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("JSON schema validation failed: %w", err)
	}

	return nil
}
