package main

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/matsen/kgeval/internal/metrics"
	"github.com/matsen/kgeval/internal/triple"
)

// schemaTypes maps schema names to the types they describe.
var schemaTypes = map[string]any{
	"triple":   triple.Triple{},
	"document": triple.Document{},
	"report":   metrics.Report{},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

var schemaCmd = &cobra.Command{
	Use:   "schema [triple|document|report]",
	Short: "Print the JSON Schema of a record type",
	Long: `Print the JSON Schema of a triple record, a document record or a
metrics report. Defaults to the triple record.

Examples:
  kge schema
  kge schema report`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: schemaNames(),
	RunE:      runSchema,
}

func runSchema(cmd *cobra.Command, args []string) error {
	name := "triple"
	if len(args) == 1 {
		name = args[0]
	}

	schema, err := generateSchema(name)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	outputJSON(schema)
	return nil
}

// generateSchema reflects the named record type into a JSON Schema.
func generateSchema(name string) (*jsonschema.Schema, error) {
	v, ok := schemaTypes[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q (available: %s)", name, strings.Join(schemaNames(), ", "))
	}

	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		Mapper:                    mapSchemaType,
	}
	return reflector.Reflect(v), nil
}

// mapSchemaType describes types whose JSON form differs from their Go fields.
func mapSchemaType(t reflect.Type) *jsonschema.Schema {
	if t == reflect.TypeOf(metrics.Ranked{}) {
		return &jsonschema.Schema{
			Type:        "array",
			Description: "Node label and score",
			PrefixItems: []*jsonschema.Schema{
				{Type: "string"},
				{Type: "number"},
			},
		}
	}
	return nil
}

func schemaNames() []string {
	names := make([]string, 0, len(schemaTypes))
	for name := range schemaTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
