package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/invopop/jsonschema"

	"github.com/talentflow/talentflow/app/seed"
)

func main() {
	// generate schema for the seed vocabulary file
	schema := jsonschema.Reflect(&seed.Vocab{})

	// set schema metadata
	schema.Title = "TalentFlow Seed Vocabulary Schema"
	schema.Description = "Schema for the embedded seed vocabulary file"
	schema.Version = "1.0.0"

	// marshal to JSON with indentation
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		log.Fatalf("failed to marshal schema: %v", err)
	}

	// write to file
	outputPath := "schema.json"
	if len(os.Args) > 1 {
		outputPath = os.Args[1]
	}

	if err := os.WriteFile(outputPath, data, 0o600); err != nil {
		log.Fatalf("failed to write schema file: %v", err)
	}

	fmt.Printf("Schema generated successfully at %s\n", outputPath)
}
