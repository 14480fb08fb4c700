package main

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/debemdeboas/draftkeep/internal/config"
)

const header = `# draftkeep configuration example
# Copy this file to config.yaml (or point $` + config.EnvPath + ` at it) and adjust.
# Secrets can come from the environment instead:
#   ` + config.EnvPostgresDSN + `, ` + config.EnvS3AccessKeyID + `, ` + config.EnvS3SecretAccessKey + `

`

func exampleConfig() ([]byte, error) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)

	var buf bytes.Buffer
	buf.WriteString(header)

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func main() {
	output, err := exampleConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating YAML: %v\n", err)
		os.Exit(1)
	}

	outputFile := "config.example.yaml"
	if len(os.Args) > 1 {
		outputFile = os.Args[1]
	}

	if outputFile == "-" {
		os.Stdout.Write(output)
		return
	}
	if err := os.WriteFile(outputFile, output, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generated example config: %s\n", outputFile)
}
