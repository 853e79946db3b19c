package scaffold

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const manifestSchemaURL = "https://daykit.local/package.schema.json"

// JestConfig is the jest section of package.json
type JestConfig struct {
	TestEnvironment    string   `json:"testEnvironment"`
	SetupFilesAfterEnv []string `json:"setupFilesAfterEnv"`
}

// Manifest is the package.json written on day 5
type Manifest struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Description     string            `json:"description"`
	Main            string            `json:"main"`
	Scripts         map[string]string `json:"scripts"`
	DevDependencies map[string]string `json:"devDependencies"`
	Jest            JestConfig        `json:"jest"`
	Keywords        []string          `json:"keywords"`
	Author          string            `json:"author"`
	License         string            `json:"license"`
}

// DefaultManifest returns the package.json content for the resume builder.
// binary is the command the automation scripts call back into.
func DefaultManifest(binary string) Manifest {
	return Manifest{
		Name:        "prolancer-ai-resume-builder",
		Version:     "1.0.0",
		Description: "AI-Enhanced Interactive Resume Builder",
		Main:        "entries/interactiveResumeBuilder.html",
		Scripts: map[string]string{
			"dev":        "live-server --port=3000 --open=entries/",
			"test":       "jest",
			"test:watch": "jest --watch",
			"build":      "npm run validate && npm run format",
			"validate":   "html-validate entries/interactiveResumeBuilder.html",
			"format":     "prettier --write src/**/*.{html,css,js}",
			"lint":       "eslint src/**/*.js",
			"auto-dev":   binary + " --day=auto",
			"setup":      "npm install && " + binary + " --setup",
		},
		DevDependencies: map[string]string{
			"jest":          "^29.0.0",
			"prettier":      "^3.0.0",
			"eslint":        "^8.0.0",
			"html-validate": "^8.0.0",
			"live-server":   "^1.2.2",
		},
		Jest: JestConfig{
			TestEnvironment:    "jsdom",
			SetupFilesAfterEnv: []string{"<rootDir>/src/tests/setup.js"},
		},
		Keywords: []string{"AI", "Resume", "Builder", "GitHub-Models", "ProLancer"},
		Author:   "HOME-OFFICE-IMPROVEMENTS-LTD",
		License:  "MIT",
	}
}

// Encode serializes the manifest with two-space indentation and checks it
// against the embedded package.json schema
func (m Manifest) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("failed to encode package.json: %w", err)
	}

	if err := ValidateManifest(buf.Bytes()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var (
	manifestSchema     *jsonschema.Schema
	manifestSchemaErr  error
	manifestSchemaOnce sync.Once
)

func compiledManifestSchema() (*jsonschema.Schema, error) {
	manifestSchemaOnce.Do(func() {
		raw, err := templatesFS.ReadFile("templates/package.schema.json")
		if err != nil {
			manifestSchemaErr = fmt.Errorf("failed to read package.json schema: %w", err)
			return
		}

		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			manifestSchemaErr = fmt.Errorf("failed to parse package.json schema: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource(manifestSchemaURL, doc); err != nil {
			manifestSchemaErr = fmt.Errorf("failed to load package.json schema: %w", err)
			return
		}
		manifestSchema, manifestSchemaErr = c.Compile(manifestSchemaURL)
	})
	return manifestSchema, manifestSchemaErr
}

// ValidateManifest checks raw package.json bytes against the schema
func ValidateManifest(data []byte) error {
	schema, err := compiledManifestSchema()
	if err != nil {
		return err
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("package.json is not valid JSON: %w", err)
	}

	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("package.json failed schema validation: %w", err)
	}
	return nil
}
