package prflow

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	"github.com/goccy/go-yaml"
)

//go:embed templates/*
var templatesFS embed.FS

var bodyTemplate = template.Must(template.ParseFS(templatesFS, "templates/pr_body.md.tmpl"))

// requiredWorkflowKeys are the top-level keys GitHub needs to accept a workflow
var requiredWorkflowKeys = []string{"name", "on", "jobs"}

// BodyData is the input to the PR description template
type BodyData struct {
	Title   string
	Base    string
	Commits []string
	Date    string
}

// RenderBody renders the PR description
func RenderBody(data BodyData) (string, error) {
	var buf bytes.Buffer
	if err := bodyTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render PR body: %w", err)
	}
	return buf.String(), nil
}

// WorkflowPayload returns the CI workflow written by the workflow stage,
// after checking it is a well-formed GitHub Actions document
func WorkflowPayload() ([]byte, error) {
	payload, err := templatesFS.ReadFile("templates/automated-qa.yml")
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow template: %w", err)
	}

	if err := validateWorkflow(payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func validateWorkflow(payload []byte) error {
	var doc map[string]any
	if err := yaml.Unmarshal(payload, &doc); err != nil {
		return fmt.Errorf("workflow is not valid YAML: %w", err)
	}

	for _, key := range requiredWorkflowKeys {
		if _, ok := doc[key]; !ok {
			return fmt.Errorf("workflow is missing top-level key %q", key)
		}
	}

	jobs, ok := doc["jobs"].(map[string]any)
	if !ok || len(jobs) == 0 {
		return fmt.Errorf("workflow defines no jobs")
	}
	return nil
}
