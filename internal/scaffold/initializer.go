package scaffold

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/dyluth/daykit/internal/exec"
	"github.com/dyluth/daykit/internal/git"
	"github.com/dyluth/daykit/internal/logging"
)

//go:embed templates/*
var templatesFS embed.FS

var helperTemplate = template.Must(template.ParseFS(templatesFS, "templates/git-auto.sh.tmpl"))

// HelperScriptPath is where the day-dispatch git helper is written
var HelperScriptPath = filepath.Join("scripts", "automation", "git-auto.sh")

// Directories are created on day 1 and every later day
var Directories = []string{
	filepath.Join("src", "components"),
	filepath.Join("src", "utils"),
	filepath.Join("src", "config"),
	filepath.Join("src", "assets", "styles"),
	filepath.Join("src", "assets", "icons"),
	filepath.Join("src", "assets", "templates"),
	filepath.Join("src", "tests"),
	filepath.Join("scripts", "automation"),
	filepath.Join("docs", "api"),
	filepath.Join("docs", "components"),
	".vscode",
}

// FileInfo represents a file to be written during scaffolding
type FileInfo struct {
	Path        string // relative to the project root
	Content     []byte
	Permissions os.FileMode
}

// Step is one unit of scaffolding work belonging to a day
type Step struct {
	Name string
	Day  Day // 0 = runs every time regardless of day
	run  func(s *Scaffolder) ([]string, error)
}

// steps lists every step in execution order
var steps = []Step{
	{Name: "directories", Day: DayAPISetup, run: (*Scaffolder).createDirectories},
	{Name: "ai-assistant", Day: DayCoreAI, run: templateStep("ai-assistant.js", filepath.Join("src", "components", "ai-assistant.js"))},
	{Name: "ui-components", Day: DayUI, run: templateStep("ui-enhancement-manager.js", filepath.Join("src", "components", "ui-enhancement-manager.js"))},
	{Name: "styles", Day: DayUI, run: templateStep("ai-components.css", filepath.Join("src", "assets", "styles", "ai-components.css"))},
	{Name: "test-suite", Day: DayAdvanced, run: templateStep("ai-features.test.js", filepath.Join("src", "tests", "ai-features.test.js"))},
	{Name: "package-manifest", Day: DayRefinement, run: (*Scaffolder).writeManifest},
	{Name: "git-helper", Day: 0, run: (*Scaffolder).writeHelperScript},
}

// Plan returns the steps run for day: everything belonging to days <= day,
// plus the steps that run every time
func Plan(day Day) []Step {
	var plan []Step
	for _, s := range steps {
		if s.Day <= day {
			plan = append(plan, s)
		}
	}
	return plan
}

// Result describes a completed scaffolding run
type Result struct {
	Day     Day
	Steps   []string
	Written []string // paths relative to the project root, directories included
}

// Scaffolder performs additive, idempotent project setup for a day
type Scaffolder struct {
	root   string
	binary string
	runner *exec.Runner
	git    *git.Checker
	log    *logging.Logger
}

// New creates a Scaffolder for the project at root. binary is the command the
// generated helper script and package.json call back into.
func New(root, binary string, runner *exec.Runner, log *logging.Logger) *Scaffolder {
	return &Scaffolder{
		root:   root,
		binary: binary,
		runner: runner,
		git:    git.NewChecker(runner, root),
		log:    log,
	}
}

// Root returns the project root
func (s *Scaffolder) Root() string {
	return s.root
}

// Detect infers the current day from the project tree
func (s *Scaffolder) Detect() Day {
	return Detect(s.root)
}

// Run executes the plan for day. It stops at the first failing step; files
// written by earlier steps are left in place.
func (s *Scaffolder) Run(_ context.Context, day Day) (*Result, error) {
	if !day.Valid() {
		return nil, fmt.Errorf("invalid day %d: must be %d-%d", day, FirstDay, LastDay)
	}

	s.log.Info("Running Day %d automation (%s)...", day, day.Name())
	result := &Result{Day: day}

	for _, step := range Plan(day) {
		written, err := step.run(s)
		result.Written = append(result.Written, written...)
		if err != nil {
			s.log.Error("Step %s failed: %v", step.Name, err)
			return result, fmt.Errorf("step %s failed: %w", step.Name, err)
		}
		result.Steps = append(result.Steps, step.Name)
	}

	s.log.Info("Day %d automation complete!", day)
	return result, nil
}

// createDirectories creates the directory structure
func (s *Scaffolder) createDirectories() ([]string, error) {
	s.log.Info("Creating directory structure...")

	var created []string
	for _, dir := range Directories {
		if err := os.MkdirAll(filepath.Join(s.root, dir), 0755); err != nil {
			return created, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		created = append(created, dir)
		s.log.Info("Created: %s", dir)
	}

	return created, nil
}

// templateStep returns a step that copies an embedded template to dest
func templateStep(name, dest string) func(s *Scaffolder) ([]string, error) {
	return func(s *Scaffolder) ([]string, error) {
		content, err := templatesFS.ReadFile("templates/" + name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s template: %w", name, err)
		}

		file := FileInfo{Path: dest, Content: content, Permissions: 0644}
		if err := s.writeFiles([]FileInfo{file}); err != nil {
			return nil, err
		}
		s.log.Info("Generated %s", dest)
		return []string{dest}, nil
	}
}

func (s *Scaffolder) writeManifest() ([]string, error) {
	s.log.Info("Setting up package.json...")

	content, err := DefaultManifest(s.binary).Encode()
	if err != nil {
		return nil, err
	}

	file := FileInfo{Path: "package.json", Content: content, Permissions: 0644}
	if err := s.writeFiles([]FileInfo{file}); err != nil {
		return nil, err
	}
	s.log.Info("package.json created")
	return []string{file.Path}, nil
}

type helperDay struct {
	Day     Day
	Message string
}

// RenderHelperScript renders the git helper that commits with the message of
// the detected day
func RenderHelperScript(binary string) ([]byte, error) {
	data := struct {
		Binary string
		Days   []helperDay
	}{Binary: binary}

	for d := FirstDay; d <= LastDay; d++ {
		data.Days = append(data.Days, helperDay{Day: d, Message: d.CommitMessage()})
	}

	var buf bytes.Buffer
	if err := helperTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render git helper: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Scaffolder) writeHelperScript() ([]string, error) {
	s.log.Info("Creating automation helpers...")

	content, err := RenderHelperScript(s.binary)
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(s.root, filepath.Dir(HelperScriptPath))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	file := FileInfo{Path: HelperScriptPath, Content: content, Permissions: 0755}
	if err := s.writeFiles([]FileInfo{file}); err != nil {
		return nil, err
	}
	s.log.Info("Git automation script created")
	return []string{file.Path}, nil
}

// writeFiles writes files under the project root, overwriting existing ones.
// os.WriteFile only applies permissions on create, so they are set explicitly.
func (s *Scaffolder) writeFiles(files []FileInfo) error {
	for _, file := range files {
		path := filepath.Join(s.root, file.Path)
		if err := os.WriteFile(path, file.Content, file.Permissions); err != nil {
			return fmt.Errorf("failed to write %s: %w", file.Path, err)
		}
		if err := os.Chmod(path, file.Permissions); err != nil {
			return fmt.Errorf("failed to set permissions on %s: %w", file.Path, err)
		}
	}

	return nil
}

// CommitResult describes a native day commit
type CommitResult struct {
	Day       Day
	Message   string
	Committed bool // false when there was nothing to commit
}

// Commit stages everything and commits with the message for day; it is the
// in-process equivalent of the generated helper script
func (s *Scaffolder) Commit(ctx context.Context, day Day) (*CommitResult, error) {
	if !day.Valid() {
		return nil, fmt.Errorf("invalid day %d: must be %d-%d", day, FirstDay, LastDay)
	}

	result := &CommitResult{Day: day, Message: day.CommitMessage()}
	s.log.Info("Auto-detected: Day %d development", day)

	committed, err := s.git.CommitAll(ctx, result.Message)
	if err != nil {
		return nil, err
	}

	result.Committed = committed
	if !committed {
		s.log.Info("Nothing to commit")
	}
	return result, nil
}
