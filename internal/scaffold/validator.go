package scaffold

import (
	"context"
	"path/filepath"

	"github.com/dyluth/daykit/internal/exec"
	"github.com/dyluth/daykit/internal/git"
)

// ProbeStatus is the outcome of a single environment probe
type ProbeStatus string

const (
	ProbeOK    ProbeStatus = "OK"
	ProbeWarn  ProbeStatus = "WARN"
	ProbeError ProbeStatus = "ERROR"
)

// Probe is a named diagnostic command
type Probe struct {
	Name    string
	Command exec.Command
}

// ProbeResult records how a probe went
type ProbeResult struct {
	Name   string
	Status ProbeStatus
	Detail string
}

// Probes returns the fixed validation battery for the project at root
func Probes(root string) []Probe {
	return []Probe{
		{Name: "Git status", Command: exec.Command{Name: "git", Args: []string{"status", "--porcelain"}, Dir: root}},
		{Name: "Node.js available", Command: exec.Command{Name: "node", Args: []string{"--version"}, Dir: root}},
		{Name: "Python available", Command: exec.Command{Name: "python3", Args: []string{"--version"}, Dir: root}},
		{Name: "Directory structure", Command: exec.Command{Name: "find", Args: []string{filepath.Join(root, "src"), "-type", "d"}, Dir: root}},
	}
}

// Validate runs every probe and logs the outcome. It never fails: a non-zero
// exit is a warning and a command that cannot start is an error, both only logged.
func (s *Scaffolder) Validate(ctx context.Context) []ProbeResult {
	s.log.Info("Validating setup...")

	var results []ProbeResult
	for _, probe := range Probes(s.root) {
		out, err := s.runner.Run(ctx, probe.Command, false)

		result := ProbeResult{Name: probe.Name}
		switch {
		case err != nil || out.ExitCode == -1:
			result.Status = ProbeError
			result.Detail = out.Stderr
			if err != nil {
				result.Detail = err.Error()
			}
			s.log.Error("%s: %s", probe.Name, result.Detail)
		case out.ExitCode != 0:
			result.Status = ProbeWarn
			result.Detail = out.Stderr
			s.log.Warn("%s: Warning", probe.Name)
		default:
			result.Status = ProbeOK
			result.Detail = out.Stdout
			s.log.Info("%s: OK", probe.Name)
			if probe.Name == "Git status" {
				if summary := git.SummarizeStatus(out.Stdout); summary != "" {
					s.log.Info("%s", summary)
				}
			}
		}
		results = append(results, result)
	}

	return results
}

// Summary counts probe results by status
func Summary(results []ProbeResult) map[ProbeStatus]int {
	counts := make(map[ProbeStatus]int)
	for _, r := range results {
		counts[r.Status]++
	}
	return counts
}
