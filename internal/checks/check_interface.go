package checks

import (
	"github.com/raven-betanet/elf-inspector/internal/elfhdr"
)

// Check defines the interface that all header checks must implement
type Check interface {
	// ID returns the unique identifier for this check (e.g., "phentsize")
	ID() string

	// Description returns a short description of what this check looks at
	Description() string

	// Execute runs the check against a decoded file. Checks only read f.
	Execute(f *elfhdr.File) Result
}

// Status represents the possible outcomes of a check
type Status string

const (
	StatusPass Status = "pass"
	StatusWarn Status = "warn"
	StatusSkip Status = "skip"
)

// Result contains the outcome of a check execution
type Result struct {
	ID          string                 `json:"id"`
	Description string                 `json:"description"`
	Status      Status                 `json:"status"`
	Message     string                 `json:"message"`
	Details     map[string]interface{} `json:"details,omitempty"`
}

// Registry manages an ordered collection of checks
type Registry struct {
	order  []string
	checks map[string]Check
}

// NewRegistry creates a new, empty registry
func NewRegistry() *Registry {
	return &Registry{
		checks: make(map[string]Check),
	}
}

// Register adds a check to the registry. Registering an ID twice replaces
// the earlier check but keeps its position.
func (r *Registry) Register(check Check) {
	if _, exists := r.checks[check.ID()]; !exists {
		r.order = append(r.order, check.ID())
	}
	r.checks[check.ID()] = check
}

// Get retrieves a check by ID
func (r *Registry) Get(id string) (Check, bool) {
	check, exists := r.checks[id]
	return check, exists
}

// List returns all registered checks in registration order
func (r *Registry) List() []Check {
	checks := make([]Check, 0, len(r.order))
	for _, id := range r.order {
		checks = append(checks, r.checks[id])
	}
	return checks
}

// Runner executes checks
type Runner struct {
	registry *Registry
}

// NewRunner creates a new check runner
func NewRunner(registry *Registry) *Runner {
	return &Runner{
		registry: registry,
	}
}

// Report contains the results of running multiple checks
type Report struct {
	Results []Result `json:"results"`
	Summary Summary  `json:"summary"`
}

// Summary contains summary statistics for a report
type Summary struct {
	Total    int `json:"total"`
	Passed   int `json:"passed"`
	Warnings int `json:"warnings"`
	Skipped  int `json:"skipped"`
}

// Warnings returns only the results that did not pass or skip.
func (r *Report) Warnings() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Status == StatusWarn {
			out = append(out, res)
		}
	}
	return out
}

// RunAll executes all registered checks against f
func (r *Runner) RunAll(f *elfhdr.File) *Report {
	checks := r.registry.List()
	results := make([]Result, 0, len(checks))

	for _, check := range checks {
		results = append(results, run(check, f))
	}

	return &Report{Results: results, Summary: summarize(results)}
}

// RunSelected executes specific checks by ID, skipping unknown IDs
func (r *Runner) RunSelected(f *elfhdr.File, ids []string) *Report {
	results := make([]Result, 0, len(ids))

	for _, id := range ids {
		check, exists := r.registry.Get(id)
		if !exists {
			continue
		}
		results = append(results, run(check, f))
	}

	return &Report{Results: results, Summary: summarize(results)}
}

func run(check Check, f *elfhdr.File) Result {
	res := check.Execute(f)
	res.ID = check.ID()
	res.Description = check.Description()
	return res
}

func summarize(results []Result) Summary {
	summary := Summary{Total: len(results)}

	for _, result := range results {
		switch result.Status {
		case StatusPass:
			summary.Passed++
		case StatusWarn:
			summary.Warnings++
		case StatusSkip:
			summary.Skipped++
		}
	}

	return summary
}
