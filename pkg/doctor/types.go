// Package doctor checks the local tooling winrole and the generated role depend on.
package doctor

// Status is the outcome of a single check.
type Status int

const (
	StatusOK Status = iota
	// StatusMissing fails the run.
	StatusMissing
	// StatusWarning is reported but does not fail the run.
	StatusWarning
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusMissing:
		return "missing"
	case StatusWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// Check is the result of one check.
type Check struct {
	ID      string
	Name    string
	Status  Status
	Message string // version, path or reason
	Fix     *Fix   // nil when nothing can be run to fix it
}

// Group is a titled set of check results.
type Group struct {
	ID     string
	Name   string
	Checks []Check
}

// Report is the outcome of a doctor run.
type Report struct {
	Groups []Group
}

// Checks returns every check in group order.
func (r *Report) Checks() []Check {
	var all []Check
	for _, g := range r.Groups {
		all = append(all, g.Checks...)
	}
	return all
}

// Count returns how many checks have status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, c := range r.Checks() {
		if c.Status == s {
			n++
		}
	}
	return n
}

// Failed reports whether any required check is missing.
func (r *Report) Failed() bool {
	return r.Count(StatusMissing) > 0
}

// Fixable returns the checks that are not OK and carry a fix.
func (r *Report) Fixable() []Check {
	var out []Check
	for _, c := range r.Checks() {
		if c.Status != StatusOK && c.Fix != nil {
			out = append(out, c)
		}
	}
	return out
}
