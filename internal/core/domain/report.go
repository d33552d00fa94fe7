package domain

// Report is what a resolve or verify run tells the user.
type Report struct {
	Command    string   `json:"command"`
	Successful bool     `json:"successful"`
	DryRun     bool     `json:"dry_run"`
	LockPath   string   `json:"lock_path"`
	Written    bool     `json:"written"`
	Stale      bool     `json:"stale,omitempty"`
	Outcome    *Outcome `json:"outcome"`
	Diff       LockDiff `json:"diff"`
}

// NewReport summarises an outcome and the lock changes it produced.
func NewReport(command string, out *Outcome, diff LockDiff) *Report {
	return &Report{
		Command:    command,
		Successful: out.Successful(),
		Outcome:    out,
		Diff:       diff,
	}
}
