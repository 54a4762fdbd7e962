package orchestrator

// StageResult is one stage's outcome within a run record.
type StageResult struct {
	Name    StageName
	Outcome Outcome
	// Detail carries human-readable context for Degraded and Skipped
	// outcomes (what timed out, which directive was set).
	Detail string
	// Err is set only for Failed.
	Err error
}

// RunRecord is the accumulated stage-completion record for one run. It is
// returned even when the run halts early, so diagnostics can show which
// stages succeeded, which were skipped and where the pipeline stopped.
type RunRecord struct {
	// Namespace is the effective namespace the run resolved, empty if the
	// run failed before context resolution completed.
	Namespace string
	Stages    []StageResult
}

func newRunRecord(stages []Stage) *RunRecord {
	record := &RunRecord{Stages: make([]StageResult, 0, len(stages))}
	for _, s := range stages {
		record.Stages = append(record.Stages, StageResult{Name: s.Name, Outcome: OutcomePending})
	}
	return record
}

func (r *RunRecord) set(name StageName, outcome Outcome, detail string, err error) {
	for i := range r.Stages {
		if r.Stages[i].Name == name {
			r.Stages[i].Outcome = outcome
			r.Stages[i].Detail = detail
			r.Stages[i].Err = err
			return
		}
	}
}

// Stage returns the result for the named stage, or a zero result if the
// stage is unknown.
func (r *RunRecord) Stage(name StageName) StageResult {
	for _, s := range r.Stages {
		if s.Name == name {
			return s
		}
	}
	return StageResult{}
}

// Degraded reports whether any stage completed with a tolerated timeout.
func (r *RunRecord) Degraded() bool {
	for _, s := range r.Stages {
		if s.Outcome == OutcomeDegraded {
			return true
		}
	}
	return false
}
