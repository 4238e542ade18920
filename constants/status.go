package constants

// JobStatus is the canonical lifecycle state of a scan job.
type JobStatus string

// Stable values (these exact strings cross the status API).
const (
	JobStatusQueued     JobStatus = "queued"     // registered, not yet started
	JobStatusProcessing JobStatus = "processing" // recognition/parse in progress
	JobStatusDone       JobStatus = "done"       // terminal success, result attached
	JobStatusError      JobStatus = "error"      // terminal failure, generic code only
)

// Terminal reports whether a status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusDone || s == JobStatusError
}
