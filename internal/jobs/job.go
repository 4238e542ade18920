package jobs

import (
	"github.com/rxscan/rxscan/constants"
	"github.com/rxscan/rxscan/internal/parse"
	"github.com/rxscan/rxscan/internal/rules"
)

// RawRecognition is the best recognition attempt retained for a job.
type RawRecognition struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	WordsCount int     `json:"wordsCount"`
}

// Result is what a consumer receives once a job is done. It is never exposed
// partially: the orchestrator attaches it in the same update that marks the
// job done.
type Result struct {
	Medications []parse.Medication `json:"meds"`
	Raw         RawRecognition     `json:"raw"`
	Usable      bool               `json:"usable"`
	Messages    []rules.Message    `json:"messages"`
}

// Job is one tracked background execution of the pipeline. Snapshots handed
// to readers are value copies; once Done is set the record never changes.
type Job struct {
	ID      string              `json:"jobId"`
	Status  constants.JobStatus `json:"status"`
	Percent int                 `json:"percent"`
	Done    bool                `json:"done"`
	Error   *string             `json:"error"`
	Result  *Result             `json:"data"`
}
