package models

// JobState is the tri-state view of an observed transcription job.
type JobState string

const (
	JobProcessing JobState = "processing"
	JobSuccess    JobState = "success"
	JobFailed     JobState = "failed"
)

func (s JobState) Terminal() bool { return s == JobSuccess || s == JobFailed }

// Remote job statuses as reported by the transcription backend.
const (
	RemoteInProgress = "IN_PROGRESS"
	RemoteCompleted  = "COMPLETED"
	RemoteFailed     = "FAILED"
)

// TranscriptionStatus is transient: superseded on every successful poll,
// discarded when the observing view detaches.
type TranscriptionStatus struct {
	Status        string `json:"status"` // IN_PROGRESS|COMPLETED|FAILED
	TranscriptURI string `json:"transcript_uri,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`
}
