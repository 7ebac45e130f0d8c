package zhmc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// JobService queries and waits for asynchronous HMC jobs. Operations that
// return HTTP 202 hand back a job URI which is polled until completion.
type JobService struct {
	c *Client

	// PollInterval is the delay between job status queries.
	PollInterval time.Duration
}

// NewJobService creates a new job service.
func NewJobService(c *Client) *JobService {
	return &JobService{c: c, PollInterval: 1 * time.Second}
}

// JobStatus represents the status of an asynchronous HMC job.
type JobStatus string

const (
	JobStatusRunning       JobStatus = "running"
	JobStatusCancelPending JobStatus = "cancel-pending"
	JobStatusCanceled      JobStatus = "canceled"
	JobStatusComplete      JobStatus = "complete"
)

// Job holds the response of the Query Job Status operation.
type Job struct {
	URI        string          `json:"-"`
	Status     JobStatus       `json:"status"`
	StatusCode int             `json:"job-status-code,omitempty"`
	ReasonCode int             `json:"job-reason-code,omitempty"`
	Results    json.RawMessage `json:"job-results,omitempty"`
}

// jobStarted is the body of the 202 response that starts a job.
type jobStarted struct {
	JobURI string `json:"job-uri"`
}

// JobError is returned when an asynchronous job completes unsuccessfully.
// StatusCode and ReasonCode follow the same numbering as HMCError.
type JobError struct {
	JobURI     string
	StatusCode int
	ReasonCode int
	Message    string
}

func (e *JobError) Error() string {
	msg := fmt.Sprintf("job %s failed with status %d, reason %d", e.JobURI, e.StatusCode, e.ReasonCode)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Get queries the status of a job.
func (s *JobService) Get(ctx context.Context, jobURI string) (*Job, error) {
	var job Job
	if err := s.c.Get(ctx, jobURI, nil, &job); err != nil {
		return nil, err
	}
	job.URI = jobURI
	return &job, nil
}

// Delete removes a completed job from the HMC.
func (s *JobService) Delete(ctx context.Context, jobURI string) error {
	return s.c.Delete(ctx, jobURI)
}

// Wait polls the job until it reaches a terminal status and deletes it
// afterwards. On successful completion the job results (possibly nil) are
// returned; an unsuccessful completion yields a *JobError. Cancellation of
// ctx stops the polling but leaves the job on the HMC.
func (s *JobService) Wait(ctx context.Context, jobURI string) (json.RawMessage, error) {
	interval := s.PollInterval
	if interval <= 0 {
		interval = 1 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		job, err := s.Get(ctx, jobURI)
		if err != nil {
			return nil, err
		}
		switch job.Status {
		case JobStatusComplete, JobStatusCanceled:
			// Deleting the job is cleanup; a failure there does not
			// change the outcome of the operation.
			if err := s.Delete(ctx, jobURI); err != nil {
				s.c.log.WithField("job-uri", jobURI).WithError(err).Debug("could not delete job")
			}
			if job.Status == JobStatusCanceled {
				return nil, &JobError{JobURI: jobURI, Message: "job was canceled"}
			}
			if job.StatusCode >= 200 && job.StatusCode <= 299 {
				return job.Results, nil
			}
			jerr := &JobError{
				JobURI:     jobURI,
				StatusCode: job.StatusCode,
				ReasonCode: job.ReasonCode,
			}
			if len(job.Results) > 0 {
				var res struct {
					Message string `json:"message"`
				}
				if err := json.Unmarshal(job.Results, &res); err == nil {
					jerr.Message = res.Message
				}
			}
			return nil, jerr
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// start issues the POST for an asynchronous operation and returns the job
// URI from the 202 response.
func (s *JobService) start(ctx context.Context, path string, body any) (string, error) {
	var started jobStarted
	if err := s.c.Post(ctx, path, body, &started); err != nil {
		return "", err
	}
	if started.JobURI == "" {
		return "", NewParseError(fmt.Sprintf("response of %s did not contain a job-uri", path), nil)
	}
	return started.JobURI, nil
}

// Run starts an asynchronous operation and waits for its completion.
func (s *JobService) Run(ctx context.Context, path string, body any) (json.RawMessage, error) {
	jobURI, err := s.start(ctx, path, body)
	if err != nil {
		return nil, err
	}
	return s.Wait(ctx, jobURI)
}
