package debrid

import (
	"context"
	"errors"
	"log"
	"time"
)

// Config bounds the polling loop. The attempt ceiling converts the remote
// service's open-ended processing time into a predictable timeout.
type Config struct {
	PollInterval time.Duration
	MaxAttempts  int
	// OnProgress, when set, receives the download percentage reported by
	// the remote service while the job is in the downloading state.
	OnProgress func(percent float64)
}

// Resolution is the outcome of one orchestration. An empty DirectURL means
// the job produced no link; JobID is retained whenever one was assigned so
// the caller can still offer cleanup.
type Resolution struct {
	DirectURL     string `json:"directUrl,omitempty"`
	JobID         string `json:"jobId,omitempty"`
	FailureReason string `json:"failureReason,omitempty"`
}

// Succeeded reports whether a direct link was produced.
func (r *Resolution) Succeeded() bool { return r.DirectURL != "" }

// JobAPI is the slice of the debrid client the orchestrator drives.
type JobAPI interface {
	AddMagnet(ctx context.Context, magnet string) (string, error)
	JobInfo(ctx context.Context, jobID string) (*JobInfo, error)
	SelectFiles(ctx context.Context, jobID string, fileID int) error
	Unrestrict(ctx context.Context, link string) (string, error)
	DeleteJob(ctx context.Context, jobID string) error
}

var _ JobAPI = (*Client)(nil)

// Orchestrator drives the debrid service's asynchronous job lifecycle from a
// submitted magnet to a direct download URL.
type Orchestrator struct {
	api JobAPI
	cfg Config
}

func NewOrchestrator(api JobAPI, cfg Config) *Orchestrator {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 15
	}
	return &Orchestrator{api: api, cfg: cfg}
}

// ResolveDirectLink submits the magnet and polls the remote job until it is
// downloaded, fails, or the attempt ceiling is reached. The context cancels
// the wait between polls, so a caller can abort a stuck resolution without
// sitting out the full bound. The function is total: every failure path
// yields a Resolution, and the error return is reserved for cancellation.
func (o *Orchestrator) ResolveDirectLink(ctx context.Context, magnet string) (*Resolution, error) {
	jobID, err := o.api.AddMagnet(ctx, magnet)
	if err != nil {
		// Submission failure means no job was created: report no job ID
		// even if the service's error body hinted at one.
		var submitErr *SubmitError
		if errors.As(err, &submitErr) {
			log.Printf("[debrid] magnet rejected: %v", submitErr)
			return &Resolution{FailureReason: submitErr.Error()}, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Printf("[debrid] magnet submission failed: %v", err)
		return &Resolution{FailureReason: err.Error()}, nil
	}
	log.Printf("[debrid] job %s submitted, polling up to %d times", jobID, o.cfg.MaxAttempts)

	for attempt := 1; attempt <= o.cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(o.cfg.PollInterval):
		}

		info, err := o.api.JobInfo(ctx, jobID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// A failed poll is transient; the next attempt re-fetches.
			log.Printf("[debrid] poll %d/%d for job %s failed: %v", attempt, o.cfg.MaxAttempts, jobID, err)
			continue
		}

		switch info.Status {
		case StatusWaitingFilesSelection:
			if err := o.selectLargestFile(ctx, jobID, info); err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				log.Printf("[debrid] file selection for job %s failed: %v", jobID, err)
			}

		case StatusDownloading:
			if o.cfg.OnProgress != nil {
				o.cfg.OnProgress(info.Progress)
			}

		case StatusDownloaded:
			return o.finish(ctx, jobID, info)

		case StatusMagnetError, StatusError:
			log.Printf("[debrid] job %s failed remotely: %s", jobID, info.Status)
			return &Resolution{JobID: jobID, FailureReason: "remote job failed: " + info.Status}, nil

		default:
			// queued, magnet_conversion, anything unrecognized: keep polling.
		}
	}

	log.Printf("[debrid] job %s did not finish within %d attempts", jobID, o.cfg.MaxAttempts)
	return &Resolution{JobID: jobID, FailureReason: "no link produced"}, nil
}

// selectLargestFile picks the presumed main video file (maximum byte size)
// and submits the selection. Re-selecting on a later poll is idempotent.
func (o *Orchestrator) selectLargestFile(ctx context.Context, jobID string, info *JobInfo) error {
	if len(info.Files) == 0 {
		return errors.New("job reports no files")
	}
	top := info.Files[0]
	for _, f := range info.Files[1:] {
		if f.Bytes > top.Bytes {
			top = f
		}
	}
	log.Printf("[debrid] job %s selecting file %d (%d bytes)", jobID, top.ID, top.Bytes)
	return o.api.SelectFiles(ctx, jobID, top.ID)
}

// finish unwraps the downloaded job's first cloud link into a direct URL,
// the sole success exit of the state machine.
func (o *Orchestrator) finish(ctx context.Context, jobID string, info *JobInfo) (*Resolution, error) {
	if len(info.Links) == 0 {
		return &Resolution{JobID: jobID, FailureReason: "downloaded job has no links"}, nil
	}
	directURL, err := o.api.Unrestrict(ctx, info.Links[0])
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return &Resolution{JobID: jobID, FailureReason: "unrestrict failed: " + err.Error()}, nil
	}
	log.Printf("[debrid] job %s resolved to direct link", jobID)
	return &Resolution{DirectURL: directURL, JobID: jobID}, nil
}

// DeleteJob removes a remote job. Fire-and-forget: failures are logged but
// never surfaced, so calling it twice on the same id is safe.
func (o *Orchestrator) DeleteJob(ctx context.Context, jobID string) {
	if jobID == "" {
		return
	}
	if err := o.api.DeleteJob(ctx, jobID); err != nil {
		log.Printf("[debrid] delete job %s: %v", jobID, err)
	}
}
