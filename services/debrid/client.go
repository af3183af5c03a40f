package debrid

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

// Remote job statuses reported by the debrid service.
const (
	StatusMagnetError           = "magnet_error"
	StatusMagnetConversion      = "magnet_conversion"
	StatusWaitingFilesSelection = "waiting_files_selection"
	StatusQueued                = "queued"
	StatusDownloading           = "downloading"
	StatusDownloaded            = "downloaded"
	StatusError                 = "error"
)

const (
	infoRetryAttempts = 3
	infoRetryDelay    = 500 * time.Millisecond
)

// SubmitError reports a failed magnet submission. The service signals
// acceptance with 201; anything else means no job was created.
type SubmitError struct {
	StatusCode int
	Body       string
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("magnet submission returned %d: %s", e.StatusCode, e.Body)
}

// File is one file contained in a remote job.
type File struct {
	ID    int    `json:"id"`
	Path  string `json:"path"`
	Bytes int64  `json:"bytes"`
}

// JobInfo is the remote job state fetched on each poll. Local code never
// caches it; the service owns the authoritative state.
type JobInfo struct {
	ID       string   `json:"id"`
	Status   string   `json:"status"`
	Progress float64  `json:"progress"`
	Files    []File   `json:"files"`
	Links    []string `json:"links"`
}

// Client talks to a Real-Debrid style REST API with bearer-token auth.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a debrid API client.
func NewClient(baseURL, token string, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:      strings.TrimSpace(token),
		httpClient: client,
	}
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	return c.httpClient.Do(req)
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

// AddMagnet submits a magnet link and returns the assigned job ID. Any
// non-201 response is a *SubmitError: callers must not assume a job exists.
func (c *Client) AddMagnet(ctx context.Context, magnet string) (string, error) {
	magnet = strings.TrimSpace(magnet)
	if magnet == "" {
		return "", fmt.Errorf("magnet link is required")
	}

	form := url.Values{}
	form.Set("magnet", magnet)
	resp, err := c.postForm(ctx, "/torrents/addMagnet", form)
	if err != nil {
		return "", fmt.Errorf("add magnet request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8192))
	if err != nil {
		return "", fmt.Errorf("read add magnet response: %w", err)
	}
	if resp.StatusCode != http.StatusCreated {
		return "", &SubmitError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var payload struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode add magnet response: %w (body: %s)", err, string(body))
	}
	if payload.ID == "" {
		return "", fmt.Errorf("add magnet response missing id")
	}
	return payload.ID, nil
}

// JobInfo fetches the current remote job state. Transient failures are
// retried a few times with a fixed delay before giving up.
func (c *Client) JobInfo(ctx context.Context, jobID string) (*JobInfo, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, fmt.Errorf("job id is required")
	}

	var info *JobInfo
	err := retry.Do(
		func() error {
			fetched, err := c.fetchJobInfo(ctx, jobID)
			if err != nil {
				return err
			}
			info = fetched
			return nil
		},
		retry.Attempts(infoRetryAttempts),
		retry.Delay(infoRetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return info, nil
}

func (c *Client) fetchJobInfo(ctx context.Context, jobID string) (*JobInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/torrents/info/"+url.PathEscape(jobID), nil)
	if err != nil {
		return nil, fmt.Errorf("build info request: %w", err)
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("job info request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("job info returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var info JobInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode job info: %w", err)
	}
	return &info, nil
}

// SelectFiles marks the given file id for download. Selecting the same file
// again on a later poll is harmless.
func (c *Client) SelectFiles(ctx context.Context, jobID string, fileID int) error {
	form := url.Values{}
	form.Set("files", fmt.Sprintf("%d", fileID))
	resp, err := c.postForm(ctx, "/torrents/selectFiles/"+url.PathEscape(jobID), form)
	if err != nil {
		return fmt.Errorf("select files request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("select files returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// Unrestrict converts a cloud-hosted link to a directly downloadable URL.
func (c *Client) Unrestrict(ctx context.Context, link string) (string, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", fmt.Errorf("link is required")
	}

	form := url.Values{}
	form.Set("link", link)
	resp, err := c.postForm(ctx, "/unrestrict/link", form)
	if err != nil {
		return "", fmt.Errorf("unrestrict request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8192))
	if err != nil {
		return "", fmt.Errorf("read unrestrict response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unrestrict returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		Download string `json:"download"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode unrestrict response: %w (body: %s)", err, string(body))
	}
	if payload.Download == "" {
		return "", fmt.Errorf("unrestrict response missing download url")
	}
	return payload.Download, nil
}

// DeleteJob removes a job from the debrid cloud. Errors are returned for
// logging but callers treat deletion as best-effort.
func (c *Client) DeleteJob(ctx context.Context, jobID string) error {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return fmt.Errorf("job id is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/torrents/delete/"+url.PathEscape(jobID), nil)
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}
	resp, err := c.do(req)
	if err != nil {
		return fmt.Errorf("delete request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 512))

	// 404 means the job is already gone, which is fine for cleanup.
	if resp.StatusCode >= http.StatusBadRequest && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete returned %d", resp.StatusCode)
	}
	log.Printf("[debrid] job %s deleted", jobID)
	return nil
}
