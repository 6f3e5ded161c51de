// Package api provides the HTTP client for the analysis server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/barkain/scout/internal/domain"
	"github.com/google/uuid"
)

// basePath is the prefix of the autonomous analysis endpoints.
const basePath = "/api/deep-insights/autonomous"

// Client implements domain.AnalysisAPI against the REST server.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// New creates a new Client for the given base URL. The trailing slash is
// stripped so endpoint paths can be joined naively.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// startRequest is the JSON body for a start call.
type startRequest struct {
	MaxInsights   int `json:"max_insights,omitempty"`
	DeepDiveCount int `json:"deep_dive_count,omitempty"`
}

// ackPayload is the JSON shape of start/cancel acknowledgments.
type ackPayload struct {
	TaskID  string `json:"task_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// activityPayload is the JSON shape of one activity log entry.
type activityPayload struct {
	Time    string `json:"time"`
	Phase   string `json:"phase"`
	Message string `json:"message"`
	Level   string `json:"level"`
	Seq     int64  `json:"seq"`
}

// taskPayload is the JSON shape of a task status record.
type taskPayload struct {
	ID               string            `json:"id"`
	Status           string            `json:"status"`
	Progress         int               `json:"progress"`
	CurrentPhase     string            `json:"current_phase"`
	PhaseDetails     string            `json:"phase_details"`
	PhaseName        string            `json:"phase_name"`
	MaxInsights      int               `json:"max_insights"`
	DeepDiveCount    int               `json:"deep_dive_count"`
	ResultInsightIDs []int             `json:"result_insight_ids"`
	ResultAnalysisID string            `json:"result_analysis_id"`
	MarketRegime     string            `json:"market_regime"`
	TopSectors       []string          `json:"top_sectors"`
	DiscoverySummary string            `json:"discovery_summary"`
	PhasesCompleted  []string          `json:"phases_completed"`
	ErrorMessage     string            `json:"error_message"`
	ElapsedSeconds   float64           `json:"elapsed_seconds"`
	StartedAt        string            `json:"started_at"`
	CompletedAt      string            `json:"completed_at"`
	Activity         []activityPayload `json:"activity"`
}

// errorPayload is the JSON shape of server error responses.
type errorPayload struct {
	Detail string `json:"detail"`
}

// StartAnalysis starts a new background analysis run.
func (c *Client) StartAnalysis(ctx context.Context, params domain.StartParams) (*domain.StartAck, error) {
	body := startRequest{
		MaxInsights:   params.MaxInsights,
		DeepDiveCount: params.DeepDiveCount,
	}

	var ack ackPayload
	if err := c.doJSON(ctx, http.MethodPost, basePath+"/start", body, &ack); err != nil {
		return nil, fmt.Errorf("start analysis: %w", err)
	}
	if ack.TaskID == "" {
		return nil, fmt.Errorf("start analysis: server returned no task id")
	}

	return &domain.StartAck{TaskID: ack.TaskID, Status: ack.Status, Message: ack.Message}, nil
}

// TaskStatus fetches the current status of a task plus activity entries
// newer than sinceSeq.
func (c *Client) TaskStatus(ctx context.Context, taskID string, sinceSeq int64) (*domain.Task, []domain.Activity, error) {
	path := basePath + "/status/" + url.PathEscape(taskID)
	if sinceSeq > 0 {
		path += "?since_activity_seq=" + strconv.FormatInt(sinceSeq, 10)
	}

	var payload taskPayload
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, nil, fmt.Errorf("task status: %w", err)
	}

	task, err := payload.toTask()
	if err != nil {
		return nil, nil, fmt.Errorf("task status: %w", err)
	}

	activity, err := toActivities(payload.Activity)
	if err != nil {
		return nil, nil, fmt.Errorf("task status: %w", err)
	}

	return task, activity, nil
}

// ActiveTask returns the currently running task, or nil if none.
func (c *Client) ActiveTask(ctx context.Context) (*domain.Task, error) {
	return c.optionalTask(ctx, basePath+"/active")
}

// RecentTask returns the most recently completed task, or nil if none.
func (c *Client) RecentTask(ctx context.Context) (*domain.Task, error) {
	return c.optionalTask(ctx, basePath+"/recent")
}

// optionalTask fetches an endpoint that may legitimately return null.
func (c *Client) optionalTask(ctx context.Context, path string) (*domain.Task, error) {
	var payload *taskPayload
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	if payload == nil || payload.ID == "" {
		return nil, nil
	}
	task, err := payload.toTask()
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	return task, nil
}

// CancelAnalysis requests cancellation of a running task.
func (c *Client) CancelAnalysis(ctx context.Context, taskID string) (*domain.CancelAck, error) {
	path := basePath + "/cancel/" + url.PathEscape(taskID)

	var ack ackPayload
	if err := c.doJSON(ctx, http.MethodPost, path, nil, &ack); err != nil {
		return nil, fmt.Errorf("cancel analysis: %w", err)
	}

	return &domain.CancelAck{TaskID: ack.TaskID, Status: ack.Status, Message: ack.Message}, nil
}

// Health probes the server's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	if err := c.doJSON(ctx, http.MethodGet, "/api/health", nil, nil); err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	return nil
}

// doJSON performs a request with a JSON body and decodes a JSON response
// into out (which may be nil to discard the body).
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrTaskNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeError converts a non-2xx response into an error, preferring the
// server's detail message when one is present.
func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var payload errorPayload
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Detail != "" {
		return fmt.Errorf("%w: %s (HTTP %d)", domain.ErrServerError, payload.Detail, resp.StatusCode)
	}
	return fmt.Errorf("%w: HTTP %d", domain.ErrServerError, resp.StatusCode)
}

// toTask converts the wire payload into a domain task.
func (p *taskPayload) toTask() (*domain.Task, error) {
	startedAt, err := parseServerTime(p.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid started_at: %w", err)
	}
	completedAt, err := parseServerTime(p.CompletedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid completed_at: %w", err)
	}

	return &domain.Task{
		ID:               p.ID,
		Status:           domain.Status(p.Status),
		Progress:         p.Progress,
		CurrentPhase:     p.CurrentPhase,
		PhaseDetails:     p.PhaseDetails,
		PhaseName:        p.PhaseName,
		MaxInsights:      p.MaxInsights,
		DeepDiveCount:    p.DeepDiveCount,
		ResultInsightIDs: p.ResultInsightIDs,
		ResultAnalysisID: p.ResultAnalysisID,
		MarketRegime:     p.MarketRegime,
		TopSectors:       p.TopSectors,
		DiscoverySummary: p.DiscoverySummary,
		PhasesCompleted:  p.PhasesCompleted,
		ErrorMessage:     p.ErrorMessage,
		ElapsedSeconds:   p.ElapsedSeconds,
		StartedAt:        startedAt,
		CompletedAt:      completedAt,
	}, nil
}

// toActivities converts wire activity entries into domain entries.
func toActivities(payloads []activityPayload) ([]domain.Activity, error) {
	if len(payloads) == 0 {
		return nil, nil
	}
	out := make([]domain.Activity, 0, len(payloads))
	for _, p := range payloads {
		ts, err := parseServerTime(p.Time)
		if err != nil {
			return nil, fmt.Errorf("invalid activity time (seq %d): %w", p.Seq, err)
		}
		out = append(out, domain.Activity{
			Seq:     p.Seq,
			Time:    ts,
			Phase:   p.Phase,
			Message: p.Message,
			Level:   p.Level,
		})
	}
	return out, nil
}

// serverTimeLayouts are the accepted timestamp formats. The server emits
// ISO 8601 without a zone suffix; those values are UTC and are parsed as
// such here so the ambiguity never leaks past this package.
var serverTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func parseServerTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range serverTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.New("unrecognized timestamp: " + value)
}

// Ensure Client implements AnalysisAPI.
var _ domain.AnalysisAPI = (*Client)(nil)
