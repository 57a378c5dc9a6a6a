package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"sync/atomic"
)

const ProcessPath = "/api/process-pdf"

const (
	LabelIdle     = "开始处理并下载结果"
	LabelInFlight = "处理中..."
)

const failureMessage = "处理出错:"

// maxErrorBody caps how much of a failed response is kept for the error.
const maxErrorBody = 4 << 10

type State int32

const (
	Idle State = iota
	InFlight
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case InFlight:
		return "in-flight"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Outcome is the settled result of one submission.
type Outcome struct {
	// Skipped is set when nothing was sent: no file was selected or a
	// submission was already in flight.
	Skipped bool
	Path    string
	Size    int64
	Err     error
}

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Body)
}

// Controller submits the form to the processing endpoint and hands the
// returned archive to a Downloader. At most one submission runs at a time.
type Controller struct {
	form       *Form
	endpoint   string
	httpClient *http.Client
	downloader Downloader
	logger     *slog.Logger

	state atomic.Int32
}

type Option func(*Controller)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Controller) { c.httpClient = hc }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

func NewController(baseURL string, form *Form, d Downloader, opts ...Option) *Controller {
	c := &Controller{
		form:       form,
		endpoint:   strings.TrimRight(baseURL, "/") + ProcessPath,
		httpClient: &http.Client{},
		downloader: d,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Form() *Form {
	return c.form
}

func (c *Controller) State() State {
	return State(c.state.Load())
}

// Label is the submit button text for the current state.
func (c *Controller) Label() string {
	if c.State() == InFlight {
		return LabelInFlight
	}
	return LabelIdle
}

// Enabled reports whether the submit button accepts clicks.
func (c *Controller) Enabled() bool {
	return c.State() == Idle
}

// Start begins a submission and returns a channel that yields its Outcome
// once. The state is InFlight when Start returns, unless the submission was
// skipped.
func (c *Controller) Start(ctx context.Context) <-chan Outcome {
	out := make(chan Outcome, 1)

	req := c.form.Snapshot()
	if req.File == nil || !c.state.CompareAndSwap(int32(Idle), int32(InFlight)) {
		out <- Outcome{Skipped: true}
		close(out)
		return out
	}

	go func() {
		defer close(out)
		out <- c.run(ctx, req)
	}()
	return out
}

// Submit runs a submission to completion.
func (c *Controller) Submit(ctx context.Context) Outcome {
	return <-c.Start(ctx)
}

func (c *Controller) run(ctx context.Context, req CropRequest) (outcome Outcome) {
	defer c.state.Store(int32(Idle))
	defer func() {
		if r := recover(); r != nil {
			outcome = Outcome{Err: fmt.Errorf("panic: %v", r)}
			c.logger.Error(failureMessage, "error", outcome.Err)
		}
	}()

	path, size, err := c.send(ctx, req)
	if err != nil {
		c.logger.Error(failureMessage, "error", err)
		return Outcome{Err: err}
	}

	c.logger.Info("download saved", "path", path, "bytes", size)
	return Outcome{Path: path, Size: size}
}

func (c *Controller) send(ctx context.Context, req CropRequest) (string, int64, error) {
	body, contentType, err := encodeRequest(req)
	if err != nil {
		return "", 0, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", 0, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", 0, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	return c.downloader.Download(DownloadName, resp.Body)
}

// encodeRequest builds the multipart body: file, top_cm, bottom_cm.
func encodeRequest(req CropRequest) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", req.File.Name)
	if err != nil {
		return nil, "", err
	}

	src, err := req.File.Open()
	if err != nil {
		return nil, "", fmt.Errorf("failed to open %s: %w", req.File.Name, err)
	}
	_, err = io.Copy(part, src)
	src.Close()
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", req.File.Name, err)
	}

	if err := writer.WriteField("top_cm", req.TopMarginCm); err != nil {
		return nil, "", err
	}
	if err := writer.WriteField("bottom_cm", req.BottomMarginCm); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return &buf, writer.FormDataContentType(), nil
}
