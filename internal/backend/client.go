package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
)

const (
	ClassifyPath    = "/classify-text/"
	DetectPath      = "/detect/"
	UploadFieldName = "audio_file"
)

// TokenSource supplies the CSRF token sent with uploads.
type TokenSource interface {
	Token() string
}

// Client talks to the classification and transcription backend. Each call
// makes exactly one request; there are no retries.
type Client struct {
	baseURL string
	client  *http.Client
	csrf    TokenSource
	logger  *slog.Logger
}

// NewClient builds a client. httpClient should carry the cookie jar shared
// with the CSRF resolver; it is used as-is, so no timeout is imposed here.
func NewClient(baseURL string, httpClient *http.Client, csrf TokenSource, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
		csrf:    csrf,
		logger:  logger,
	}
}

// ClassifyText sends message to /classify-text/ and decodes the verdict.
func (c *Client) ClassifyText(ctx context.Context, message string) (ClassificationResult, error) {
	body, err := json.Marshal(classifyRequest{Message: message})
	if err != nil {
		return ClassificationResult{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ClassifyPath, bytes.NewReader(body))
	if err != nil {
		return ClassificationResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("sending classify request", "path", ClassifyPath, "length", len(message))

	status, isJSON, respBody, err := c.do(req)
	if err != nil {
		return ClassificationResult{}, err
	}

	var raw rawClassification
	decoded := isJSON && json.Unmarshal(respBody, &raw) == nil

	c.logger.Debug("classify response", "status", status, "json", decoded)

	if !decoded {
		return ClassificationResult{}, &APIError{Status: status, Message: nonJSONError}
	}
	if !isSuccess(status) {
		return ClassificationResult{}, &APIError{Status: status, Message: textField(raw.Error)}
	}
	return raw.result(), nil
}

// DetectMedia uploads a media file to /detect/ for transcription.
func (c *Client) DetectMedia(ctx context.Context, filename string, content io.Reader) (UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(UploadFieldName, filename)
	if err != nil {
		return UploadResult{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return UploadResult{}, fmt.Errorf("read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+DetectPath, &buf)
	if err != nil {
		return UploadResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-CSRFToken", c.token())

	c.logger.Debug("uploading media", "path", DetectPath, "filename", filename, "bytes", buf.Len())

	status, isJSON, respBody, err := c.do(req)
	if err != nil {
		return UploadResult{}, err
	}

	var raw rawUpload
	var errMsg string
	switch {
	case !isJSON:
		errMsg = string(respBody)
	case json.Unmarshal(respBody, &raw) != nil:
		errMsg = nonJSONError
	default:
		errMsg = textField(raw.Error)
	}

	c.logger.Debug("detect response", "status", status, "json", isJSON, "error", errMsg)

	if !isSuccess(status) || errMsg != "" {
		return UploadResult{}, &APIError{Status: status, Message: errMsg}
	}
	return UploadResult{Transcription: textField(raw.Transcription)}, nil
}

func (c *Client) token() string {
	if c.csrf == nil {
		return ""
	}
	return c.csrf.Token()
}

// do runs req and reads the whole body. Only wire-level failures are
// returned as errors; status handling is left to the caller.
func (c *Client) do(req *http.Request) (status int, isJSON bool, body []byte, err error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, false, nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return 0, false, nil, &TransportError{Err: fmt.Errorf("read response: %w", err)}
	}

	isJSON = strings.Contains(resp.Header.Get("Content-Type"), "application/json")
	return resp.StatusCode, isJSON, body, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
