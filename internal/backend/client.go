package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/scribeapp/scribe/internal/models"
	"github.com/scribeapp/scribe/internal/utils"
)

// Client is the HTTP client for the Scribe transcription/AI backend.
// The base URL comes from a single environment variable (SCRIBE_API_URL).
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

func NewFromEnv() (*Client, error) {
	base := os.Getenv("SCRIBE_API_URL")
	if base == "" {
		return nil, errors.New("SCRIBE_API_URL environment variable is not set")
	}
	return New(base), nil
}

type TextUploadRequest struct {
	Text     string `json:"text"`
	FileID   string `json:"file_id"`
	UserID   string `json:"user_id"`
	FileType string `json:"file_type"` // "audio" | "video"
}

type textUploadResponse struct {
	TextID string `json:"text_id"`
}

// UploadText registers transcript text with the backend and returns the
// text_id handle used for chat.
func (c *Client) UploadText(ctx context.Context, req TextUploadRequest) (string, error) {
	var out textUploadResponse
	if err := c.doJSON(ctx, http.MethodPost, "/ai/upload", req, &out); err != nil {
		return "", err
	}
	return out.TextID, nil
}

type AskRequest struct {
	TextID   string `json:"text_id"`
	Question string `json:"question"`
	UserID   string `json:"user_id"`
	FileID   string `json:"file_id"`
	FileType string `json:"file_type"`
}

type askResponse struct {
	Answer string `json:"answer"`
	TextID string `json:"text_id"`
}

func (c *Client) Ask(ctx context.Context, req AskRequest) (string, error) {
	var out askResponse
	if err := c.doJSON(ctx, http.MethodPost, "/ai/ask", req, &out); err != nil {
		return "", err
	}
	return out.Answer, nil
}

type historyResponse struct {
	Questions []string `json:"questions"`
	Answers   []string `json:"answers"`
}

// History returns the stored question/answer sequences for a text resource.
// The two slices are parallel; callers zip them.
func (c *Client) History(ctx context.Context, textID string) ([]string, []string, error) {
	var out historyResponse
	if err := c.doJSON(ctx, http.MethodGet, "/ai/history/"+url.PathEscape(textID), nil, &out); err != nil {
		return nil, nil, err
	}
	return out.Questions, out.Answers, nil
}

type refreshMediaURLRequest struct {
	UserID  string `json:"user_id"`
	FileURL string `json:"file_url"`
}

type refreshMediaURLResponse struct {
	NewFileURL string `json:"new_file_url"`
}

// RefreshMediaURL exchanges a possibly expired media URL for a fresh one.
func (c *Client) RefreshMediaURL(ctx context.Context, userID, fileURL string) (string, error) {
	var out refreshMediaURLResponse
	err := c.doJSON(ctx, http.MethodPost, "/update-media-url", refreshMediaURLRequest{
		UserID:  userID,
		FileURL: fileURL,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.NewFileURL, nil
}

func (c *Client) TranscriptionStatus(ctx context.Context, userID, fileID string) (*models.TranscriptionStatus, error) {
	var out models.TranscriptionStatus
	path := "/transcription-status/" + url.PathEscape(userID) + "/" + url.PathEscape(fileID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type TranscriptAlternative struct {
	Transcript string `json:"transcript"`
}

type TranscriptResult struct {
	Results struct {
		Transcripts []TranscriptAlternative `json:"transcripts"`
	} `json:"results"`
}

func (c *Client) Transcript(ctx context.Context, userID, fileID string) (*TranscriptResult, error) {
	var out TranscriptResult
	path := "/transcription/" + url.PathEscape(userID) + "/" + url.PathEscape(fileID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type UploadMediaResult struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	FileURL  string `json:"file_url"`
}

// UploadMedia streams the file body to the backend as multipart form data.
func (c *Client) UploadMedia(ctx context.Context, userID, filename, contentType string, r io.Reader) (*UploadMediaResult, error) {
	const op = "backend.UploadMedia"

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(map[string][]string)
	h["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name="file"; filename=%q`, filename)}
	h["Content-Type"] = []string{contentType}
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to build multipart body", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to read file body", err)
	}
	if err := w.Close(); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to finalize multipart body", err)
	}

	u := c.baseURL + "/upload-media/?user_id=" + url.QueryEscape(userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, &buf)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to build request", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "media upload failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.statusError(op, resp)
	}

	var out UploadMediaResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to decode upload response", err)
	}
	return &out, nil
}

type upgradeRequest struct {
	Tier models.SubscriptionTier `json:"tier"`
}

func (c *Client) Subscription(ctx context.Context, userID string) (*models.SubscriptionData, error) {
	var out models.SubscriptionData
	if err := c.doJSON(ctx, http.MethodGet, "/subscriptions/"+url.PathEscape(userID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpgradeSubscription(ctx context.Context, userID string, tier models.SubscriptionTier) (*models.SubscriptionData, error) {
	var out models.SubscriptionData
	err := c.doJSON(ctx, http.MethodPost, "/subscriptions/"+url.PathEscape(userID), upgradeRequest{Tier: tier}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	op := "backend " + method + " " + path

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return utils.E(utils.CodeInternal, op, "failed to encode request", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to build request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return utils.E(utils.CodeUnavailable, op, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.statusError(op, resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to decode response", err)
	}
	return nil
}

func (c *Client) statusError(op string, resp *http.Response) error {
	// surface a short slice of the body for diagnostics
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

	code := utils.CodeUnavailable
	switch resp.StatusCode {
	case http.StatusBadRequest:
		code = utils.CodeInvalidArgument
	case http.StatusUnauthorized:
		code = utils.CodeUnauthorized
	case http.StatusForbidden:
		code = utils.CodeForbidden
	case http.StatusNotFound:
		code = utils.CodeNotFound
	}
	return utils.E(code, op, fmt.Sprintf("backend returned %d: %s", resp.StatusCode, string(snippet)), nil)
}
