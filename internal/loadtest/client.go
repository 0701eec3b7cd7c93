package loadtest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"
)

// client wraps http.Client with the service routes.
type client struct {
	http *http.Client
	base string
}

func newClient(cfg Config) *client {
	return &client{http: &http.Client{Timeout: cfg.Timeout}, base: cfg.BaseURL}
}

type sessionResponse struct {
	ID string `json:"id"`
}

type trainResponse struct {
	Rows    int      `json:"rows"`
	Classes []string `json:"classes"`
	Cached  bool     `json:"cached"`
}

type predictionsResponse struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

type playerResponse struct {
	ID int64 `json:"id"`
}

type similarResponse struct {
	Recommendations []struct {
		PlayerID int64   `json:"player_id"`
		Score    float64 `json:"score"`
	} `json:"recommendations"`
}

func (c *client) health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/healthz", nil, "")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}

func (c *client) createSession(ctx context.Context) (string, error) {
	var out sessionResponse
	if err := c.call(ctx, http.MethodPost, "/sessions", nil, "", http.StatusCreated, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *client) endSession(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/sessions/"+url.PathEscape(id), nil, "", http.StatusNoContent, nil)
}

func (c *client) train(ctx context.Context, id string, content []byte, holdout float64) (trainResponse, error) {
	fields := map[string]string{"target": Target, "problem_type": "classification"}
	if holdout > 0 {
		fields["holdout"] = strconv.FormatFloat(holdout, 'g', -1, 64)
	}
	body, contentType, err := multipartBody("train.csv", content, fields)
	if err != nil {
		return trainResponse{}, err
	}
	var out trainResponse
	err = c.call(ctx, http.MethodPost, "/sessions/"+url.PathEscape(id)+"/train", body, contentType, http.StatusOK, &out)
	return out, err
}

func (c *client) predict(ctx context.Context, id string, content []byte) (predictionsResponse, error) {
	body, contentType, err := multipartBody("predict.csv", content, nil)
	if err != nil {
		return predictionsResponse{}, err
	}
	var out predictionsResponse
	err = c.call(ctx, http.MethodPost, "/sessions/"+url.PathEscape(id)+"/predict?format=json", body, contentType, http.StatusOK, &out)
	return out, err
}

func (c *client) players(ctx context.Context, limit int) ([]playerResponse, error) {
	var out []playerResponse
	err := c.call(ctx, http.MethodGet, "/players?limit="+strconv.Itoa(limit), nil, "", http.StatusOK, &out)
	return out, err
}

func (c *client) similar(ctx context.Context, id int64, k int) (similarResponse, error) {
	var out similarResponse
	path := fmt.Sprintf("/players/%d/similar?k=%d", id, k)
	err := c.call(ctx, http.MethodGet, path, nil, "", http.StatusOK, &out)
	return out, err
}

// call performs a request and decodes the expected JSON answer or the
// service error body.
func (c *client) call(ctx context.Context, method, path string, body io.Reader, contentType string, want int, out any) error {
	resp, err := c.do(ctx, method, path, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, path, err)
	}
	if resp.StatusCode != want {
		apiErr := &APIError{Status: resp.StatusCode}
		if json.Unmarshal(data, apiErr) != nil || apiErr.Code == "" {
			return fmt.Errorf("%w: %s %s returned %d", ErrUnexpected, method, path, resp.StatusCode)
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode %s %s: %w", ErrUnexpected, method, path, err)
	}
	return nil
}

func (c *client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func multipartBody(filename string, content []byte, fields map[string]string) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := fw.Write(content); err != nil {
		return nil, "", fmt.Errorf("write form file: %w", err)
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", k, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}
