// Package httpxfer moves file bytes over presigned URLs. Every call is
// a single attempt; the pipeline treats any failure as fatal for the
// file in question.
package httpxfer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

type Client struct {
	httpClient *http.Client
}

func New(timeout time.Duration) *Client {
	return &Client{httpClient: &http.Client{Timeout: timeout}}
}

// Upload streams the local file to the presigned PUT URL. Content-Type
// must match the type the URL was signed for or the store rejects the
// request.
func (c *Client) Upload(ctx context.Context, url, path, contentType string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open staged file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat staged file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, file)
	if err != nil {
		return fmt.Errorf("create put request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = info.Size()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return formatTransferError("put", resp)
	}
	return nil
}

// Download fetches the presigned GET URL into the local path.
func (c *Client) Download(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create get request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("get object: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return formatTransferError("get", resp)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create local file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("write local file: %w", err)
	}
	return nil
}

func formatTransferError(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return fmt.Errorf("%s object status: %s", operation, resp.Status)
	}
	return fmt.Errorf("%s object status: %s: %s", operation, resp.Status, msg)
}
