package net

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

const maxErrBodyBytes = 2048

// GetJSON retrieves the HTTP content and decodes it into the passed target.
func GetJSON[T any](url string, target *T) error {
	resp, err := getResp(url)
	if err != nil {
		return fmt.Errorf("error executing HTTP Get request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return responseError(resp, url)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("error decoding content: %w", err)
	}
	return nil
}

// PostJSON posts body as JSON using the provided client and decodes the
// response into target. A nil body posts an empty JSON object.
func PostJSON[T any](ctx context.Context, client *http.Client, url string, body any, target *T) error {
	if body == nil {
		body = map[string]any{}
	}

	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("error encoding request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("error creating HTTP Post request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", clientAgent)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error executing HTTP Post request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return responseError(resp, url)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("error decoding content: %w", err)
	}
	return nil
}

// PutFile streams the local file to url via HTTP PUT.
func PutFile(ctx context.Context, client *http.Client, url string, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("error opening file %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("error getting file info %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, f)
	if err != nil {
		return fmt.Errorf("error creating HTTP Put request: %w", err)
	}
	req.ContentLength = info.Size()
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("User-Agent", clientAgent)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error uploading %s: %w", filepath.Base(path), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return responseError(resp, url)
	}
	return nil
}

func responseError(resp *http.Response, url string) error {
	body := ""
	if b, err := io.ReadAll(io.LimitReader(resp.Body, maxErrBodyBytes)); err == nil {
		body = string(b)
	}
	return fmt.Errorf("unexpected response (status: %d - %s) from %s: %s", resp.StatusCode, resp.Status, url, body)
}
