package net

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
)

// ErrURLNotFound indicates the remote returned a 404 for the requested URL.
var ErrURLNotFound = errors.New("URL not found")

func getResp(url string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP Get request: %w", err)
	}

	req.Header.Set("User-Agent", clientAgent)

	return GetHTTPClient().Do(req)
}

// Download retrieves url into filepath.
func Download(url string, filepath string) (retErr error) {
	out, err := os.Create(filepath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && retErr == nil {
			retErr = fmt.Errorf("closing file: %w", cerr)
		}
	}()

	resp, err := getResp(url)
	if err != nil {
		return fmt.Errorf("error executing HTTP Get request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrURLNotFound
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("error downloading file (status: %d - %s): %s", resp.StatusCode, resp.Status, url)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("error saving downloaded content to file: %w", err)
	}

	return nil
}

// DownloadIfMissing downloads url into filepath unless the file already
// exists, in which case the cached copy is reused.
func DownloadIfMissing(url string, filepath string) (cached bool, err error) {
	if _, err := os.Stat(filepath); err == nil {
		slog.Debug("using cached file", "path", filepath)
		return true, nil
	}

	if err := Download(url, filepath); err != nil {
		// remove the partial file so a re-run starts clean
		os.Remove(filepath)
		return false, err
	}
	return false, nil
}
