package zenodo

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/sustainlab/ecopipe/pkg/net"
)

// Record is the public metadata subset of an archive record.
type Record struct {
	ID       int    `json:"id"`
	DOI      string `json:"doi,omitempty"`
	Metadata struct {
		Title string `json:"title,omitempty"`
	} `json:"metadata"`
}

// FetchRecord retrieves the public record metadata.
func FetchRecord(baseURL, recordID string) (*Record, error) {
	if recordID == "" {
		return nil, fmt.Errorf("record ID required")
	}

	var rec Record
	u := fmt.Sprintf("%s/api/records/%s", baseURL, url.PathEscape(recordID))
	if err := net.GetJSON(u, &rec); err != nil {
		return nil, fmt.Errorf("fetching record %s: %w", recordID, err)
	}
	return &rec, nil
}

// RecordFileURL is the public download URL of one file in an archive record.
func RecordFileURL(baseURL, recordID, filename string) string {
	return fmt.Sprintf("%s/records/%s/files/%s?download=1", baseURL, recordID, url.PathEscape(filename))
}

// FetchRecordFile downloads a record file into destDir, reusing an existing
// local copy. Returns the local path and whether the cache was used.
func FetchRecordFile(baseURL, recordID, filename, destDir string) (string, bool, error) {
	if recordID == "" || filename == "" {
		return "", false, fmt.Errorf("record ID and filename required")
	}
	if err := os.MkdirAll(destDir, 0700); err != nil {
		return "", false, fmt.Errorf("creating dir %s: %w", destDir, err)
	}

	local := filepath.Join(destDir, filename)
	cached, err := net.DownloadIfMissing(RecordFileURL(baseURL, recordID, filename), local)
	if err != nil {
		return "", false, fmt.Errorf("downloading %s from record %s: %w", filename, recordID, err)
	}
	return local, cached, nil
}
