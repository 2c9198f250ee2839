package release

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// ManifestFileName is written into the payload directory alongside the
// artifacts. The manifest carries no timestamps so identical inputs produce
// an identical payload.
const ManifestFileName = "manifest.json"

// ManifestEntry describes one payload file.
type ManifestEntry struct {
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
}

// SHA256File returns the hex digest of the file contents.
func SHA256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("error opening %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("error hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// BuildManifest lists the payload files (manifest excluded) sorted by name.
func BuildManifest(dir string) ([]ManifestEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("error reading payload dir %s: %w", dir, err)
	}

	var out []ManifestEntry
	for _, e := range entries {
		if e.IsDir() || e.Name() == ManifestFileName {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		sum, err := SHA256File(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, ManifestEntry{
			Name:   e.Name(),
			Size:   info.Size(),
			SHA256: sum,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// WriteManifest builds the manifest and persists it into the payload dir.
func WriteManifest(dir string) ([]ManifestEntry, error) {
	entries, err := BuildManifest(dir)
	if err != nil {
		return nil, err
	}

	b, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("error marshalling manifest: %w", err)
	}

	path := filepath.Join(dir, ManifestFileName)
	if err := os.WriteFile(path, b, 0600); err != nil {
		return nil, fmt.Errorf("error writing manifest %s: %w", path, err)
	}
	return entries, nil
}
