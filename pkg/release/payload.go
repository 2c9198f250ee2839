package release

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Group names a set of artifacts that live under a default directory. Items
// may be given as bare names ("train.csv"), prefixed relative paths
// ("data/processed/train.csv") or absolute paths.
type Group struct {
	Name   string
	Prefix string
	Items  []string
}

// Collection is the assembled release payload.
type Collection struct {
	Dir string `json:"payload_dir"`
	// Copied lists destination base names, in copy order.
	Copied []string `json:"copied"`
	// Missing lists source paths that did not exist. A missing artifact is
	// reported, never silently skipped.
	Missing  []string `json:"missing,omitempty"`
	Manifest []ManifestEntry `json:"manifest"`
}

// Collect assembles the named artifacts into payloadDir as a flat set of
// files plus a manifest. The payload directory is emptied first so exactly
// one release's content is staged; collecting the same inputs twice produces
// byte-identical payload contents. With requireAll, any missing source is an
// error after the full missing list is gathered.
func Collect(root, payloadDir string, groups []Group, requireAll bool) (*Collection, error) {
	if err := cleanDir(payloadDir); err != nil {
		return nil, err
	}

	sources := resolveSources(root, groups)

	col := &Collection{
		Dir: payloadDir,
	}

	for _, src := range sources {
		if _, err := os.Stat(src); err != nil {
			col.Missing = append(col.Missing, src)
			slog.Warn("artifact not found", "path", src)
			continue
		}

		dst := filepath.Join(payloadDir, filepath.Base(src))
		if err := copyFile(src, dst); err != nil {
			return nil, fmt.Errorf("copying %s: %w", src, err)
		}
		col.Copied = append(col.Copied, filepath.Base(src))
	}

	if requireAll && len(col.Missing) > 0 {
		return nil, fmt.Errorf("missing artifacts: %s", strings.Join(col.Missing, ", "))
	}

	manifest, err := WriteManifest(payloadDir)
	if err != nil {
		return nil, err
	}
	col.Manifest = manifest

	return col, nil
}

// resolveSources maps group items to full paths, deduplicated in input order.
func resolveSources(root string, groups []Group) []string {
	seen := make(map[string]bool)
	var out []string

	for _, g := range groups {
		prefix := filepath.ToSlash(g.Prefix)
		for _, item := range g.Items {
			var p string
			switch {
			case filepath.IsAbs(item):
				p = item
			case prefix != "" && (filepath.ToSlash(item) == prefix || strings.HasPrefix(filepath.ToSlash(item), prefix+"/")):
				p = filepath.Join(root, item)
			default:
				p = filepath.Join(root, g.Prefix, item)
			}
			p = filepath.Clean(p)
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out
}

func cleanDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("cleaning payload dir %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating payload dir %s: %w", dir, err)
	}
	return nil
}

func copyFile(src, dst string) (retErr error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && retErr == nil {
			retErr = cerr
		}
	}()

	_, err = io.Copy(out, in)
	return err
}
