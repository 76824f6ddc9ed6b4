package util

import (
	"archive/zip"
	"bytes"
	"fmt"
	"path/filepath"
	"time"
)

type ZipEntry struct {
	Name     string
	Content  []byte
	Modified time.Time
}

// ZipEntries writes the entries into an in-memory archive. Names are flattened
// to their base so an archive can never escape its extraction directory.
func ZipEntries(entries []ZipEntry) ([]byte, error) {
	var buf bytes.Buffer
	archive := zip.NewWriter(&buf)

	seen := make(map[string]int, len(entries))
	for _, e := range entries {
		name := filepath.Base(e.Name)
		if n := seen[name]; n > 0 {
			ext := filepath.Ext(name)
			name = fmt.Sprintf("%s (%d)%s", name[:len(name)-len(ext)], n, ext)
		}
		seen[filepath.Base(e.Name)]++

		header := &zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: e.Modified,
		}
		w, err := archive.CreateHeader(header)
		if err != nil {
			return nil, fmt.Errorf("failed to add %s to archive: %w", name, err)
		}
		if _, err := w.Write(e.Content); err != nil {
			return nil, fmt.Errorf("failed to write %s to archive: %w", name, err)
		}
	}

	if err := archive.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
