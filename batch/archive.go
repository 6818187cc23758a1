package batch

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/alnah/go-printables/internal/fileutil"
)

// archive zips the exported documents in selection order and records each
// item's entry name.
func (t *Task) archive(res *Result, outcomes []*outcome) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	names := newNamer()
	modified := time.Now()

	j := 0
	for _, o := range outcomes {
		if o == nil {
			continue
		}
		item := &res.Items[j]
		j++
		if o.res.Err != nil {
			continue
		}
		name := names.next(item.Name)
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: modified})
		if err != nil {
			return nil, fmt.Errorf("adding %s: %w", name, err)
		}
		if _, err := w.Write(o.pdf); err != nil {
			return nil, fmt.Errorf("writing %s: %w", name, err)
		}
		item.FileName = name
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing archive: %w", err)
	}
	return buf.Bytes(), nil
}

// namer hands out "<name>.pdf", then "<name> (2).pdf" and so on, comparing
// names case-insensitively so archives extract cleanly everywhere.
type namer struct {
	used map[string]bool
}

func newNamer() *namer { return &namer{used: make(map[string]bool)} }

func (n *namer) next(name string) string {
	stem := fileutil.SafeFilename(name)
	candidate := stem + ".pdf"
	for i := 2; n.used[strings.ToLower(candidate)]; i++ {
		candidate = fmt.Sprintf("%s (%d).pdf", stem, i)
	}
	n.used[strings.ToLower(candidate)] = true
	return candidate
}
