package bundler

import (
	"archive/tar"
	"bytes"
	"encoding/json"
	"io"

	"github.com/klauspost/compress/gzip"

	"eunomia-hq/eunomia/pkg/eerrors"
)

// Extract decodes archive into its manifest and policy/data files. The
// manifest entry, conventionally first, is located by name rather than
// by position so a re-ordered archive still parses, though Build never
// produces one.
func Extract(archive []byte) (Manifest, []File, error) {
	gz, err := gzip.NewReader(bytes.NewReader(archive))
	if err != nil {
		return Manifest{}, nil, &eerrors.BundleError{Reason: "open gzip stream", Cause: err}
	}
	defer gz.Close()

	tr := tar.NewReader(gz)

	var manifest Manifest
	var haveManifest bool
	var files []File

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Manifest{}, nil, &eerrors.BundleError{Reason: "read tar entry", Cause: err}
		}

		content, err := io.ReadAll(tr)
		if err != nil {
			return Manifest{}, nil, &eerrors.BundleError{Reason: "read tar entry body for " + hdr.Name, Cause: err}
		}

		if hdr.Name == manifestEntryName {
			if err := json.Unmarshal(content, &manifest); err != nil {
				return Manifest{}, nil, &eerrors.BundleError{Reason: "unmarshal manifest", Cause: err}
			}
			haveManifest = true
			continue
		}

		files = append(files, File{Path: hdr.Name, Content: content})
	}

	if !haveManifest {
		return Manifest{}, nil, &eerrors.BundleError{Reason: "archive has no manifest entry"}
	}

	return manifest, files, nil
}
