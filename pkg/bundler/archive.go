package bundler

import (
	"archive/tar"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"eunomia-hq/eunomia/pkg/eerrors"
)

// epoch is the fixed modification time stamped on every archive entry so
// that two builds from identical inputs produce byte-identical archives.
var epoch = time.Unix(0, 0).UTC()

const manifestEntryName = ".manifest.json"

// File is one policy module or data file destined for the archive, keyed
// by its archive-relative path.
type File struct {
	Path    string
	Content []byte
}

// BuildOptions parameterizes Build.
type BuildOptions struct {
	Revision  string
	Roots     []string
	Version   string
	Service   string
	GitCommit string
	Clock     Clock
}

// Bundle is the result of a Build: the final archive bytes, the manifest
// embedded in them, and the bundle's content digest as a hex string —
// the same string the signature is computed over.
type Bundle struct {
	Archive  []byte
	Manifest Manifest
	Digest   string
}

// Build assembles a deterministic gzip+tar archive from files. The
// manifest is written first, sorted entries follow. The checksum is
// computed in two passes: once with a placeholder value to produce the
// digest, then patched into the manifest that is actually shipped, per
// the bundle format's checksum-placement rule.
func Build(opts BuildOptions, files []File) (Bundle, error) {
	if len(files) == 0 {
		return Bundle{}, &eerrors.BundleError{Reason: "no policy files given to build"}
	}

	clock := opts.Clock
	if clock == nil {
		clock = SystemClock{}
	}

	sorted := append([]File(nil), files...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	placeholderManifest := buildManifest(opts, clock.Now(), strings.Repeat("0", 64))
	digest, err := recomputeDigest(placeholderManifest, sorted)
	if err != nil {
		return Bundle{}, err
	}

	finalManifest := buildManifest(opts, placeholderManifest.Metadata.Eunomia.CreatedAt, digest)
	finalArchive, err := assemble(finalManifest, sorted)
	if err != nil {
		return Bundle{}, err
	}

	return Bundle{Archive: finalArchive, Manifest: finalManifest, Digest: digest}, nil
}

// recomputeDigest hashes the archive that would result from manifest
// (with its checksum field blanked) and files. Build uses it to derive
// the digest that gets patched into the shipped manifest; Verify uses it
// to recheck an extracted bundle's claimed checksum against the same
// files it shipped with — the self-referential checksum field is always
// blanked before hashing, on both sides.
func recomputeDigest(manifest Manifest, files []File) (string, error) {
	blanked := manifest
	blanked.Metadata.Eunomia.Checksum = Checksum{Algorithm: "sha256", Value: strings.Repeat("0", 64)}

	archive, err := assemble(blanked, files)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(archive)
	return hex.EncodeToString(sum[:]), nil
}

func buildManifest(opts BuildOptions, createdAt time.Time, checksum string) Manifest {
	return Manifest{
		Revision: opts.Revision,
		Roots:    opts.Roots,
		Metadata: Metadata{
			Eunomia: EunomiaMetadata{
				Version:   opts.Version,
				Service:   opts.Service,
				GitCommit: opts.GitCommit,
				CreatedAt: createdAt,
				Checksum:  Checksum{Algorithm: "sha256", Value: checksum},
			},
		},
	}
}

func assemble(manifest Manifest, files []File) ([]byte, error) {
	manifestBytes, err := json.Marshal(manifest)
	if err != nil {
		return nil, &eerrors.BundleError{Reason: "marshal manifest", Cause: err}
	}

	var buf bytes.Buffer
	gz, err := gzip.NewWriterLevel(&buf, 6)
	if err != nil {
		return nil, &eerrors.BundleError{Reason: "create gzip writer", Cause: err}
	}
	gz.ModTime = epoch

	tw := tar.NewWriter(gz)

	if err := writeEntry(tw, manifestEntryName, manifestBytes); err != nil {
		return nil, err
	}
	for _, f := range files {
		if err := writeEntry(tw, f.Path, f.Content); err != nil {
			return nil, err
		}
	}

	if err := tw.Close(); err != nil {
		return nil, &eerrors.BundleError{Reason: "close tar writer", Cause: err}
	}
	if err := gz.Close(); err != nil {
		return nil, &eerrors.BundleError{Reason: "close gzip writer", Cause: err}
	}

	return buf.Bytes(), nil
}

func writeEntry(tw *tar.Writer, name string, content []byte) error {
	hdr := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(content)),
		ModTime:  epoch,
		Typeflag: tar.TypeReg,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return &eerrors.BundleError{Reason: fmt.Sprintf("write tar header for %s", name), Cause: err}
	}
	if _, err := tw.Write(content); err != nil {
		return &eerrors.BundleError{Reason: fmt.Sprintf("write tar entry for %s", name), Cause: err}
	}
	return nil
}
