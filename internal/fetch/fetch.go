// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads cover images into a per-series directory under
// deterministic names.
//
// A cover tied to a volume is saved as "<series> - Volume <n>.jpg". A
// series-level cover is saved as "<series> - Main Cover.jpg"; when that name
// is already taken by a different cover, the first eight characters of the
// cover ID are appended: "<series> - Main Cover (<id8>).jpg". Ownership of a
// main-cover file is recorded in a hidden sidecar next to it.
//
// Downloads go to a temporary file in the target directory that is renamed
// into place only after the whole body has been written, so a failed or
// interrupted download never leaves a partial image behind.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/cover-mirror/internal/httputil"
	"github.com/pdiddy/cover-mirror/pkg/types"
)

const (
	// ChunkSize is the read size used while streaming a cover to disk.
	ChunkSize = 8 << 10

	idPrefixLen   = 8
	sidecarSuffix = ".cover-id"
)

// Fetcher downloads covers into DestDir. It keeps no state between calls.
type Fetcher struct {
	http        *http.Client
	uploadsBase string
	destDir     string
	log         zerolog.Logger
}

// New returns a Fetcher that downloads from uploadsBase into destDir.
func New(client *http.Client, uploadsBase, destDir string, log zerolog.Logger) *Fetcher {
	if uploadsBase == "" {
		uploadsBase = types.DefaultUploadsBase
	}
	return &Fetcher{
		http:        client,
		uploadsBase: strings.TrimRight(uploadsBase, "/"),
		destDir:     destDir,
		log:         log.With().Str("component", "fetch").Logger(),
	}
}

// CoverURL returns the location of a cover binary.
func (f *Fetcher) CoverURL(seriesID, fileName string) string {
	return f.uploadsBase + "/covers/" + url.PathEscape(seriesID) + "/" + url.PathEscape(fileName)
}

// SeriesDir returns the directory holding the covers of a local series.
func (f *Fetcher) SeriesDir(seriesLocalName string) string {
	return filepath.Join(f.destDir, sanitize(seriesLocalName))
}

// FetchCover downloads one cover for the local series seriesLocalName. When
// the target file already exists it returns immediately with
// SkippedExisting set and issues no request.
func (f *Fetcher) FetchCover(ctx context.Context, seriesLocalName string, cover types.CoverRecord, seriesID string) (types.DownloadOutcome, error) {
	dir := f.SeriesDir(seriesLocalName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return types.DownloadOutcome{}, fmt.Errorf("creating directory %s: %w", dir, err)
	}

	name, err := FileName(dir, seriesLocalName, cover)
	if err != nil {
		return types.DownloadOutcome{}, err
	}
	path := filepath.Join(dir, name)
	log := f.log.With().Str("series", seriesLocalName).Str("file", name).Logger()

	if _, err := os.Stat(path); err == nil {
		if !cover.HasVolume() {
			if err := claimOwner(path, cover.ID); err != nil {
				return types.DownloadOutcome{}, err
			}
		}
		log.Info().Msg("cover already exists")
		return types.DownloadOutcome{LocalPath: path, SkippedExisting: true}, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return types.DownloadOutcome{}, fmt.Errorf("checking %s: %w", path, err)
	}

	log.Info().Msg("downloading cover")
	n, err := f.download(ctx, f.CoverURL(seriesID, cover.FileName), path)
	if err != nil {
		return types.DownloadOutcome{}, fmt.Errorf("downloading %s: %w", name, err)
	}

	if !cover.HasVolume() {
		if err := writeOwner(path, cover.ID); err != nil {
			os.Remove(path)
			return types.DownloadOutcome{}, fmt.Errorf("recording owner of %s: %w", name, err)
		}
	}
	log.Info().Int64("bytes", n).Msg("downloaded cover")
	return types.DownloadOutcome{LocalPath: path, BytesWritten: n}, nil
}

// FileName derives the local file name of cover inside dir, the series
// directory. It reads dir only to disambiguate series-level covers.
func FileName(dir, seriesLocalName string, cover types.CoverRecord) (string, error) {
	base := sanitize(seriesLocalName)
	if cover.HasVolume() {
		return fmt.Sprintf("%s - Volume %s.jpg", base, sanitize(*cover.Volume)), nil
	}

	main := base + " - Main Cover.jpg"
	if _, err := os.Stat(filepath.Join(dir, main)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return main, nil
		}
		return "", fmt.Errorf("checking %s: %w", main, err)
	}

	owner, err := readOwner(filepath.Join(dir, main))
	if err != nil {
		return "", err
	}
	// A main cover without an owner record goes to the first cover that
	// reaches it; FetchCover then records that cover as the owner.
	if owner == "" || owner == cover.ID {
		return main, nil
	}
	return fmt.Sprintf("%s - Main Cover (%s).jpg", base, idPrefix(cover.ID)), nil
}

func (f *Fetcher) download(ctx context.Context, coverURL, destPath string) (int64, error) {
	resp, err := httputil.Get(ctx, f.http, coverURL, "image/*")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".cover-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	n, copyErr := copyChunked(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("renaming temp file: %w", err)
	}
	return n, nil
}

// copyChunked copies src to dst ChunkSize bytes at a time.
func copyChunked(dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, ChunkSize)
	var written int64
	for {
		nr, rerr := src.Read(buf)
		if nr > 0 {
			nw, werr := dst.Write(buf[:nr])
			written += int64(nw)
			if werr != nil {
				return written, werr
			}
			if nw != nr {
				return written, io.ErrShortWrite
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
}

func sidecarPath(coverPath string) string {
	return filepath.Join(filepath.Dir(coverPath), "."+filepath.Base(coverPath)+sidecarSuffix)
}

func readOwner(coverPath string) (string, error) {
	data, err := os.ReadFile(sidecarPath(coverPath))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("reading cover owner: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// claimOwner records coverID as the owner of an existing cover file that has
// no owner yet.
func claimOwner(coverPath, coverID string) error {
	owner, err := readOwner(coverPath)
	if err != nil || owner != "" {
		return err
	}
	if err := writeOwner(coverPath, coverID); err != nil {
		return fmt.Errorf("recording cover owner: %w", err)
	}
	return nil
}

func writeOwner(coverPath, coverID string) error {
	return os.WriteFile(sidecarPath(coverPath), []byte(coverID+"\n"), 0o644)
}

func idPrefix(id string) string {
	r := []rune(id)
	if len(r) > idPrefixLen {
		r = r[:idPrefixLen]
	}
	return string(r)
}

// sanitize keeps a name usable as a single path element.
func sanitize(s string) string {
	return strings.NewReplacer("/", "-", `\`, "-", "\x00", "").Replace(s)
}
