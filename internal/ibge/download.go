package ibge

import (
	"archive/zip"
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Fetcher downloads sector geometry archives. HTTP requests go through a
// rate limiter so repeated municipality fetches stay polite to the IBGE
// mirrors; FTP URLs hit the ftp.ibge.gov.br tree directly.
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	timeout time.Duration
}

// NewFetcher builds a Fetcher. ratePerSec caps HTTP request starts; values
// <= 0 default to 2/s.
func NewFetcher(client *http.Client, ratePerSec float64) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if ratePerSec <= 0 {
		ratePerSec = 2
	}
	return &Fetcher{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), 1),
		timeout: 60 * time.Second,
	}
}

// FetchArchive downloads a ZIP archive of sector geometry to destDir,
// extracts it, and returns the path of the contained .shp file.
func (f *Fetcher) FetchArchive(ctx context.Context, rawURL, destDir string) (string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", eris.Wrapf(err, "ibge: create %s", destDir)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", eris.Wrapf(err, "ibge: parse url %s", rawURL)
	}

	zipPath := filepath.Join(destDir, filepath.Base(u.Path))
	log := zap.L().With(zap.String("component", "ibge.fetcher"))
	log.Info("downloading sector geometry", zap.String("url", rawURL))

	switch u.Scheme {
	case "ftp":
		err = f.downloadFTP(ctx, u, zipPath)
	case "http", "https":
		err = f.downloadHTTP(ctx, rawURL, zipPath)
	default:
		return "", eris.Errorf("ibge: unsupported scheme %q", u.Scheme)
	}
	if err != nil {
		return "", err
	}

	extractDir := filepath.Join(destDir, strings.TrimSuffix(filepath.Base(zipPath), ".zip"))
	if err := os.MkdirAll(extractDir, 0o755); err != nil {
		return "", eris.Wrapf(err, "ibge: create %s", extractDir)
	}
	if err := extractZIP(zipPath, extractDir); err != nil {
		return "", err
	}
	return findFileByExt(extractDir, ".shp")
}

func (f *Fetcher) downloadHTTP(ctx context.Context, rawURL, dest string) error {
	if err := f.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "ibge: rate limiter")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return eris.Wrap(err, "ibge: build request")
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "ibge: download")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("ibge: download returned status %d", resp.StatusCode)
	}
	return writeStream(dest, resp.Body)
}

func (f *Fetcher) downloadFTP(ctx context.Context, u *url.URL, dest string) error {
	host := u.Host
	if _, _, err := net.SplitHostPort(host); err != nil {
		host = net.JoinHostPort(host, "21")
	}

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(f.timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return eris.Wrap(err, "ibge: ftp dial")
	}
	defer func() { _ = conn.Quit() }()

	if err := conn.Login("anonymous", "anonymous@"); err != nil {
		return eris.Wrap(err, "ibge: ftp login")
	}

	resp, err := conn.Retr(u.Path)
	if err != nil {
		return eris.Wrapf(err, "ibge: ftp retr %s", u.Path)
	}
	defer func() { _ = resp.Close() }()

	return writeStream(dest, resp)
}

func writeStream(dest string, r io.Reader) error {
	out, err := os.Create(dest)
	if err != nil {
		return eris.Wrapf(err, "ibge: create %s", dest)
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, r); err != nil {
		return eris.Wrapf(err, "ibge: write %s", dest)
	}
	return nil
}

// extractZIP flattens a ZIP archive into destDir. IBGE archives nest the
// shapefile parts under a release directory; only base names matter here.
func extractZIP(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return eris.Wrapf(err, "ibge: open zip %s", zipPath)
	}
	defer func() { _ = r.Close() }()

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		destPath := filepath.Join(destDir, filepath.Base(f.Name))

		rc, err := f.Open()
		if err != nil {
			return eris.Wrapf(err, "ibge: open zip entry %s", f.Name)
		}
		err = writeStream(destPath, rc)
		_ = rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// findFileByExt finds the first file with the given extension in a directory.
func findFileByExt(dir, ext string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", eris.Wrapf(err, "ibge: read %s", dir)
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ext) {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", eris.Errorf("ibge: no %s file found in %s", ext, dir)
}
