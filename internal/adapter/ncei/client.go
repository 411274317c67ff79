// Package ncei downloads best-track archive files from NOAA NCEI.
package ncei

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// DefaultURL is the all-basins CSV of the current archive release.
const DefaultURL = "https://www.ncei.noaa.gov/data/international-best-track-archive-for-climate-stewardship-ibtracs/v04r01/access/csv/ibtracs.ALL.list.v04r01.csv"

// Client fetches archive snapshots over HTTP.
type Client struct {
	httpClient *http.Client
	url        string
	logger     *slog.Logger
}

// The full archive runs to several hundred MiB; log progress at this
// interval so a slow transfer is observably alive.
const progressInterval = 64 << 20

type progressReader struct {
	r      io.Reader
	logger *slog.Logger
	total  int64
	read   int64
	next   int64
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	p.read += int64(n)
	if p.read >= p.next {
		if p.total > 0 {
			p.logger.Info("download progress", "bytes", p.read, "total", p.total)
		} else {
			p.logger.Info("download progress", "bytes", p.read)
		}
		p.next = p.read + progressInterval
	}
	return n, err
}

// NewClient creates an archive download client. An empty url selects
// the default NCEI location.
func NewClient(url string, timeout time.Duration, logger *slog.Logger) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		url:        url,
		logger:     logger,
	}
}

// Download fetches the archive into dest, staging through a temp file
// so an interrupted transfer never clobbers a good copy. When dest
// already exists the request is conditional and an unchanged remote
// copy is kept as is. Reports whether a new copy was written.
func (c *Client) Download(ctx context.Context, dest string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	if info, err := os.Stat(dest); err == nil {
		req.Header.Set("If-Modified-Since", info.ModTime().UTC().Format(http.TimeFormat))
	}

	c.logger.Debug("fetching archive", "url", c.url)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("fetch archive: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		c.logger.Info("archive unchanged, keeping local copy", "dest", dest)
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return false, fmt.Errorf("archive fetch: status %d: %s", resp.StatusCode, body)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return false, fmt.Errorf("create %s: %w", filepath.Dir(dest), err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return false, fmt.Errorf("stage download: %w", err)
	}
	defer os.Remove(tmp.Name())

	src := &progressReader{r: resp.Body, logger: c.logger, total: resp.ContentLength, next: progressInterval}
	written, err := io.Copy(tmp, src)
	if err != nil {
		tmp.Close()
		return false, fmt.Errorf("download archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("download archive: %w", err)
	}
	if resp.ContentLength >= 0 && written != resp.ContentLength {
		return false, fmt.Errorf("truncated download: got %d of %d bytes", written, resp.ContentLength)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return false, fmt.Errorf("replace %s: %w", dest, err)
	}

	c.logger.Info("archive downloaded", "dest", dest, "bytes", written, "url", c.url)
	return true, nil
}
