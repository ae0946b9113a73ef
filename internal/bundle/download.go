package bundle

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const (
	// DefaultUserAgent is the User-Agent header sent with requests.
	DefaultUserAgent = "cellar/1.0"
	// maxManifestSize caps checksum manifest and signature downloads.
	maxManifestSize = 4 << 20
	// progressInterval throttles progress callbacks during streaming.
	progressInterval = 250 * time.Millisecond
)

// transferFunc receives cumulative transferred bytes and the total when
// known; total is <= 0 when the server did not report one.
type transferFunc func(done, total int64)

// Downloader streams remote files to disk. It performs a single attempt
// per call: retry policy, if any, belongs to the caller. Cancellation is
// honored through the request context at each chunked read.
type Downloader struct {
	client    *http.Client
	userAgent string
}

// NewDownloader creates a downloader. A nil client gets a default one
// that follows up to 10 redirects and has no fixed timeout; lifetime is
// bounded by the caller's context instead.
func NewDownloader(client *http.Client) *Downloader {
	if client == nil {
		client = &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		}
	}

	return &Downloader{
		client:    client,
		userAgent: DefaultUserAgent,
	}
}

// FetchFile streams url into destPath, invoking onChunk with cumulative
// byte counts. advisoryTotal is used for progress when the response
// carries no Content-Length. The partial file is left in place on
// failure; removing it is the caller's responsibility.
func (d *Downloader) FetchFile(ctx context.Context, url, destPath string, advisoryTotal int64, onChunk transferFunc) error {
	resp, err := d.get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	total := advisoryTotal
	if resp.ContentLength > 0 {
		total = resp.ContentLength
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create archive file: %w", err)
	}
	defer out.Close()

	var done int64
	lastReport := time.Now()
	buf := make([]byte, 64*1024)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				return fmt.Errorf("write archive file: %w", werr)
			}
			done += int64(n)

			if onChunk != nil && time.Since(lastReport) >= progressInterval {
				onChunk(done, total)
				lastReport = time.Now()
			}
		}

		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			// The transport surfaces context cancellation here;
			// prefer the unambiguous context error.
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read response body: %w", rerr)
		}
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("close archive file: %w", err)
	}

	if onChunk != nil {
		onChunk(done, total)
	}

	return nil
}

// FetchText retrieves a small remote text file (checksum manifests,
// detached signatures) into memory.
func (d *Downloader) FetchText(ctx context.Context, url string) ([]byte, error) {
	resp, err := d.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestSize))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return data, nil
}

func (d *Downloader) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("execute request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return resp, nil
}
