// SPDX-License-Identifier: MIT
package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
)

// Source yields the encoded bytes of an asset. name is used to derive a
// title when the file carries no tags.
type Source interface {
	Fetch(ctx context.Context, client *http.Client) (name string, data []byte, err error)
}

// BytesSource is an asset already held in memory, e.g. an upload.
type BytesSource struct {
	Name string
	Data []byte
}

func (s BytesSource) Fetch(context.Context, *http.Client) (string, []byte, error) {
	return s.Name, bytes.Clone(s.Data), nil
}

// FileSource reads an asset from the local filesystem.
type FileSource string

func (s FileSource) Fetch(ctx context.Context, _ *http.Client) (string, []byte, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	data, err := os.ReadFile(string(s))
	if err != nil {
		return "", nil, err
	}
	return filepath.Base(string(s)), data, nil
}

// URLSource downloads an asset over HTTP(S).
type URLSource struct {
	URL string
	// Progress, when set, is called once the response headers arrive with the
	// content length (-1 if unknown) and returns a writer that receives a copy
	// of the body as it downloads.
	Progress func(total int64) io.Writer
}

func (s URLSource) Fetch(ctx context.Context, client *http.Client) (string, []byte, error) {
	u, err := url.Parse(s.URL)
	if err != nil {
		return "", nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", nil, fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", nil, err
	}
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", nil, fmt.Errorf("GET %s: %s", u.Redacted(), resp.Status)
	}

	var body io.Reader = resp.Body
	if s.Progress != nil {
		if w := s.Progress(resp.ContentLength); w != nil {
			body = io.TeeReader(resp.Body, w)
		}
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", nil, fmt.Errorf("read body: %w", err)
	}
	return path.Base(u.Path), data, nil
}
