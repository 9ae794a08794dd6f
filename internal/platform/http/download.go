package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// DefaultMaxDownloadBytes は1回のダウンロードで読み込む上限サイズです。
const DefaultMaxDownloadBytes = 5 << 20

// Downloader は画像などのバイナリを取得します。
type Downloader struct {
	client   *http.Client
	maxBytes int64
}

// NewDownloader は client を使う Downloader を作成します。maxBytes が0以下なら既定値を使います。
func NewDownloader(client *http.Client, maxBytes int64) *Downloader {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxDownloadBytes
	}
	return &Downloader{client: client, maxBytes: maxBytes}
}

// Fetch は url の本文と Content-Type を返します。2xx 以外はエラーです。
func (d *Downloader) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("download %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read body: %w", err)
	}
	if int64(len(body)) > d.maxBytes {
		return nil, "", fmt.Errorf("download %s: body exceeds %d bytes", url, d.maxBytes)
	}
	return body, resp.Header.Get("Content-Type"), nil
}
