// Package http は外部呼び出し用のHTTPクライアントを提供します。
package http

import (
	"net"
	"net/http"
	"time"
)

// defaultTimeout は timeout 未指定時のリクエスト全体のタイムアウトです。
const defaultTimeout = 10 * time.Second

// NewHTTPClient はデータプロバイダ・画像取得用に設定されたHTTPクライアントを作成します。
//
// 設定:
//   - Proxy: 環境変数（HTTP_PROXYなど）が設定されている場合に使用
//   - Dialer.Timeout: TCP接続タイムアウト
//   - MaxIdleConnsPerHost: 同一ホストへのバッチ取得で接続を使い回すため20
//   - ResponseHeaderTimeout: ヘッダー受信待ちの上限（遅いプロバイダでジョブが止まらないように）
//   - Client.Timeout: リクエスト全体のタイムアウト（0以下なら10秒）
//
// http.DefaultClient にはタイムアウトがないため使用しないこと。
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: timeout,
	}
	return &http.Client{Timeout: timeout, Transport: t}
}
