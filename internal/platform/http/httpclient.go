package http

import (
	"net"
	"net/http"
	"time"
)

// NewHTTPClient はモデルサーバーなど外部推論API呼び出し用のHTTPクライアントを作成します。
//
// 推論リクエストは同一ホストへ並行して送られるため、ホストあたりのアイドル接続数を
// 明示的に確保します。timeoutは画像アップロードと推論時間を含むリクエスト全体の上限です。
// http.DefaultClientにはタイムアウトがないため、常にこのクライアントを使用すること。
func NewHTTPClient(timeout time.Duration) *http.Client {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: t}
}
