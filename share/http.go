package share

import (
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

// InitHTTP configures http.DefaultClient. proxy may be empty; "auto" uses a
// local debugging proxy on 127.0.0.1:50000 when one is listening.
func InitHTTP(proxy string) error {
	tr := &http.Transport{
		MaxConnsPerHost:       0,
		MaxIdleConns:          0,
		MaxIdleConnsPerHost:   64,
		ResponseHeaderTimeout: 30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		IdleConnTimeout:       30 * time.Second,
		ExpectContinueTimeout: 30 * time.Second,
	}
	http.DefaultClient.Timeout = 1 * time.Minute
	http.DefaultClient.Transport = tr

	switch proxy {
	case "":
	case "auto":
		if conn, err := net.DialTimeout("tcp", "127.0.0.1:50000", time.Second); err == nil {
			conn.Close()

			u, _ := url.Parse("http://127.0.0.1:50000")
			tr.Proxy = http.ProxyURL(u)
		}
	default:
		u, err := url.Parse(proxy)
		if err != nil {
			return errors.Wrap(err, "proxy")
		}
		tr.Proxy = http.ProxyURL(u)
	}

	return nil
}
