package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestClient(t *testing.T) {
	Convey("Given a token endpoint", t, func() {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			n := atomic.AddInt32(&calls, 1)

			id, secret, ok := r.BasicAuth()
			if !ok || id != "id" || secret != "secret" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"invalid_client"}`))
				return
			}
			r.ParseForm()
			if r.PostForm.Get("grant_type") != "client_credentials" {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error":"unsupported_grant_type"}`))
				return
			}

			if n == 1 {
				w.Write([]byte(`{"access_token":"first","expires_in":3600}`))
			} else {
				w.Write([]byte(`{"access_token":"second","expires_in":3600}`))
			}
		}))
		defer srv.Close()

		now := time.Unix(1700000000, 0)
		c := New(srv.URL, "id", "secret")
		c.now = func() time.Time { return now }

		Convey("The token is cached", func() {
			h, err := c.Header(context.Background())
			So(err, ShouldBeNil)
			So(h, ShouldEqual, "Bearer first")

			h, err = c.Header(context.Background())
			So(err, ShouldBeNil)
			So(h, ShouldEqual, "Bearer first")
			So(atomic.LoadInt32(&calls), ShouldEqual, 1)
		})

		Convey("It refreshes five minutes before expiry", func() {
			c.Header(context.Background())

			now = now.Add(3600*time.Second - 299*time.Second)
			h, err := c.Header(context.Background())
			So(err, ShouldBeNil)
			So(h, ShouldEqual, "Bearer second")
		})

		Convey("Reset drops the token", func() {
			c.Header(context.Background())
			c.Reset()

			h, _ := c.Header(context.Background())
			So(h, ShouldEqual, "Bearer second")
		})

		Convey("Bad credentials are an error", func() {
			bad := New(srv.URL, "id", "wrong")
			_, err := bad.Header(context.Background())
			So(err, ShouldNotBeNil)
		})
	})
}
