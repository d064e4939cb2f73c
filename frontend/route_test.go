package frontend_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"wow_check/analysis"
	"wow_check/analysis/lookup"
	"wow_check/analysispool"
	"wow_check/cache"
	"wow_check/frontend"
	"wow_check/season"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)

	Convey("Given the routes", t, func() {
		dir := t.TempDir()
		So(os.WriteFile(filepath.Join(dir, "index.htm"), []byte("<html>index</html>"), 0o644), ShouldBeNil)

		q := analysis.NewCaller(analysis.ExecutorFunc(func(ctx context.Context, query string, _ map[string]interface{}) ([]byte, error) {
			if strings.Contains(query, "zoneRankings") {
				return []byte(`{"characterData":{"character":{"name":"Tester","classID":8,"zone42":{"rankings":[]}}}}`), nil
			}
			return []byte(`{"characterData":{"character":null}}`), nil
		}), nil)

		o := frontend.Options{
			StaticDir: dir,
			Querier:   q,
			Preset:    season.Default,
		}

		serve := func(method, target, body string) *httptest.ResponseRecorder {
			g := gin.New()
			frontend.Route(g, o)

			w := httptest.NewRecorder()
			r := httptest.NewRequest(method, target, strings.NewReader(body))
			g.ServeHTTP(w, r)
			return w
		}

		Convey("The index page is served", func() {
			w := serve(http.MethodGet, "/", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "index")
		})

		Convey("Unknown paths go back to the index", func() {
			w := serve(http.MethodGet, "/nothing", "")
			So(w.Code, ShouldEqual, http.StatusTemporaryRedirect)
			So(w.Header().Get("Location"), ShouldEqual, "/")
		})

		Convey("A lookup of a missing character reports not found", func() {
			w := serve(http.MethodPost, "/api/lookup", `{"char_name":"Tester","char_server":"azshara","zones":[42]}`)
			So(w.Code, ShouldEqual, http.StatusOK)

			var res lookup.Result
			So(jsoniter.Unmarshal(w.Body.Bytes(), &res), ShouldBeNil)
			So(res.State, ShouldEqual, lookup.StateNotFound)
		})

		Convey("An invalid lookup is rejected", func() {
			w := serve(http.MethodPost, "/api/lookup", `{"char_name":"x","char_server":"azshara"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldContainSubstring, "invalid")
		})

		Convey("The clear status is counted per zone", func() {
			w := serve(http.MethodGet, "/api/status?name=Tester&server=azshara&zones=42", "")
			So(w.Code, ShouldEqual, http.StatusOK)

			var cs lookup.ClearStatus
			So(jsoniter.Unmarshal(w.Body.Bytes(), &cs), ShouldBeNil)
			So(cs.Zones, ShouldHaveLength, 1)
			So(cs.Zones[0].Killed, ShouldEqual, 0)
			So(cs.Zones[0].FullClear, ShouldBeFalse)
		})

		Convey("A bad zone list is rejected", func() {
			w := serve(http.MethodGet, "/api/status?name=Tester&server=azshara&zones=x", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("A failed captcha is rejected", func() {
			o.Captcha = func(ip, token string) bool { return false }

			w := serve(http.MethodPost, "/api/lookup", `{"char_name":"Tester","char_server":"azshara"}`)
			So(w.Code, ShouldEqual, http.StatusForbidden)
		})

		Convey("With a pool, lookups run on its workers and are cached", func() {
			var calls int32
			fn := func(ctx context.Context, req analysis.RequestData, progress func(string)) (*lookup.Result, error) {
				atomic.AddInt32(&calls, 1)
				return &lookup.Result{State: lookup.StateOK, CharName: req.CharName}, nil
			}
			cs, err := cache.NewStorage(t.TempDir(), time.Minute)
			So(err, ShouldBeNil)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			o.Pool = analysispool.New(season.Default, fn, cs)
			o.Pool.Start(ctx, 1)

			for i := 0; i < 2; i++ {
				w := serve(http.MethodPost, "/api/lookup", `{"char_name":"Tester","char_server":"azshara"}`)
				So(w.Code, ShouldEqual, http.StatusOK)

				var res lookup.Result
				So(jsoniter.Unmarshal(w.Body.Bytes(), &res), ShouldBeNil)
				So(res.State, ShouldEqual, lookup.StateOK)
			}
			So(atomic.LoadInt32(&calls), ShouldEqual, 1)
		})

		Convey("Metrics are exposed", func() {
			w := serve(http.MethodGet, "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "wowcheck_queue_length")
		})
	})
}

func TestNewCaptcha(t *testing.T) {
	Convey("An empty secret disables the captcha", t, func() {
		So(frontend.NewCaptcha(""), ShouldBeNil)
	})
}
