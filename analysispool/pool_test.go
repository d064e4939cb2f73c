package analysispool_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"wow_check/analysis"
	"wow_check/analysis/lookup"
	"wow_check/analysispool"
	"wow_check/cache"
	"wow_check/season"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	. "github.com/smartystreets/goconvey/convey"
)

type event struct {
	Event string              `json:"event"`
	Data  jsoniter.RawMessage `json:"data"`
}

func names(events []event) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.Event
	}
	return out
}

func TestPool(t *testing.T) {
	Convey("Given a running pool", t, func() {
		var calls int32
		fn := func(ctx context.Context, req analysis.RequestData, progress func(string)) (*lookup.Result, error) {
			atomic.AddInt32(&calls, 1)
			progress("working")
			return &lookup.Result{State: lookup.StateOK, CharName: req.CharName, CharServer: req.CharServer}, nil
		}

		cs, err := cache.NewStorage(t.TempDir(), time.Minute)
		So(err, ShouldBeNil)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		p := analysispool.New(season.Default, fn, cs)
		p.Start(ctx, 1)

		srv := httptest.NewServer(http.HandlerFunc(p.Handler))
		defer srv.Close()
		url := "ws" + strings.TrimPrefix(srv.URL, "http")

		request := func(body string) []event {
			ws, _, err := websocket.DefaultDialer.Dial(url, nil)
			So(err, ShouldBeNil)
			defer ws.Close()

			So(ws.WriteMessage(websocket.TextMessage, []byte(body)), ShouldBeNil)

			var events []event
			for {
				_, b, err := ws.ReadMessage()
				if err != nil {
					break
				}
				var ev event
				So(jsoniter.Unmarshal(b, &ev), ShouldBeNil)
				events = append(events, ev)
			}
			return events
		}

		Convey("A lookup walks through the queue events", func() {
			events := request(`{"char_name":"Tester","char_server":"Azshara","char_region":"kr"}`)
			So(names(events), ShouldResemble, []string{"ready", "waiting", "start", "progress", "complete"})
			So(string(events[1].Data), ShouldEqual, "1")

			var res lookup.Result
			So(jsoniter.Unmarshal(events[4].Data, &res), ShouldBeNil)
			So(res.CharName, ShouldEqual, "Tester")
			So(res.CharServer, ShouldEqual, "azshara")

			Convey("The same lookup is answered from the cache", func() {
				events := request(`{"char_name":"tester","char_server":"azshara"}`)
				So(names(events), ShouldResemble, []string{"ready", "complete"})
				So(atomic.LoadInt32(&calls), ShouldEqual, 1)
			})
		})

		Convey("An invalid request is rejected", func() {
			events := request(`{"char_name":"x","char_server":"azshara"}`)
			So(names(events), ShouldResemble, []string{"ready", "error"})
			So(atomic.LoadInt32(&calls), ShouldEqual, 0)
		})

		Convey("Direct lookups share the workers and the cache", func() {
			req := analysis.RequestData{CharName: "Tester", CharServer: "Azshara"}

			res, err := p.Do(ctx, req)
			So(err, ShouldBeNil)
			So(res.CharServer, ShouldEqual, "azshara")

			res, err = p.Do(ctx, analysis.RequestData{CharName: "tester", CharServer: "azshara"})
			So(err, ShouldBeNil)
			So(res.CharName, ShouldEqual, "Tester")
			So(atomic.LoadInt32(&calls), ShouldEqual, 1)

			Convey("and the websocket path finds the same result", func() {
				events := request(`{"char_name":"Tester","char_server":"azshara"}`)
				So(names(events), ShouldResemble, []string{"ready", "complete"})
				So(atomic.LoadInt32(&calls), ShouldEqual, 1)
			})
		})

		Convey("Invalid direct lookups never reach a worker", func() {
			_, err := p.Do(ctx, analysis.RequestData{CharName: "x", CharServer: "azshara"})
			So(err, ShouldEqual, lookup.ErrInvalidRequest)
			So(atomic.LoadInt32(&calls), ShouldEqual, 0)
		})

		Convey("A failed captcha is rejected", func() {
			p.Captcha = func(ip, token string) bool { return token == "ok" }

			events := request(`{"char_name":"Tester","char_server":"azshara","captcha":"bad"}`)
			So(names(events), ShouldResemble, []string{"ready", "error"})
		})
	})
}
