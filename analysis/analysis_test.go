package analysis

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"text/template"

	"wow_check/cache"
	"wow_check/season"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

type staticAuth struct {
	resets int32
}

func (a *staticAuth) Header(ctx context.Context) (string, error) { return "Bearer token", nil }
func (a *staticAuth) Reset()                                     { atomic.AddInt32(&a.resets, 1) }

func TestClientExecute(t *testing.T) {
	Convey("Given a GraphQL endpoint", t, func() {
		status := http.StatusOK
		body := `{"data":{"ok":true}}`

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer token" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			var req graphQLRequest
			if err := jsoniter.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.WriteHeader(status)
			w.Write([]byte(body))
		}))
		defer srv.Close()

		auth := &staticAuth{}
		c := NewClient(srv.URL, auth)

		Convey("The data member is returned", func() {
			data, err := c.Execute(context.Background(), "{ ok }", nil)
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual, `{"ok":true}`)
		})

		Convey("GraphQL errors are transport errors", func() {
			body = `{"data":null,"errors":[{"message":"bad field"}]}`

			_, err := c.Execute(context.Background(), "{ ok }", nil)
			So(IsTransportError(err), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "bad field")
			So(retryable(err), ShouldBeFalse)
		})

		Convey("Non success statuses are transport errors", func() {
			status = http.StatusInternalServerError
			body = `oops`

			_, err := c.Execute(context.Background(), "{ ok }", nil)
			So(IsTransportError(err), ShouldBeTrue)
			So(retryable(err), ShouldBeTrue)
		})

		Convey("Unauthorized resets the credential", func() {
			status = http.StatusUnauthorized
			body = `{}`

			_, err := c.Execute(context.Background(), "{ ok }", nil)
			So(IsTransportError(err), ShouldBeTrue)
			So(atomic.LoadInt32(&auth.resets), ShouldEqual, 1)
		})
	})
}

func TestCaller(t *testing.T) {
	Convey("Given a caller over a fake executor", t, func() {
		var calls int32
		fail := 0
		exec := ExecutorFunc(func(ctx context.Context, query string, variables map[string]interface{}) ([]byte, error) {
			n := atomic.AddInt32(&calls, 1)
			if int(n) <= fail {
				return nil, errors.New("connection reset")
			}
			return []byte(`{"value":"` + query + `"}`), nil
		})

		cs, err := cache.NewStorage(t.TempDir(), 0)
		So(err, ShouldBeNil)

		c := NewCaller(exec, cs)
		c.retryWait = 0

		var resp struct {
			Value string `json:"value"`
		}

		Convey("The template is rendered and the response decoded", func() {
			tmpl := template.Must(template.New("Character").Parse(`q{{ . }}`))

			So(c.CallGraphQL(context.Background(), tmpl, 7, &resp), ShouldBeNil)
			So(resp.Value, ShouldEqual, "q7")
		})

		Convey("Report queries are cached", func() {
			tmpl := template.Must(template.New("ReportTables").Parse(`r{{ . }}`))

			So(c.CallGraphQL(context.Background(), tmpl, 1, &resp), ShouldBeNil)
			So(c.CallGraphQL(context.Background(), tmpl, 1, &resp), ShouldBeNil)
			So(resp.Value, ShouldEqual, "r1")
			So(atomic.LoadInt32(&calls), ShouldEqual, 1)
		})

		Convey("Other queries are not cached", func() {
			tmpl := template.Must(template.New("Character").Parse(`c`))

			c.CallGraphQL(context.Background(), tmpl, nil, &resp)
			c.CallGraphQL(context.Background(), tmpl, nil, &resp)
			So(atomic.LoadInt32(&calls), ShouldEqual, 2)
		})

		Convey("Network errors are retried", func() {
			fail = 2
			tmpl := template.Must(template.New("Character").Parse(`c`))

			So(c.CallGraphQL(context.Background(), tmpl, nil, &resp), ShouldBeNil)
			So(atomic.LoadInt32(&calls), ShouldEqual, 3)
		})

		Convey("Retries give up after three attempts", func() {
			fail = 5
			tmpl := template.Must(template.New("Character").Parse(`c`))

			So(c.CallGraphQL(context.Background(), tmpl, nil, &resp), ShouldNotBeNil)
			So(atomic.LoadInt32(&calls), ShouldEqual, 3)
		})
	})
}

func TestRequestData(t *testing.T) {
	Convey("Given lookup requests", t, func() {
		Convey("A valid request is normalized", func() {
			rd := RequestData{CharName: " 테스트 ", CharServer: " Azshara ", CharRegion: "KR"}

			So(rd.CheckOptionValidation(season.Default), ShouldBeTrue)
			So(rd.CharName, ShouldEqual, "테스트")
			So(rd.CharServer, ShouldEqual, "azshara")
			So(rd.CharRegion, ShouldEqual, "kr")
			So(rd.Zones, ShouldResemble, []int{38, 42, 44})
		})

		Convey("Unknown zones and regions are rejected", func() {
			rd := RequestData{CharName: "Tester", CharServer: "azshara", CharRegion: "kr", Zones: []int{1}}
			So(rd.CheckOptionValidation(season.Default), ShouldBeFalse)

			rd = RequestData{CharName: "Tester", CharServer: "azshara", CharRegion: "xx"}
			So(rd.CheckOptionValidation(season.Default), ShouldBeFalse)

			rd = RequestData{CharName: "T", CharServer: "azshara"}
			So(rd.CheckOptionValidation(season.Default), ShouldBeFalse)
		})

		Convey("Repeated zones are checked once", func() {
			rd := RequestData{CharName: "Tester", CharServer: "azshara", Zones: []int{38, 38, 42, 38}}

			So(rd.CheckOptionValidation(season.Default), ShouldBeTrue)
			So(rd.Zones, ShouldResemble, []int{38, 42})

			same := RequestData{CharName: "Tester", CharServer: "azshara", Zones: []int{42, 38}}
			So(same.CheckOptionValidation(season.Default), ShouldBeTrue)
			So(rd.Hash(), ShouldEqual, same.Hash())
		})

		Convey("The hash ignores case and zone order", func() {
			a := RequestData{CharName: "Tester", CharServer: "Azshara", CharRegion: "kr", Zones: []int{42, 38}}
			b := RequestData{CharName: "tester", CharServer: "azshara", CharRegion: "KR", Zones: []int{38, 42}}
			c := RequestData{CharName: "tester", CharServer: "azshara", CharRegion: "kr", Zones: []int{38}}

			So(a.Hash(), ShouldEqual, b.Hash())
			So(a.Hash(), ShouldNotEqual, c.Hash())
		})
	})
}

func TestTable(t *testing.T) {
	Convey("Given a decoded table", t, func() {
		var tbl Table
		err := jsoniter.Unmarshal([]byte(`{"data":{"auras":[
			{"name":"Tester","totalUses":3,"bands":[{"startTime":1000,"endTime":3000},{"startTime":5000,"endTime":5500}]}
		]}}`), &tbl)
		So(err, ShouldBeNil)

		n, ok := tbl.AuraUses("tester")
		So(ok, ShouldBeTrue)
		So(n, ShouldEqual, 3)

		_, ok = tbl.AuraUses("other")
		So(ok, ShouldBeFalse)

		So(tbl.Auras()[0].Duration(), ShouldEqual, 2.5)
		So(tbl.Entries(), ShouldBeEmpty)

		var empty *Table
		So(empty.Auras(), ShouldBeNil)
	})
}
