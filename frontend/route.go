// Package frontend serves the result page, the websocket queue and the JSON
// api.
package frontend

import (
	"net/http"
	"path/filepath"

	"wow_check/analysis"
	"wow_check/analysispool"
	"wow_check/season"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Options struct {
	// directory holding index.htm and static/
	StaticDir string

	// runs /api/lookup when set, Querier is used directly otherwise
	Pool    *analysispool.Pool
	Querier analysis.Querier
	Preset  *season.Preset

	// nil disables the check on /api routes
	Captcha analysispool.CaptchaFunc
}

func Route(g *gin.Engine, o Options) {
	dir := o.StaticDir
	if dir == "" {
		dir = "./frontend/public"
	}

	g.Use(gin.ErrorLogger())
	g.Use(gin.Recovery())

	g.Static("/static", filepath.Join(dir, "static"))

	g.NoMethod(func(c *gin.Context) { c.Redirect(http.StatusTemporaryRedirect, "/") })
	g.NoRoute(func(c *gin.Context) { c.Redirect(http.StatusTemporaryRedirect, "/") })

	g.StaticFile("/", filepath.Join(dir, "index.htm"))

	if o.Pool != nil {
		g.GET("/analysis", gin.WrapF(o.Pool.Handler))
	}

	a := &api{o}
	g.POST("/api/lookup", a.lookup)
	g.GET("/api/status", a.status)

	g.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
