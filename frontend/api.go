package frontend

import (
	"net/http"
	"strconv"
	"strings"

	"wow_check/analysis"
	"wow_check/analysis/lookup"
	"wow_check/share"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

type api struct {
	o Options
}

type apiError struct {
	Error string `json:"error"`
}

func (a *api) writeJSON(c *gin.Context, code int, v interface{}) {
	b, err := jsoniter.Marshal(v)
	if err != nil {
		share.Report(errors.WithStack(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(code, "application/json; charset=utf-8", b)
}

func (a *api) checkCaptcha(c *gin.Context, token string) bool {
	if a.o.Captcha == nil || a.o.Captcha(c.ClientIP(), token) {
		return true
	}
	a.writeJSON(c, http.StatusForbidden, apiError{"captcha"})
	return false
}

// POST /api/lookup with a RequestData body.
func (a *api) lookup(c *gin.Context) {
	var req analysis.RequestData
	if err := jsoniter.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		a.writeJSON(c, http.StatusBadRequest, apiError{"invalid"})
		return
	}
	if !a.checkCaptcha(c, req.Captcha) {
		return
	}

	var res *lookup.Result
	var err error
	if a.o.Pool != nil {
		res, err = a.o.Pool.Do(c.Request.Context(), req)
	} else {
		res, err = lookup.Do(c.Request.Context(), a.o.Querier, a.o.Preset, req, nil)
	}
	switch {
	case share.IsContextClosedError(err):
		c.Status(http.StatusServiceUnavailable)
	case err == lookup.ErrInvalidRequest:
		a.writeJSON(c, http.StatusBadRequest, apiError{"invalid"})
	case err != nil:
		share.Report(err)
		a.writeJSON(c, http.StatusBadGateway, apiError{"failed"})
	default:
		a.writeJSON(c, http.StatusOK, res)
	}
}

// GET /api/status?name=&server=&region=&zones=38,42
func (a *api) status(c *gin.Context) {
	req := analysis.RequestData{
		CharName:   c.Query("name"),
		CharServer: c.Query("server"),
		CharRegion: c.Query("region"),
		Captcha:    c.Query("captcha"),
	}
	if zones := c.Query("zones"); zones != "" {
		for _, s := range strings.Split(zones, ",") {
			zone, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil {
				a.writeJSON(c, http.StatusBadRequest, apiError{"invalid"})
				return
			}
			req.Zones = append(req.Zones, zone)
		}
	}
	if !a.checkCaptcha(c, req.Captcha) {
		return
	}

	cs, err := lookup.Status(c.Request.Context(), a.o.Querier, a.o.Preset, req)
	switch {
	case err == lookup.ErrInvalidRequest:
		a.writeJSON(c, http.StatusBadRequest, apiError{"invalid"})
	case err != nil:
		share.Report(err)
		a.writeJSON(c, http.StatusBadGateway, apiError{"failed"})
	default:
		a.writeJSON(c, http.StatusOK, cs)
	}
}
