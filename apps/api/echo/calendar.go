package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core/academic"
)

type calendarApi struct {
	conf    *core.Config
	nowFunc func() time.Time
}

func registerCalendarAPI(g *echo.Group, conf *core.Config, nowFunc func() time.Time) {
	api := calendarApi{conf: conf, nowFunc: nowFunc}
	g.GET("/calendar/months", api.months)
}

func (api *calendarApi) sessionStartYear() int {
	if api.conf.Attendance.SessionStartYear > 0 {
		return api.conf.Attendance.SessionStartYear
	}
	return academic.SessionStartYear(api.nowFunc().In(api.conf.Location()))
}

func (api *calendarApi) months(ctx echo.Context) error {
	year, err := intParam(ctx, "start_year", api.sessionStartYear())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, academic.Months(year))
}
