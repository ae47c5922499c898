package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core/attendance"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core/report"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core/roster"
)

type attendanceApi struct {
	svc     attendance.Service
	roster  roster.Service
	nowFunc func() time.Time
}

func registerAttendanceAPI(g *echo.Group, svc attendance.Service, rosterSvc roster.Service, nowFunc func() time.Time) {
	api := attendanceApi{svc: svc, roster: rosterSvc, nowFunc: nowFunc}

	ag := g.Group("/attendance")
	ag.POST("", api.submit)
	ag.GET("", api.query)
	ag.GET("/status", api.status)
	ag.GET("/summary", api.summary)
	ag.GET("/summary/range", api.summaryRange)
	ag.GET("/absentees", api.absentees)
	ag.GET("/low", api.lowAttendance)
	ag.GET("/overview", api.overview, principalMiddleware)
}

type (
	classDateParams struct {
		Class string `query:"class"`
		Date  string `query:"date"`
	}

	rangeParams struct {
		Class string `query:"class"`
		From  string `query:"from"`
		To    string `query:"to"`
	}
)

// Handlers

func (api *attendanceApi) submit(ctx echo.Context) error {
	var data attendance.NewSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if data.Class, err = scopedClass(ctx, data.Class); err != nil {
		return err
	}

	// teachers record today's sheet once, while the window is open
	if !claims.IsPrincipal() {
		status, err := api.svc.SubmissionStatus(ctx.Request().Context(), data.Class, api.nowFunc())
		if err != nil {
			return err
		}
		data.Date = core.CleanString(data.Date)
		if data.Date != "" && data.Date != status.Date {
			return errBackfillForbidden
		}
		if status.State != attendance.GateAllowed {
			return errWindowClosed
		}
		if status.AlreadySubmitted {
			return errAlreadySubmitted
		}
		data.Date = status.Date
		if err = api.checkEnrollment(ctx, data); err != nil {
			return err
		}
	}

	res, err := api.svc.Submit(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	code := http.StatusCreated
	if res.Recorded == 0 {
		code = http.StatusOK
	}
	return ctx.JSON(code, res)
}

// checkEnrollment rejects students the roster places in another class. Classes without roster
// entries are not checked.
func (api *attendanceApi) checkEnrollment(ctx echo.Context, data attendance.NewSubmission) error {
	enrolled, err := api.roster.Query(ctx.Request().Context(), roster.QueryFilter{Class: data.Class})
	if err != nil {
		return err
	}
	if len(enrolled) == 0 {
		return nil
	}
	ids := make(map[string]bool, len(enrolled))
	for _, s := range enrolled {
		ids[s.ID] = true
	}
	for _, s := range data.Students {
		if id := core.CleanString(s.StudentID); id != "" && !ids[id] {
			return core.NewValidationError(nil, core.FieldError{
				Field: "students",
				Error: "student " + id + " is not enrolled in " + core.CollapseSpaces(data.Class),
			})
		}
	}
	return nil
}

func (api *attendanceApi) status(ctx echo.Context) error {
	class, err := scopedClass(ctx, ctx.QueryParam("class"))
	if err != nil {
		return err
	}
	if class == "" {
		return errClassRequired
	}
	status, err := api.svc.SubmissionStatus(ctx.Request().Context(), class, api.nowFunc())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, status)
}

func (api *attendanceApi) query(ctx echo.Context) error {
	var filter attendance.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	var err error
	if filter.Class, err = scopedClass(ctx, filter.Class); err != nil {
		return err
	}
	var ord Ordering
	ord.Bind(ctx)

	records, err := api.svc.Records(ctx.Request().Context(), filter, ord.Orderings)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *attendanceApi) summary(ctx echo.Context) error {
	var params classDateParams
	if err := ctx.Bind(&params); err != nil {
		return errors.Wrap(err, "binding to classDateParams")
	}
	class, err := scopedClass(ctx, params.Class)
	if err != nil {
		return err
	}
	sum, err := api.svc.Summarize(ctx.Request().Context(), class, params.Date)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sum)
}

func (api *attendanceApi) summaryRange(ctx echo.Context) error {
	var params rangeParams
	if err := ctx.Bind(&params); err != nil {
		return errors.Wrap(err, "binding to rangeParams")
	}
	class, err := scopedClass(ctx, params.Class)
	if err != nil {
		return err
	}
	sum, err := api.svc.SummarizeRange(ctx.Request().Context(), class, params.From, params.To)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sum)
}

func (api *attendanceApi) overview(ctx echo.Context) error {
	summaries, err := api.svc.ClassOverview(ctx.Request().Context(), ctx.QueryParam("date"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, summaries)
}

func (api *attendanceApi) absentees(ctx echo.Context) error {
	var params classDateParams
	if err := ctx.Bind(&params); err != nil {
		return errors.Wrap(err, "binding to classDateParams")
	}
	class, err := scopedClass(ctx, params.Class)
	if err != nil {
		return err
	}
	records, err := api.svc.Absentees(ctx.Request().Context(), class, params.Date)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, records)
}

// lowAttendance defaults to the month before the current one.
func (api *attendanceApi) lowAttendance(ctx echo.Context) error {
	class, err := scopedClass(ctx, ctx.QueryParam("class"))
	if err != nil {
		return err
	}
	defMonth, defYear := report.PreviousMonth(api.nowFunc(), api.svc.Location())
	month, err := intParam(ctx, "month", int(defMonth))
	if err != nil {
		return err
	}
	year, err := intParam(ctx, "year", defYear)
	if err != nil {
		return err
	}

	students, err := api.svc.LowAttendance(ctx.Request().Context(), time.Month(month), year, class)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, students)
}
