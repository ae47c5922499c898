package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core"
	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core/roster"
)

type rosterApi struct {
	svc    roster.Service
	logger core.Logger
}

func registerRosterAPI(g *echo.Group, svc roster.Service, logger core.Logger) {
	api := rosterApi{svc: svc, logger: logger}

	g.GET("/classes", api.classes)

	sg := g.Group("/students")
	sg.GET("", api.query)
	sg.GET("/count", api.count)
	sg.DELETE("/count", api.invalidateCount, principalMiddleware)
	sg.GET("/:id", api.retrieve)
}

// Handlers

func (api *rosterApi) query(ctx echo.Context) error {
	var filter roster.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	var err error
	if filter.Class, err = scopedClass(ctx, filter.Class); err != nil {
		return err
	}
	students, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *rosterApi) retrieve(ctx echo.Context) error {
	student, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if _, err := scopedClass(ctx, student.Class); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, student)
}

func (api *rosterApi) classes(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if !claims.IsPrincipal() {
		return ctx.JSON(http.StatusOK, []string{claims.Class})
	}
	classes, err := api.svc.Classes(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, classes)
}

// count answers with the cached size even when the refresh failed; the state tells clients how
// far to trust it.
func (api *rosterApi) count(ctx echo.Context) error {
	class, err := scopedClass(ctx, ctx.QueryParam("class"))
	if err != nil {
		return err
	}
	count, err := api.svc.Count(ctx.Request().Context(), class)
	if err != nil {
		claims, _ := getContextClaims(ctx)
		api.logger.Warn("counting students of "+count.Class, err, claims.Actor())
	}
	return ctx.JSON(http.StatusOK, count)
}

func (api *rosterApi) invalidateCount(ctx echo.Context) error {
	var classes []string
	if class := core.CollapseSpaces(ctx.QueryParam("class")); class != "" {
		classes = append(classes, class)
	}
	if err := api.svc.InvalidateCount(ctx.Request().Context(), classes...); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
