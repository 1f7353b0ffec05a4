// Package controllers handles HTTP request handling
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	authz "github.com/mirea/edupulse/internal/app/auth"
	"github.com/mirea/edupulse/internal/app/models"
	"github.com/mirea/edupulse/internal/app/models/dto"
	"github.com/mirea/edupulse/internal/middleware"
	"github.com/mirea/edupulse/internal/pkg/helpers"
)

func respondBadRequest(ctx *gin.Context, message string, details interface{}) {
	errorDetail := dto.NewErrorDetail(dto.ErrorCodeBadRequest, message)
	if details != nil {
		errorDetail = errorDetail.WithDetails(details)
	}
	ctx.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
}

// requireActor returns the caller set by JWTAuth, or writes a 401.
func requireActor(ctx *gin.Context) (authz.Actor, bool) {
	actor, ok := middleware.GetActor(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return authz.Actor{}, false
	}
	return actor, true
}

// pathID parses a positive id path parameter, or writes a 400.
func pathID(ctx *gin.Context, name string) (int64, bool) {
	id, ok := helpers.ParseIDParam(ctx, name)
	if !ok {
		respondBadRequest(ctx, "Invalid "+name, "must be a positive integer")
		return 0, false
	}
	return id, true
}

// optionalIDQuery parses an optional positive id query parameter.
func optionalIDQuery(ctx *gin.Context, key string) (*int64, bool) {
	raw := ctx.Query(key)
	if raw == "" {
		return nil, true
	}
	ids, ok := helpers.ParseIDList(raw)
	if !ok || len(ids) != 1 {
		respondBadRequest(ctx, "Invalid "+key, "must be a positive integer")
		return nil, false
	}
	return &ids[0], true
}

// dateRangeQuery reads the optional from/to query parameters.
func dateRangeQuery(ctx *gin.Context) (models.DateRange, bool) {
	from, err := helpers.ParseDateQuery(ctx, "from")
	if err != nil {
		respondBadRequest(ctx, "Invalid date range", err.Error())
		return models.DateRange{}, false
	}
	to, err := helpers.ParseDateQuery(ctx, "to")
	if err != nil {
		respondBadRequest(ctx, "Invalid date range", err.Error())
		return models.DateRange{}, false
	}
	if from != nil && to != nil && to.Before(*from) {
		respondBadRequest(ctx, "Invalid date range", "to must not be before from")
		return models.DateRange{}, false
	}
	return models.DateRange{From: from, To: to}, true
}

// groupsQuery accepts both ?group=A&group=B and ?groups=A,B.
func groupsQuery(ctx *gin.Context, keys ...string) []string {
	var out []string
	for _, key := range keys {
		for _, v := range ctx.QueryArray(key) {
			out = append(out, helpers.SplitList(v)...)
		}
	}
	return out
}
