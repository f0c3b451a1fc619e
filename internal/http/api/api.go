package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/iqamah/internal/calendar"
	"github.com/Nixie-Tech-LLC/iqamah/internal/fetch"
	"github.com/Nixie-Tech-LLC/iqamah/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/iqamah/internal/iqamah"
	"github.com/Nixie-Tech-LLC/iqamah/internal/store"
	"github.com/Nixie-Tech-LLC/iqamah/internal/timetable"
)

// CodeRamadanOnly marks a 404 for a mosque that only publishes Ramadan times.
const CodeRamadanOnly = "RAMADAN_ONLY"

type APIError struct {
	Code    int
	Message string
	// Kind and Range are only set for RAMADAN_ONLY responses.
	Kind  string
	Range string
}

func (e *APIError) body() gin.H {
	h := gin.H{"error": e.Message}
	if e.Kind != "" {
		h["code"] = e.Kind
	}
	if e.Range != "" {
		h["range"] = e.Range
	}
	return h
}

type HandlerFuncWithAuth func(ctx *gin.Context, admin *middleware.Admin) (any, *APIError)
type HandlerFunc func(ctx *gin.Context) (any, *APIError)

// WriteError sends e for handlers that write their own responses.
func WriteError(ctx *gin.Context, e *APIError) {
	ctx.AbortWithStatusJSON(e.Code, e.body())
}

func BadRequest(msg string) *APIError {
	return &APIError{Code: http.StatusBadRequest, Message: msg}
}

// FromError maps resolution errors onto HTTP statuses.
func FromError(err error) *APIError {
	if r, ok := timetable.IsRamadanOnly(err); ok {
		return &APIError{
			Code:    http.StatusNotFound,
			Message: "timetable only available during Ramadan",
			Kind:    CodeRamadanOnly,
			Range:   r,
		}
	}

	var status *fetch.StatusError
	switch {
	case errors.Is(err, calendar.ErrValidation):
		return &APIError{Code: http.StatusBadRequest, Message: err.Error()}
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, iqamah.ErrNoRange),
		errors.Is(err, timetable.ErrNoPrayerRow):
		return &APIError{Code: http.StatusNotFound, Message: "data not available"}
	case errors.Is(err, iqamah.ErrMalformedRule), errors.As(err, &status):
		log.Error().Err(err).Msg("calendar source returned unusable data")
		return &APIError{Code: http.StatusBadGateway, Message: "data not available"}
	}
	log.Error().Err(err).Msg("unhandled error")
	return &APIError{Code: http.StatusInternalServerError, Message: "internal error"}
}

func ResolveEndpointWithAuth(h HandlerFuncWithAuth) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		admin, ok := middleware.GetCurrentAdmin(ctx)
		if !ok {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		result, apiErr := h(ctx, admin)
		if apiErr != nil {
			ctx.JSON(apiErr.Code, apiErr.body())
			return
		}

		ctx.JSON(http.StatusOK, result)
	}
}

func ResolveEndpoint(h HandlerFunc) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		result, apiErr := h(ctx)
		if apiErr != nil {
			ctx.JSON(apiErr.Code, apiErr.body())
			return
		}

		ctx.JSON(http.StatusOK, result)
	}
}
