package endpoints

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/iqamah/internal/calendar"
	"github.com/Nixie-Tech-LLC/iqamah/internal/http/api"
	"github.com/Nixie-Tech-LLC/iqamah/internal/http/api/admin/control/packets"
	"github.com/Nixie-Tech-LLC/iqamah/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/iqamah/internal/model"
	"github.com/Nixie-Tech-LLC/iqamah/internal/store"
	"github.com/Nixie-Tech-LLC/iqamah/internal/timetable"
)

type CalendarController struct {
	writer store.Writer
	svc    *timetable.Service
}

// CalendarModule mounts authenticated calendar uploads. A successful upload
// clears the timetable caches so the next read sees the new document.
func CalendarModule(writer store.Writer, svc *timetable.Service) api.Module {
	ctl := &CalendarController{writer: writer, svc: svc}
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUT("/mosques/:slug/monthly/:year/:month", ctl.putMonthly)
		c.PUT("/mosques/:slug/ramadan", ctl.putRamadan)
	})
}

// uploadError maps document and write failures; bad documents are the caller's fault.
func uploadError(err error) *api.APIError {
	switch {
	case errors.Is(err, calendar.ErrValidation):
		return api.BadRequest(err.Error())
	case errors.Is(err, store.ErrReadOnly):
		return &api.APIError{Code: http.StatusConflict, Message: err.Error()}
	}
	return api.FromError(err)
}

func (cc *CalendarController) invalidate(ctx *gin.Context) {
	for _, c := range cc.svc.Caches() {
		if err := c.Clear(ctx.Request.Context()); err != nil {
			log.Warn().Err(err).Str("cache", c.Name()).Msg("cache clear after upload failed")
		}
	}
}

// PUT /api/admin/mosques/:slug/monthly/:year/:month
func (cc *CalendarController) putMonthly(ctx *gin.Context, admin *middleware.Admin) (any, *api.APIError) {
	year, err := strconv.Atoi(ctx.Param("year"))
	if err != nil {
		return nil, api.BadRequest("year must be a number")
	}
	month := strings.ToLower(ctx.Param("month"))
	slug, err := calendar.ValidateMonthly(ctx.Param("slug"), month, year)
	if err != nil {
		return nil, uploadError(err)
	}

	var doc model.MonthlyPrayerTimes
	if err := ctx.ShouldBindJSON(&doc); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	if len(doc.PrayerTimes) == 0 {
		return nil, api.BadRequest("prayer_times must not be empty")
	}
	if _, err := timetable.NewMonthlyCalendar(doc); err != nil {
		return nil, api.BadRequest(err.Error())
	}

	if err := cc.writer.PutMonthly(ctx.Request.Context(), slug, month, year, doc); err != nil {
		return nil, uploadError(err)
	}
	cc.invalidate(ctx)

	log.Info().Str("admin", admin.Subject).Str("slug", slug).Str("month", month).Int("year", year).Msg("monthly calendar uploaded")
	return packets.CalendarUploadResponse{Slug: slug, Kind: timetable.SourceMonthly, Month: month, Year: year, Stored: true}, nil
}

// PUT /api/admin/mosques/:slug/ramadan
func (cc *CalendarController) putRamadan(ctx *gin.Context, admin *middleware.Admin) (any, *api.APIError) {
	slug, err := calendar.NormalizeSlug(ctx.Param("slug"))
	if err != nil {
		return nil, uploadError(err)
	}

	var doc model.RamadanTimetable
	if err := ctx.ShouldBindJSON(&doc); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	cal, err := timetable.NewRamadanCalendar(doc, cc.svc.Location())
	if err != nil {
		return nil, api.BadRequest(err.Error())
	}
	if cal.End.Before(cal.Start) {
		return nil, api.BadRequest("gregorian_end before gregorian_start")
	}

	if err := cc.writer.PutRamadan(ctx.Request.Context(), slug, doc); err != nil {
		return nil, uploadError(err)
	}
	cc.invalidate(ctx)

	log.Info().Str("admin", admin.Subject).Str("slug", slug).Str("range", cal.Range()).Msg("ramadan calendar uploaded")
	return packets.CalendarUploadResponse{Slug: slug, Kind: timetable.SourceRamadan, Range: cal.Range(), Stored: true}, nil
}
