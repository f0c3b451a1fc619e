package endpoints

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/iqamah/internal/calendar"
	"github.com/Nixie-Tech-LLC/iqamah/internal/countdown"
	"github.com/Nixie-Tech-LLC/iqamah/internal/http/api"
	"github.com/Nixie-Tech-LLC/iqamah/internal/http/api/mosques/packets"
	"github.com/Nixie-Tech-LLC/iqamah/internal/iqamah"
	"github.com/Nixie-Tech-LLC/iqamah/internal/model"
	"github.com/Nixie-Tech-LLC/iqamah/internal/timetable"
)

// Registry lists mosques. *store.Chain satisfies it.
type Registry interface {
	Mosques(ctx context.Context) ([]model.Mosque, error)
	Mosque(ctx context.Context, slug string, includeHidden bool) (*model.Mosque, error)
}

// TimetableModule mounts the public timetable endpoints under /mosques.
func TimetableModule(svc *timetable.Service, registry Registry) api.Module {
	ctl := &TimetableController{svc: svc, registry: registry, interval: countdown.DefaultInterval}
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_GET("/mosques", ctl.listMosques)
		c.PUBLIC_GET("/mosques/:slug", ctl.getMosque)
		c.PUBLIC_GET("/mosques/:slug/times", ctl.getTimes)
		c.PUBLIC_GET("/mosques/:slug/board", ctl.getBoard)
		c.PUBLIC_GET("/mosques/:slug/iqamah/:prayer", ctl.getIqamah)
		c.PUBLIC_GET("/mosques/:slug/countdown", ctl.getCountdown)
		c.Group.GET("/mosques/:slug/countdown/ws", ctl.streamCountdown)
		c.PUBLIC_GET("/mosques/:slug/monthly/:year/:month", ctl.getMonthly)
		c.PUBLIC_GET("/mosques/:slug/ramadan", ctl.getRamadan)
	})
}

type TimetableController struct {
	svc      *timetable.Service
	registry Registry
	// interval between countdown frames on a stream
	interval time.Duration
}

// date reads ?date=YYYY-MM-DD, defaulting to today.
func (t *TimetableController) date(ctx *gin.Context) (time.Time, *api.APIError) {
	raw := strings.TrimSpace(ctx.Query("date"))
	if raw == "" {
		return t.svc.Today(), nil
	}
	d, err := calendar.ParseDay(raw, t.svc.Location())
	if err != nil {
		return time.Time{}, api.BadRequest("date must be YYYY-MM-DD")
	}
	return d, nil
}

func toMosqueResponse(m model.Mosque) packets.MosqueResponse {
	return packets.MosqueResponse{
		Slug:    m.Slug,
		Name:    m.Name,
		Address: m.Address,
		Lat:     m.Lat,
		Lng:     m.Lng,
		Website: m.Website,
	}
}

// GET /api/mosques
func (t *TimetableController) listMosques(ctx *gin.Context) (any, *api.APIError) {
	mosques, err := t.registry.Mosques(ctx.Request.Context())
	if err != nil {
		return nil, api.FromError(err)
	}
	out := make([]packets.MosqueResponse, 0, len(mosques))
	for _, m := range mosques {
		out = append(out, toMosqueResponse(m))
	}
	return out, nil
}

// GET /api/mosques/:slug
func (t *TimetableController) getMosque(ctx *gin.Context) (any, *api.APIError) {
	m, err := t.registry.Mosque(ctx.Request.Context(), ctx.Param("slug"), true)
	if err != nil {
		return nil, api.FromError(err)
	}
	if m == nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "mosque not found"}
	}
	return toMosqueResponse(*m), nil
}

// GET /api/mosques/:slug/times?date=
func (t *TimetableController) getTimes(ctx *gin.Context) (any, *api.APIError) {
	date, apiErr := t.date(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	res, err := t.svc.ResolveDay(ctx.Request.Context(), ctx.Param("slug"), date)
	if err != nil {
		return nil, api.FromError(err)
	}

	resolved := make(map[string]string, 6)
	for _, p := range []string{iqamah.Fajr, iqamah.Dhuhr, iqamah.Asr, iqamah.Maghrib, iqamah.Jummah} {
		resolved[p] = res.IqamahFor(p)
	}
	resolved[iqamah.Isha] = iqamah.DisplayIsha(res.Date, res.Prayers.Isha, res.Iqamah, res.Prayers.Maghrib)

	out := packets.TimesResponse{
		Slug:         res.Slug,
		Date:         res.Prayers.Date,
		DisplayDate:  calendar.FormatDisplayDate(res.Date),
		Source:       res.Source,
		Prayers:      res.Prayers,
		Iqamah:       res.Stored(),
		Resolved:     resolved,
		Summer:       iqamah.InSummer(res.Date),
		DSTAdjusting: res.DSTAdjusting,
		RamadanDay:   res.RamadanDay,
	}
	if res.IqamahFrom != nil {
		out.IqamahDate = time.Date(res.Date.Year(), res.IqamahFrom.Month, res.IqamahFrom.Day, 0, 0, 0, 0, time.UTC).Format(time.DateOnly)
	}
	return out, nil
}

// GET /api/mosques/:slug/board?date=
func (t *TimetableController) getBoard(ctx *gin.Context) (any, *api.APIError) {
	date, apiErr := t.date(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	slug := ctx.Param("slug")
	name := slug
	if m, err := t.registry.Mosque(ctx.Request.Context(), slug, true); err == nil && m != nil {
		name = m.Name
	}

	board, err := t.svc.Board(ctx.Request.Context(), slug, name, date)
	if err != nil {
		return nil, api.FromError(err)
	}
	return board, nil
}

// GET /api/mosques/:slug/iqamah/:prayer?date=
func (t *TimetableController) getIqamah(ctx *gin.Context) (any, *api.APIError) {
	date, apiErr := t.date(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	prayer := strings.ToLower(ctx.Param("prayer"))
	value, err := t.svc.IqamahFor(ctx.Request.Context(), ctx.Param("slug"), prayer, date)
	if err != nil {
		return nil, api.FromError(err)
	}
	return packets.IqamahResponse{
		Slug:   strings.ToLower(strings.TrimSpace(ctx.Param("slug"))),
		Date:   date.Format(time.DateOnly),
		Prayer: prayer,
		Iqamah: value,
	}, nil
}

// GET /api/mosques/:slug/countdown
func (t *TimetableController) getCountdown(ctx *gin.Context) (any, *api.APIError) {
	now := t.svc.Now()
	day, err := t.svc.CountdownDay(ctx.Request.Context(), ctx.Param("slug"), now)
	if err != nil {
		return nil, api.FromError(err)
	}
	return countdown.Project(day, now), nil
}

// GET /api/mosques/:slug/monthly/:year/:month
func (t *TimetableController) getMonthly(ctx *gin.Context) (any, *api.APIError) {
	year, err := strconv.Atoi(ctx.Param("year"))
	if err != nil {
		return nil, api.BadRequest("year must be a number")
	}
	doc, err := t.svc.MonthlyDocument(ctx.Request.Context(), ctx.Param("slug"), strings.ToLower(ctx.Param("month")), year)
	if err != nil {
		return nil, api.FromError(err)
	}
	return doc, nil
}

// GET /api/mosques/:slug/ramadan?date=
func (t *TimetableController) getRamadan(ctx *gin.Context) (any, *api.APIError) {
	date, apiErr := t.date(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	doc, in, err := t.svc.RamadanDocument(ctx.Request.Context(), ctx.Param("slug"), date)
	if err != nil {
		return nil, api.FromError(err)
	}
	return packets.RamadanResponse{Calendar: doc, InRange: in}, nil
}
