package endpoints

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/iqamah/internal/countdown"
	"github.com/Nixie-Tech-LLC/iqamah/internal/http/api"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type streamError struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Range string `json:"range,omitempty"`
}

// streamFrame is the projection for day, or the error payload when the day
// could not be resolved.
func streamFrame(day countdown.Day, now time.Time, err error) any {
	if err != nil {
		apiErr := api.FromError(err)
		return streamError{Error: apiErr.Message, Code: apiErr.Kind, Range: apiErr.Range}
	}
	return countdown.Project(day, now)
}

// GET /api/mosques/:slug/countdown/ws
//
// Upgrades to a websocket and pushes a countdown projection every interval
// until the screen disconnects or the day can no longer be resolved.
func (t *TimetableController) streamCountdown(ctx *gin.Context) {
	slug := ctx.Param("slug")
	if _, err := t.svc.CountdownDay(ctx.Request.Context(), slug, t.svc.Now()); err != nil {
		api.WriteError(ctx, api.FromError(err))
		return
	}

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("slug", slug).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()
	log.Debug().Str("slug", slug).Msg("countdown stream connected")

	streamCtx, cancel := context.WithCancel(ctx.Request.Context())
	defer cancel()

	// Reads only detect the close; screens never send anything.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	tick := time.NewTicker(t.interval)
	defer tick.Stop()
	for {
		now := t.svc.Now()
		day, err := t.svc.CountdownDay(streamCtx, slug, now)
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if werr := conn.WriteJSON(streamFrame(day, now, err)); werr != nil {
			log.Debug().Err(werr).Str("slug", slug).Msg("countdown stream closed")
			return
		}
		if err != nil {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "timetable unavailable"),
				time.Now().Add(writeWait))
			return
		}

		select {
		case <-streamCtx.Done():
			return
		case <-tick.C:
		}
	}
}
