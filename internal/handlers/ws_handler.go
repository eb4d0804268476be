package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/olahol/melody"

	"budgetwise/internal/analytics"
	apperrors "budgetwise/internal/errors"
	"budgetwise/internal/events"
	"budgetwise/internal/logger"
	"budgetwise/internal/middleware"
	"budgetwise/internal/services"
)

// Session keys.
const (
	wsUserKey  = "user_id"
	wsMonthKey = "month"
	wsViewKey  = "view"
)

// View selectors a live client can subscribe to.
const (
	ViewDashboard = "dashboard"
	ViewAnalytics = "analytics"
	ViewAll       = "all"
)

// LiveMessage is what the server pushes to a live client.
type LiveMessage struct {
	Type  string      `json:"type"`
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// liveRequest changes the month or view a client is watching.
type liveRequest struct {
	Month string `json:"month"`
	View  string `json:"view"`
}

// WSHandler pushes recomputed views to connected clients whenever their data
// changes. Each session carries its user, month and view as melody keys.
type WSHandler struct {
	m         *melody.Melody
	jwt       *middleware.JWTManager
	dashboard services.DashboardServicer
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(jwt *middleware.JWTManager, dashboard services.DashboardServicer) *WSHandler {
	m := melody.New()
	m.Config.MaxMessageSize = 4 * 1024
	m.Config.PingPeriod = 30 * time.Second
	m.Config.PongWait = 60 * time.Second

	h := &WSHandler{
		m:         m,
		jwt:       jwt,
		dashboard: dashboard,
	}

	log := logger.Named("ws")
	m.HandleConnect(func(s *melody.Session) {
		log.Debugw("client connected", "user_id", sessionString(s, wsUserKey))
		h.push(s, "connected")
	})
	m.HandleDisconnect(func(s *melody.Session) {
		log.Debugw("client disconnected", "user_id", sessionString(s, wsUserKey))
	})
	m.HandleError(func(s *melody.Session, err error) {
		log.Debugw("websocket error", "user_id", sessionString(s, wsUserKey), "error", err)
	})
	m.HandleMessage(h.handleMessage)

	return h
}

// Connect upgrades an authenticated request to a live session
// @Summary     Live dashboard
// @Description WebSocket stream of the dashboard and analytics views. Authenticate with ?token= or a Bearer header.
// @Tags        dashboard
// @Param       token query string false "Access token"
// @Param       month query string false "Month (YYYY-MM)"
// @Param       view  query string false "dashboard, analytics or all"
// @Success     101 "Switching protocols"
// @Failure     400 {object} ErrorResponse "Invalid month or view"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /ws [get]
func (h *WSHandler) Connect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		if parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			token = parts[1]
		}
	}
	if token == "" {
		respondWithError(c, apperrors.ErrUnauthorized)
		return
	}
	claims, err := h.jwt.ParseAccessToken(token)
	if err != nil {
		respondWithError(c, apperrors.ErrInvalidToken)
		return
	}

	month := c.Query("month")
	if month != "" && !analytics.ValidMonthKey(month) {
		respondWithError(c, apperrors.ErrInvalidMonth)
		return
	}
	view := c.DefaultQuery("view", ViewAll)
	if !validView(view) {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "view must be dashboard, analytics or all"))
		return
	}

	keys := map[string]interface{}{
		wsUserKey:  claims.UserID,
		wsMonthKey: month,
		wsViewKey:  view,
	}
	if err := h.m.HandleRequestWithKeys(c.Writer, c.Request, keys); err != nil {
		logger.Named("ws").Warnw("websocket upgrade failed", "error", err)
	}
}

// Run forwards change events to the sessions of the affected user until ctx
// is done or the channel closes, then closes every session.
func (h *WSHandler) Run(ctx context.Context, changes <-chan events.Event) error {
	defer h.m.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-changes:
			if !ok {
				return nil
			}
			h.Notify(e)
		}
	}
}

// Notify pushes fresh views to every session of e's user.
func (h *WSHandler) Notify(e events.Event) {
	for _, s := range h.userSessions(e.UserID) {
		h.push(s, string(e.Kind))
	}
}

func (h *WSHandler) userSessions(userID string) []*melody.Session {
	sessions, err := h.m.Sessions()
	if err != nil {
		return nil
	}
	out := sessions[:0]
	for _, s := range sessions {
		if !s.IsClosed() && sessionString(s, wsUserKey) == userID {
			out = append(out, s)
		}
	}
	return out
}

func (h *WSHandler) handleMessage(s *melody.Session, msg []byte) {
	var req liveRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		h.write(s, LiveMessage{Type: "error", Event: "request", Data: ErrorDetail{Code: apperrors.ErrInvalidInput.Code, Message: "malformed request"}})
		return
	}
	if req.Month != "" {
		if !analytics.ValidMonthKey(req.Month) {
			h.write(s, errorMessage(apperrors.ErrInvalidMonth))
			return
		}
		s.Set(wsMonthKey, req.Month)
	}
	if req.View != "" {
		if !validView(req.View) {
			h.write(s, LiveMessage{Type: "error", Event: "request", Data: ErrorDetail{Code: apperrors.ErrInvalidInput.Code, Message: "unknown view"}})
			return
		}
		s.Set(wsViewKey, req.View)
	}
	h.push(s, "request")
}

// push computes the session's view and writes it.
func (h *WSHandler) push(s *melody.Session, event string) {
	userID := sessionString(s, wsUserKey)
	month := sessionString(s, wsMonthKey)

	var (
		msg LiveMessage
		err error
	)
	switch sessionString(s, wsViewKey) {
	case ViewDashboard:
		var summary *analytics.MonthlySummary
		summary, err = h.dashboard.Dashboard(userID, month)
		msg = LiveMessage{Type: ViewDashboard, Event: event, Data: summary}
	case ViewAnalytics:
		var trends *analytics.TrendSummary
		trends, err = h.dashboard.Analytics(userID, month)
		msg = LiveMessage{Type: ViewAnalytics, Event: event, Data: trends}
	default:
		var vm *analytics.ViewModel
		vm, err = h.dashboard.View(userID, month)
		msg = LiveMessage{Type: ViewAll, Event: event, Data: vm}
	}
	if err != nil {
		h.write(s, errorMessage(err))
		return
	}
	h.write(s, msg)
}

func (h *WSHandler) write(s *melody.Session, msg LiveMessage) {
	body, err := json.Marshal(msg)
	if err != nil {
		logger.Named("ws").Errorw("encode live message", "error", err)
		return
	}
	if err := s.Write(body); err != nil {
		logger.Named("ws").Debugw("write to closed session", "error", err)
	}
}

func errorMessage(err error) LiveMessage {
	detail := ErrorDetail{Code: apperrors.ErrInternalServer.Code, Message: apperrors.ErrInternalServer.Message}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		detail = ErrorDetail{Code: appErr.Code, Message: appErr.Message}
	}
	return LiveMessage{Type: "error", Event: "compute", Data: detail}
}

func validView(v string) bool {
	return v == ViewDashboard || v == ViewAnalytics || v == ViewAll
}

func sessionString(s *melody.Session, key string) string {
	v, ok := s.Get(key)
	if !ok {
		return ""
	}
	str, _ := v.(string)
	return str
}
