package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/alexanderramin/clustertrack/internal/aggregate"
	"github.com/alexanderramin/clustertrack/internal/app"
	"github.com/alexanderramin/clustertrack/internal/domain"
)

const maxActivityBody = 1 << 20

type Handler struct {
	ctrl *app.Controller
}

func NewHandler(ctrl *app.Controller) *Handler {
	return &Handler{ctrl: ctrl}
}

type healthResponse struct {
	Status  string `json:"status"`
	User    string `json:"user"`
	Tracker string `json:"tracker"`
}

type todayResponse struct {
	User     string `json:"user"`
	Status   string `json:"status"`
	Records  int    `json:"records"`
	TotalMs  int64  `json:"totalMs"`
	Total    string `json:"total"`
	TargetMs int64  `json:"targetMs"`
	Eligible bool   `json:"eligible"`
	Ongoing  bool   `json:"ongoing"`
}

type dayRow struct {
	Date     string `json:"date"`
	Label    string `json:"label"`
	Sessions int    `json:"sessions"`
	TotalMs  int64  `json:"totalMs"`
	Total    string `json:"total"`
	Eligible bool   `json:"eligible"`
}

type hostRow struct {
	Host      string `json:"host"`
	TotalMs   int64  `json:"totalMs"`
	Total     string `json:"total"`
	Remaining string `json:"remaining,omitempty"`
	Favorite  bool   `json:"favorite"`
}

type starsResponse struct {
	Floor      string    `json:"floor,omitempty"`
	NeedsStar  []hostRow `json:"needsStar"`
	Collecting []hostRow `json:"collecting"`
	Starred    []hostRow `json:"starred"`
}

type hostResponse struct {
	Host      string           `json:"host"`
	User      string           `json:"user"`
	TotalMs   int64            `json:"totalMs"`
	Total     string           `json:"total"`
	Target    string           `json:"target"`
	Remaining string           `json:"remaining"`
	Eligible  bool             `json:"eligible"`
	Favorite  string           `json:"favorite,omitempty"`
	Sessions  []domain.Session `json:"sessions"`
}

// Health handles GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		User:    h.ctrl.User(),
		Tracker: h.ctrl.Status().String(),
	})
}

// Today handles GET /api/today
func (h *Handler) Today(w http.ResponseWriter, r *http.Request) {
	v := h.ctrl.Snapshot()
	writeJSON(w, http.StatusOK, todayResponse{
		User:     v.User,
		Status:   v.Status.String(),
		Records:  v.Records,
		TotalMs:  v.Today.Milliseconds(),
		Total:    domain.FormatDuration(v.Today),
		TargetMs: domain.TargetThreshold.Milliseconds(),
		Eligible: domain.Eligible(v.Today),
		Ongoing:  v.Ongoing,
	})
}

// Days handles GET /api/days
func (h *Handler) Days(w http.ResponseWriter, r *http.Request) {
	v := h.ctrl.Snapshot()
	rows := make([]dayRow, 0, len(v.Days))
	for _, d := range v.Days {
		rows = append(rows, dayRow{
			Date:     d.Date.Format(time.DateOnly),
			Label:    d.Label,
			Sessions: len(d.Sessions),
			TotalMs:  d.Total.Milliseconds(),
			Total:    domain.FormatDuration(d.Total),
			Eligible: d.Eligible(),
		})
	}
	writeJSON(w, http.StatusOK, rows)
}

// Stars handles GET /api/stars
func (h *Handler) Stars(w http.ResponseWriter, r *http.Request) {
	v := h.ctrl.Snapshot()
	resp := starsResponse{
		NeedsStar:  hostRows(v.Board.NeedsStar),
		Collecting: hostRows(v.Board.Collecting),
		Starred:    hostRows(v.Board.Starred),
	}
	if v.Floor != nil {
		resp.Floor = v.Floor.Name
	}
	writeJSON(w, http.StatusOK, resp)
}

// Host handles GET /api/hosts/{host}
func (h *Handler) Host(w http.ResponseWriter, r *http.Request) {
	host := domain.NormalizeHost(chi.URLParam(r, "host"))
	if domain.Zone(host) == "" {
		writeError(w, http.StatusBadRequest, "invalid host id")
		return
	}
	rep := h.ctrl.HostReport(host)
	sessions := rep.Sessions
	if sessions == nil {
		sessions = []domain.Session{}
	}
	writeJSON(w, http.StatusOK, hostResponse{
		Host:      rep.Host,
		User:      rep.User,
		TotalMs:   rep.Total.Milliseconds(),
		Total:     domain.FormatDuration(rep.Total),
		Target:    domain.FormatDuration(rep.Target),
		Remaining: domain.FormatDuration(rep.Remaining()),
		Eligible:  rep.Eligible(),
		Favorite:  string(rep.Favorite),
		Sessions:  sessions,
	})
}

// Export handles GET /api/export
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	exp := h.ctrl.Export()
	w.Header().Set("Content-Disposition", `attachment; filename="`+app.ExportFileName(exp.ExportTime)+`"`)
	writeJSON(w, http.StatusOK, exp)
}

// Logs handles GET /api/logs
func (h *Handler) Logs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.Logbook().Entries())
}

// Reload handles POST /api/reload
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	err := h.ctrl.Reload(r.Context())
	switch {
	case errors.Is(err, app.ErrNoUser):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrStaleReload):
		writeError(w, http.StatusConflict, err.Error())
	case err != nil:
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": h.ctrl.Status().String()})
	}
}

// Activity handles POST /api/activity with a raw activity payload.
func (h *Handler) Activity(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxActivityBody))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"applied": h.ctrl.ApplyActivity(body)})
}

// Star handles PUT /api/favorites/{host}
func (h *Handler) Star(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, true)
}

// Unstar handles DELETE /api/favorites/{host}
func (h *Handler) Unstar(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, false)
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request, add bool) {
	host := chi.URLParam(r, "host")
	if err := h.ctrl.ToggleFavorite(r.Context(), host, add); err != nil {
		if errors.Is(err, domain.ErrInvalidHost) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func hostRows(in []aggregate.HostTotal) []hostRow {
	out := make([]hostRow, 0, len(in))
	for _, ht := range in {
		row := hostRow{
			Host:     ht.Host,
			TotalMs:  ht.Total.Milliseconds(),
			Total:    domain.FormatDuration(ht.Total),
			Favorite: ht.Favorite,
		}
		if rem := ht.Remaining(); rem > 0 {
			row.Remaining = domain.FormatDuration(rem)
		}
		out = append(out, row)
	}
	return out
}
