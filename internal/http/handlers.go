package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"hourgrid/internal/core"
	"hourgrid/internal/log"
	"hourgrid/internal/session"
	"hourgrid/internal/timesheet"
)

const maxBodyBytes = 1 << 16

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}

// writeEngineError maps engine failures onto status codes. Sync failures are
// 502: the upstream rejected or never answered, and the month has already
// been revalidated by the time the handler sees the error.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrEntryLocked):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, core.ErrEntryNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, timesheet.ErrSyncFailed):
		respondError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, timesheet.ErrNotMonday),
		errors.Is(err, core.ErrInvalidSpentDate),
		errors.Is(err, core.ErrNegativeHours),
		errors.Is(err, core.ErrMissingTask),
		errors.Is(err, core.ErrMissingProject):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusBadGateway, err.Error())
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// monthKeyFromParams converts 1-based URL months into the engine's zero-based
// keys.
func monthKeyFromParams(yearStr, monthStr string) (timesheet.MonthKey, error) {
	year, err := strconv.Atoi(yearStr)
	if err != nil || year < 1 || year > 9999 {
		return timesheet.MonthKey{}, errors.New("invalid year")
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 1 || month > 12 {
		return timesheet.MonthKey{}, errors.New("invalid month: must be 1-12")
	}
	return timesheet.MonthKey{Year: year, Month: month - 1}, nil
}

func (s *Server) handleMonthView(w http.ResponseWriter, r *http.Request) {
	key, err := monthKeyFromParams(chi.URLParam(r, "year"), chi.URLParam(r, "month"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, _ := session.FromContext(r.Context())
	view, err := s.engine(sess).MonthView(r.Context(), key)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Month view failed",
			log.FieldError, err, log.FieldYear, key.Year, log.FieldMonth, key.Month)
		writeEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

type createEntryRequest struct {
	SpentDate string           `json:"spent_date"`
	ProjectID int64            `json:"project_id"`
	TaskID    int64            `json:"task_id"`
	Hours     *decimal.Decimal `json:"hours,omitempty"`
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req createEntryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if _, err := core.ParseSpentDate(req.SpentDate); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ProjectID == 0 || req.TaskID == 0 {
		respondError(w, http.StatusBadRequest, "project_id and task_id are required")
		return
	}
	if req.Hours != nil && req.Hours.IsNegative() {
		respondError(w, http.StatusBadRequest, core.ErrNegativeHours.Error())
		return
	}

	sess, _ := session.FromContext(r.Context())
	entry, err := s.engine(sess).CreateEntry(r.Context(), req.SpentDate, req.ProjectID, req.TaskID, req.Hours)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, entry)
}

type createWeekRequest struct {
	Monday string `json:"monday"`
}

type createWeekResponse struct {
	Entries []core.TimeEntry `json:"entries"`
}

func (s *Server) handleCreateWeek(w http.ResponseWriter, r *http.Request) {
	var req createWeekRequest
	if !decodeBody(w, r, &req) {
		return
	}

	sess, _ := session.FromContext(r.Context())
	entries, err := s.engine(sess).CreateWeek(r.Context(), req.Monday)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, createWeekResponse{Entries: entries})
}

type updateNoteRequest struct {
	Year  int    `json:"year"`
	Month int    `json:"month"` // 1-based
	Notes string `json:"notes"`
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	entryID, err := strconv.ParseInt(chi.URLParam(r, "entryID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid entry id")
		return
	}
	var req updateNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	key, err := monthKeyFromParams(strconv.Itoa(req.Year), strconv.Itoa(req.Month))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, _ := session.FromContext(r.Context())
	entry, err := s.engine(sess).UpdateEntryNote(r.Context(), key, entryID, req.Notes)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	entryID, err := strconv.ParseInt(chi.URLParam(r, "entryID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid entry id")
		return
	}
	key, err := monthKeyFromParams(r.URL.Query().Get("year"), r.URL.Query().Get("month"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, _ := session.FromContext(r.Context())
	if err := s.engine(sess).DeleteEntry(r.Context(), key, entryID); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
