package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hgpartners/ledger-analytics/internal/middleware"
	"github.com/hgpartners/ledger-analytics/internal/service"
)

type Handler struct {
	svc *service.Service
	log *logrus.Logger
}

func NewHandler(svc *service.Service, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WIPAnalytics handles GET /api/v1/wip/analytics
func (h *Handler) WIPAnalytics(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseRequest(r)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}

	resp, err := h.svc.GetWIPAnalytics(r.Context(), req)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// InvalidateWIPCache handles DELETE /api/v1/wip/cache
func (h *Handler) InvalidateWIPCache(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseRequest(r)
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}

	if err := h.svc.InvalidateAnalytics(r.Context(), req); err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) parseRequest(r *http.Request) (service.AnalyticsRequest, error) {
	staffID, ok := middleware.StaffIDFromContext(r.Context())
	if !ok {
		return service.AnalyticsRequest{}, &service.Error{
			Code:    service.CodeScopeUnresolved,
			Status:  http.StatusForbidden,
			Message: "no authenticated principal",
		}
	}

	q := r.URL.Query()
	req := service.AnalyticsRequest{
		RequestID:  middleware.RequestIDFromContext(r.Context()),
		StaffID:    staffID,
		Resolution: q.Get("resolution"),
		Base:       q.Get("base"),
	}
	if v := q.Get("partitions"); v != "" {
		req.Partitions = strings.Split(v, ",")
	}
	if v := q.Get("fiscal_year"); v != "" {
		fy, err := strconv.Atoi(v)
		if err != nil {
			return service.AnalyticsRequest{}, badParam("fiscal_year")
		}
		req.FiscalYear = fy
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return service.AnalyticsRequest{}, badParam("from")
		}
		req.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return service.AnalyticsRequest{}, badParam("to")
		}
		req.To = t
	}
	return req, nil
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	e := service.AsError(err)
	h.log.WithFields(logrus.Fields{
		"request_id": middleware.RequestIDFromContext(ctx),
		"code":       e.Code,
	}).WithError(err).Error("request failed")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	json.NewEncoder(w).Encode(errorResponse{Code: e.Code, Message: e.Message})
}

func badParam(name string) error {
	return &service.Error{
		Code:    service.CodeBadRequest,
		Status:  http.StatusBadRequest,
		Message: "invalid query parameter: " + name,
	}
}
