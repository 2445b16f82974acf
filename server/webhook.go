package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/danmuhq/danmuz/pkg/logger"
	"github.com/danmuhq/danmuz/pkg/webhook"
	"go.uber.org/zap"
)

const defaultDeliveryLimit = 50

// EmbyWebhook ingests Emby notification payloads. Only an unreadable or
// unparseable body is a client error; irrelevant payloads and degraded
// enrichment are absorbed so Emby never sees a handler failure.
func (s Server) EmbyWebhook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromCtx(r.Context())

		b, err := io.ReadAll(r.Body)
		if err != nil {
			log.Debug("invalid request body", zap.Error(err))
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		if err := s.webhooks.HandleEmby(r.Context(), b); err != nil {
			if errors.Is(err, webhook.ErrMalformedPayload) {
				log.Debug("malformed webhook payload", zap.ByteString("body", b))
				http.Error(w, "request body is not valid JSON", http.StatusBadRequest)
				return
			}

			log.Error("failed to handle emby webhook", zap.Error(err))
			writeErrorResponse(w, http.StatusInternalServerError, err)
			return
		}

		writeResponse(w, http.StatusAccepted, GenericResponse{Response: "accepted"})
	}
}

// ListDeliveries lists recently handled webhook deliveries
func (s Server) ListDeliveries() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromCtx(r.Context())

		if s.deliveries == nil {
			http.Error(w, "delivery log is not configured", http.StatusNotFound)
			return
		}

		limit := defaultDeliveryLimit
		if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
			parsed, err := strconv.Atoi(limitStr)
			if err != nil || parsed < 1 {
				http.Error(w, "invalid limit parameter: must be positive integer", http.StatusBadRequest)
				return
			}
			limit = parsed
		}

		deliveries, err := s.deliveries.ListDeliveries(r.Context(), limit)
		if err != nil {
			log.Error("failed to list deliveries", zap.Error(err))
			writeErrorResponse(w, http.StatusInternalServerError, err)
			return
		}

		writeResponse(w, http.StatusOK, GenericResponse{Response: deliveries})
	}
}
