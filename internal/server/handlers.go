package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/portfolio-agent/internal/pipeline"
	"github.com/jonathan/portfolio-agent/internal/types"
)

// maxRequestBytes bounds request bodies.
const maxRequestBytes = 1 << 20

// decodePortfolioRequest reads and validates the request body.
func decodePortfolioRequest(w http.ResponseWriter, r *http.Request) (*types.PortfolioRequest, error) {
	var req types.PortfolioRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		return nil, &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	req.Normalize()
	if err := types.Validate(&req); err != nil {
		return nil, &ErrValidation{Field: "identifier", Message: err.Error()}
	}
	return &req, nil
}

// handlePortfolio runs the pipeline to completion and returns the projection.
func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	req, err := decodePortfolioRequest(w, r)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	runID := uuid.NewString()
	w.Header().Set("X-Run-ID", runID)

	state, err := s.pipeline.Resolve(pipeline.WithRunID(r.Context(), runID), req.Identifier)
	if err != nil {
		status := HTTPStatus(err)
		s.log.Warn().Err(err).Str("run_id", runID).Int("status", status).Msg("portfolio run failed")
		s.jsonResponse(w, status, errorBody(err))
		return
	}

	s.jsonResponse(w, http.StatusOK, state.Projection())
}

// handlePortfolioStream runs the pipeline and relays its events as SSE,
// with keep-alive comments while the pipeline is quiet.
func (s *Server) handlePortfolioStream(w http.ResponseWriter, r *http.Request) {
	req, err := decodePortfolioRequest(w, r)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	runID := uuid.NewString()
	w.Header().Set("X-Run-ID", runID)

	sse := NewSSEWriter(w)
	if err := sse.DisableWriteDeadline(); err != nil {
		s.log.Warn().Err(err).Str("run_id", runID).Msg("failed to clear write deadline")
	}
	if err := sse.Start(); err != nil {
		s.log.Warn().Err(err).Str("run_id", runID).Msg("failed to start stream")
		return
	}

	ctx, cancel := context.WithCancel(pipeline.WithRunID(r.Context(), runID))
	defer cancel()
	events := s.pipeline.Stream(ctx, req.Identifier)

	if err := s.relay(sse, events); err != nil && !errors.Is(err, context.Canceled) {
		s.log.Warn().Err(err).Str("run_id", runID).Msg("stream ended with error")
	}
}

// relay writes events until the channel closes or a write fails.
func (s *Server) relay(sse *SSEWriter, events <-chan pipeline.Event) error {
	ticker := time.NewTicker(s.keepAlive)
	defer ticker.Stop()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := sse.WriteEvent(ev); err != nil {
				var serErr *SerializationError
				if !errors.As(err, &serErr) {
					return err
				}
				s.log.Warn().Err(err).Msg("event sent as string rendering")
			}
			ticker.Reset(s.keepAlive)
		case <-ticker.C:
			if err := sse.WriteComment("keep-alive"); err != nil {
				return err
			}
		}
	}
}
