// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/taibuivan/motionmaster/internal/platform/constants"
	"github.com/taibuivan/motionmaster/internal/platform/respond"
)

// HealthDependencies are the probes behind GET /ready. A nil probe is skipped.
// Each probe receives a context bounded by [constants.ReadinessProbeTimeout].
type HealthDependencies struct {
	CheckDatabase func(context.Context) error
	CheckCache    func(context.Context) error
	CheckStorage  func(context.Context) error
}

type probe struct {
	name  string
	check func(context.Context) error
}

type probeOutcome struct {
	index int
	err   error
}

type probeResult struct {
	Name  string `json:"name"`
	IsOK  bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type healthHandler struct {
	probes []probe
	logger *slog.Logger
}

// NewHealthHandlers returns the liveness (/health) and readiness (/ready) handlers.
func NewHealthHandlers(deps HealthDependencies, logger *slog.Logger) (liveness, readiness http.HandlerFunc) {
	handler := &healthHandler{logger: logger}

	for _, candidate := range []probe{
		{"postgres", deps.CheckDatabase},
		{"redis", deps.CheckCache},
		{"storage", deps.CheckStorage},
	} {
		if candidate.check != nil {
			handler.probes = append(handler.probes, candidate)
		}
	}

	return handler.liveness, handler.readiness
}

func (handler *healthHandler) liveness(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, map[string]string{constants.FieldStatus: "ok"})
}

// readiness runs every probe in parallel and answers 503 if any failed or
// did not answer before the deadline.
func (handler *healthHandler) readiness(writer http.ResponseWriter, request *http.Request) {
	ctx, cancel := context.WithTimeout(request.Context(), constants.ReadinessProbeTimeout)
	defer cancel()

	results := make([]probeResult, len(handler.probes))
	outcomes := make(chan probeOutcome, len(handler.probes))

	for index, target := range handler.probes {
		results[index] = probeResult{Name: target.name, Error: "timed out"}
		go func() {
			outcomes <- probeOutcome{index: index, err: target.check(ctx)}
		}()
	}

collect:
	for range handler.probes {
		select {
		case outcome := <-outcomes:
			result := &results[outcome.index]
			result.IsOK, result.Error = outcome.err == nil, ""
			if outcome.err != nil {
				result.Error = outcome.err.Error()
			}
		case <-ctx.Done():
			break collect
		}
	}

	status, code := "ready", http.StatusOK
	for _, result := range results {
		if result.IsOK {
			continue
		}
		status, code = "degraded", http.StatusServiceUnavailable
		handler.logger.ErrorContext(request.Context(), "readiness_check_failed",
			slog.String("dependency", result.Name),
			slog.String("error", result.Error),
		)
	}

	respond.JSON(writer, code, respond.SuccessEnvelope{Data: map[string]any{
		constants.FieldStatus: status,
		constants.FieldChecks: results,
	}})
}
