package handler

import (
	"context"
	"net/http"

	"github.com/Temutjin2k/authhub/internal/adapter/http/handler/dto"
	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/Temutjin2k/authhub/pkg/logger"
	wrap "github.com/Temutjin2k/authhub/pkg/logger/wrapper"
	"github.com/Temutjin2k/authhub/pkg/validator"
)

type RateLimitResetter interface {
	Reset(ctx context.Context, typ types.RateLimitType, identifier, endpoint string) error
	ResetAll(ctx context.Context, typ types.RateLimitType, identifier string) (int64, error)
}

type RateLimit struct {
	limiter RateLimitResetter
	l       logger.Logger
}

func NewRateLimit(limiter RateLimitResetter, l logger.Logger) *RateLimit {
	return &RateLimit{limiter: limiter, l: l}
}

// Reset clears one counter when an endpoint is given, otherwise every
// counter of the identifier.
func (h *RateLimit) Reset(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "reset_rate_limit")

	req := &dto.RateLimitResetRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	dto.ValidateRateLimitReset(v, req)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	typ := types.RateLimitType(req.Type)
	if req.Endpoint != "" {
		if err := h.limiter.Reset(ctx, typ, req.Identifier, req.Endpoint); err != nil {
			serviceErrorResponse(ctx, w, h.l, "failed to reset rate limit", err)
			return
		}
		respond(ctx, w, h.l, http.StatusOK, envelope{"reset": 1})
		return
	}

	n, err := h.limiter.ResetAll(ctx, typ, req.Identifier)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to reset rate limits", err)
		return
	}
	respond(ctx, w, h.l, http.StatusOK, envelope{"reset": n})
}
