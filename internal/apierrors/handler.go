package apierrors

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/flashdeckhq/flashdeck/internal/response"
)

// Mapper is the single place errors become HTTP responses. Handlers return
// or collect errors and call Respond exactly once.
type Mapper struct {
	production bool
	logger     *slog.Logger
}

func NewMapper(production bool, logger *slog.Logger) *Mapper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mapper{production: production, logger: logger}
}

// Respond renders err as an envelope. Match order matters: validation and
// invalid-operation errors go first so their field/reason maps survive,
// then anything satisfying the APIError contract, then storage not-found,
// then a logged catch-all.
func (m *Mapper) Respond(w http.ResponseWriter, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		response.New(response.StatusValidationError).
			Errors(verr.Fields).
			Meta("error_code", verr.ErrorCode()).
			Write(w)
		return
	}

	var operr *InvalidOperationError
	if errors.As(err, &operr) {
		response.New(operr.APIStatus()).
			Message(operr.Error()).
			Meta("error_code", operr.ErrorCode()).
			Meta("operation", operr.Operation).
			Errors(operr.Reasons).
			Write(w)
		return
	}

	var apiErr APIError
	if errors.As(err, &apiErr) {
		b := response.New(apiErr.APIStatus()).
			Message(apiErr.Error()).
			Meta("error_code", apiErr.ErrorCode())

		var rl *RateLimitError
		if errors.As(err, &rl) {
			secs := int(rl.RetryAfter.Seconds())
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			b.Meta("retry_after", secs)
		}
		b.Write(w)
		return
	}

	if errors.Is(err, pgx.ErrNoRows) {
		response.New(response.StatusNotFound).
			Meta("error_code", "RECORD_NOT_FOUND").
			Write(w)
		return
	}

	m.logger.Error("unhandled error", "error", err)
	msg := err.Error()
	if m.production {
		msg = ""
	}
	response.New(response.StatusError).Message(msg).Write(w)
}
