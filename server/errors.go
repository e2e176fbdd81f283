package server

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/odsconseil/bms/errors"
)

// handleError translates a domain error into an HTTP response. The
// sentinel mapping is the whole error contract of the API:
// validation 400, not found 404, conflict 409, provider failure 502,
// store unreachable 503.
func handleError(w http.ResponseWriter, logger *zap.SugaredLogger, err error, context string) {
	switch {
	case errors.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, errors.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, errors.ErrExecution):
		logger.Errorw(context, "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.IsStoreUnavailable(err):
		logger.Errorw(context, "error", err)
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
	default:
		logger.Errorw(context, "error", err)
		writeError(w, http.StatusInternalServerError, context)
	}
}
