package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"hither-backend/internal/database"
	"hither-backend/internal/engine"
	"hither-backend/pkg/utils"
)

// respondEngineError maps engine sentinel errors to HTTP statuses. Anything
// unrecognized is treated as a server fault.
func respondEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrInvalidInput), errors.Is(err, engine.ErrOutOfRange):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, engine.ErrUnauthorized), errors.Is(err, engine.ErrForbidden):
		utils.RespondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, engine.ErrNotFound), errors.Is(err, engine.ErrInvalidInvite):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, engine.ErrExpiredInvite), errors.Is(err, engine.ErrTimedOut):
		utils.RespondError(w, http.StatusGone, err.Error())
	case errors.Is(err, engine.ErrAlreadyInProgress),
		errors.Is(err, engine.ErrInconsistentReorder),
		errors.Is(err, engine.ErrLeaderCannotLeave):
		utils.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, sql.ErrNoRows), errors.Is(err, database.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, "not found")
	default:
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
	}
}
