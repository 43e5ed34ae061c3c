package transport

import (
	"net/http"

	"storefront-core/internal/apierr"
	"storefront-core/internal/auth"
	"storefront-core/internal/logger"
	"storefront-core/internal/reconcile"
	"storefront-core/internal/session"
	"storefront-core/internal/utils"

	"go.uber.org/zap"
)

type mergeResponse struct {
	*reconcile.Report
	Message string `json:"message,omitempty"`
	Warning string `json:"warning,omitempty"`
}

type sessionResponse struct {
	UserID string         `json:"userId"`
	Role   session.Role   `json:"role"`
	Merge  *mergeResponse `json:"merge,omitempty"`
}

// startSession runs once per sign-in: it brings up the user's components and
// merges the device's guest cart into the server cart.
func (h *Handler) startSession(w http.ResponseWriter, r *http.Request) {
	claims, ok := utils.GetClaimsFromContext(r.Context())
	if !ok {
		utils.WriteError(w, apierr.New(apierr.KindUnauthenticated, "transport", "sign in required"))
		return
	}

	guestID, _ := auth.ExtractGuestID(r)
	us, report, err := h.sessions.Start(r.Context(), utils.GetTokenFromContext(r.Context()), claims, guestID)
	if us == nil {
		writeErr(w, r, "startSession", err)
		return
	}

	resp := sessionResponse{UserID: claims.UserID, Role: claims.Role}
	if report != nil {
		resp.Merge = &mergeResponse{Report: report, Message: report.Message()}
		if err != nil {
			logger.FromCtx(r.Context()).Warn("guest cart merged but not cleared",
				zap.String("layer", "transport"),
				zap.String("method", "startSession"),
				zap.Error(err),
			)
			resp.Merge.Warning = "guest cart could not be cleared"
		}
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) endSession(w http.ResponseWriter, r *http.Request) {
	if userID, ok := utils.GetUserIDFromContext(r.Context()); ok {
		h.sessions.End(r.Context(), userID)
	}
	w.WriteHeader(http.StatusNoContent)
}
