package controllers

import (
	"net/http"

	"github.com/angelmondragon/thriftdrop-backend/api/middleware"
	"github.com/angelmondragon/thriftdrop-backend/api/responses"
	"github.com/angelmondragon/thriftdrop-backend/api/validators"
	"github.com/angelmondragon/thriftdrop-backend/internal/auth"
	pkgerrors "github.com/angelmondragon/thriftdrop-backend/pkg/errors"
	"github.com/angelmondragon/thriftdrop-backend/pkg/logger"
)

// AdminAuthLogin exchanges admin credentials for an access token.
func AdminAuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AdminAuthLogout closes the caller's session so its token stops working.
func AdminAuthLogout(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}
		if err := svc.Logout(r.Context(), middleware.AccessIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
