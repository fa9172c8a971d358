package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/thriftdrop-backend/api/middleware"
	"github.com/angelmondragon/thriftdrop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/thriftdrop-backend/pkg/errors"
)

type adminActor struct {
	ID   uuid.UUID
	Role enums.AdminRole
}

func actorFromRequest(r *http.Request) (adminActor, error) {
	rawID := middleware.AdminIDFromContext(r.Context())
	if rawID == "" {
		return adminActor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "admin context missing")
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return adminActor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid admin id")
	}
	role, err := enums.ParseAdminRole(middleware.RoleFromContext(r.Context()))
	if err != nil {
		return adminActor{}, pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "invalid admin role")
	}
	return adminActor{ID: id, Role: role}, nil
}
