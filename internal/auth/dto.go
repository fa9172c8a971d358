package auth

import (
	"time"

	"github.com/angelmondragon/thriftdrop-backend/pkg/db/models"
	"github.com/angelmondragon/thriftdrop-backend/pkg/enums"
	"github.com/google/uuid"
)

// LoginRequest captures the credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AdminDTO is the public view of an admin account.
type AdminDTO struct {
	ID          uuid.UUID       `json:"id"`
	Email       string          `json:"email"`
	Name        string          `json:"name"`
	Role        enums.AdminRole `json:"role"`
	LastLoginAt *time.Time      `json:"last_login_at,omitempty"`
}

// LoginResponse contains the access token produced by a successful login.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Admin       AdminDTO  `json:"admin"`
}

// CreateAdminInput describes a new back-office account.
type CreateAdminInput struct {
	Email    string          `validate:"required,email"`
	Name     string          `validate:"required"`
	Password string          `validate:"required,min=12"`
	Role     enums.AdminRole `validate:"required"`
}

// FromModel maps an admin row to its DTO.
func FromModel(admin *models.AdminUser) AdminDTO {
	return AdminDTO{
		ID:          admin.ID,
		Email:       admin.Email,
		Name:        admin.Name,
		Role:        admin.Role,
		LastLoginAt: admin.LastLoginAt,
	}
}
