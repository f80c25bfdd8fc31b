package contract

import "github.com/google/uuid"

// RegisterRequest is the /auth/register request body.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// RegisterResponse is the /auth/register response; APIKey is shown once.
type RegisterResponse struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	APIKey string    `json:"api_key"`
}
