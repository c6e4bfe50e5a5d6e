package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token"    validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=8,max=72"`
}

type UpdateProfileRequest struct {
	FullName  *string `json:"full_name"  validate:"omitempty,max=120"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url"`
}

type CreateUserRequest struct {
	Email    string  `json:"email"     validate:"required,email"`
	FullName *string `json:"full_name" validate:"omitempty,max=120"`
	Password string  `json:"password"  validate:"required,min=8,max=72"`
	Role     string  `json:"role"      validate:"required,oneof=admin operator"`
}

type UpdateUserRequest struct {
	FullName *string `json:"full_name" validate:"omitempty,max=120"`
	Role     *string `json:"role"      validate:"omitempty,oneof=admin operator"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProfileResponse struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FullName  *string `json:"full_name"`
	AvatarURL *string `json:"avatar_url"`
	Role      string  `json:"role"`
	CreatedAt string  `json:"created_at"`
}

type LoginResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	TokenType    string          `json:"token_type"`
	ExpiresIn    int             `json:"expires_in"` // seconds
	User         ProfileResponse `json:"user"`
}

// SessionResponse describes the caller. Status is always "authenticated"
// here; loading and anonymous sessions never reach the handler.
type SessionResponse struct {
	Status  string          `json:"status"`
	Profile ProfileResponse `json:"profile"`
	IsAdmin bool            `json:"is_admin"`
}
