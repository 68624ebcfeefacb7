package user

// UpdateProfileInput changes username or email. The current password is
// required when either changes.
type UpdateProfileInput struct {
	Username        *string `json:"username" validate:"omitempty,max=50"`
	Email           *string `json:"email" validate:"omitempty,email,max=200"`
	CurrentPassword string  `json:"current_password"`
}

// ChangePasswordInput replaces the caller's password.
type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,max=72"`
}

// TwoFactorInput turns the emailed second factor on or off.
type TwoFactorInput struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// PhotoInput is a profile photo as a base64 data URI.
type PhotoInput struct {
	Photo string `json:"photo" validate:"required"`
	Name  string `json:"name" validate:"max=255"`
}

// PasswordInput represents the request body for password confirmation operations.
type PasswordInput struct {
	Password string `json:"password" validate:"required"`
}
