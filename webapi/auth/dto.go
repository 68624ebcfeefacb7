package auth

// RegisterInput is the request body of a self-service sign up.
type RegisterInput struct {
	Username string `json:"username" validate:"required,max=50"`
	Email    string `json:"email" validate:"required,email,max=200"`
	Password string `json:"password" validate:"required,max=72"`
}

// LoginInput represents the request body for user authentication.
type LoginInput struct {
	Identity string `json:"identity" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TwoFactorInput completes a login that required a second factor.
type TwoFactorInput struct {
	Challenge string `json:"challenge" validate:"required"`
	Code      string `json:"code" validate:"required,numeric"`
}

// ForgotPasswordInput asks for a reset link.
type ForgotPasswordInput struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordInput sets a new password with a reset token.
type ResetPasswordInput struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,max=72"`
}

// APITokenInput names a new API token.
type APITokenInput struct {
	Name string `json:"name" validate:"required,max=100"`
}
