package dto

type SignupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AccountSummary struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	IsApproved bool   `json:"isApproved"`
}

type LoginResponse struct {
	Token string         `json:"token"`
	User  AccountSummary `json:"user"`
}

// AuthClaims is what the middleware stores in ctx.Locals after a
// verified token.
type AuthClaims struct {
	UserID int     `json:"user_id"`
	Email  string  `json:"email"`
	Role   string  `json:"role"`
	Iat    float64 `json:"iat"`
	Expiry float64 `json:"expiry"`
}
