package auth

type RegisterRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name" binding:"required"`
	City        string `json:"city"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name,omitempty"`
	City        *string `json:"city,omitempty"`
	Bio         *string `json:"bio,omitempty"`
}

// LoginResult carries everything a successful login or refresh produces.
type LoginResult struct {
	User         *User
	AccessToken  string
	RefreshToken string
}
