package auth

type RegisterPayload struct {
	Email    string `json:"email" mod:"trim" validate:"required,email,max=255"`
	Name     string `json:"name" mod:"trim" validate:"required,min=1,max=100"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginPayload struct {
	Email    string `json:"email" form:"email" mod:"trim" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}
