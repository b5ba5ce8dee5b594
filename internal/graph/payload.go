package graph

type registerInput struct {
	Name     string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type verifyEmailInput struct {
	Email string `validate:"required,email"`
	OTP   string `validate:"required"`
}

type loginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}
