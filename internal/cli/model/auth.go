package model

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

var verifyCodePattern = regexp.MustCompile(`^[0-9]{6}$`)

// LoginForm is the body of POST /auth/login.
type LoginForm struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (f LoginForm) Validate() error {
	return validationFailed(validation.ValidateStruct(&f,
		validation.Field(&f.Username, validation.Required),
		validation.Field(&f.Password, validation.Required),
	))
}

// TokenResponse carries the tokens returned by a successful login.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// ProfileForm is the body of POST /auth/edit_user.
type ProfileForm struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (f ProfileForm) Validate() error {
	return validationFailed(validation.ValidateStruct(&f,
		validation.Field(&f.Username, validation.Required),
		validation.Field(&f.Email, validation.Required, is.EmailFormat),
	))
}

// ForgotPasswordForm is the body of POST /auth/forgotpass.
type ForgotPasswordForm struct {
	Email string `json:"email"`
}

func (f ForgotPasswordForm) Validate() error {
	return validationFailed(validation.ValidateStruct(&f,
		validation.Field(&f.Email, validation.Required, is.EmailFormat),
	))
}

// ForgotPasswordResponse identifies the account a reset code was sent to.
type ForgotPasswordResponse struct {
	UserID int64 `json:"UserID"`
}

// VerifyForm is the body of POST /auth/verify.
type VerifyForm struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (f VerifyForm) Validate() error {
	return validationFailed(validation.ValidateStruct(&f,
		validation.Field(&f.Email, validation.Required, is.EmailFormat),
		validation.Field(&f.Code, validation.Required,
			validation.Match(verifyCodePattern).Error("must be exactly 6 digits")),
	))
}
