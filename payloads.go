package session

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// Credentials is the sign-in payload. Students identify with their matric
// number plus email; staff and admins with email alone.
type Credentials struct {
	StudentID string `form:"studentId" json:"studentId,omitempty"`
	Email     string `form:"email" json:"email"`
	Password  string `form:"password" json:"password"`
}

// Validate will run validation rules
func (c Credentials) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(
			&c.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&c.Password,
			validation.Required,
			validation.Length(6, 100),
		),
	)
}

// AdminSignup is the admin registration payload.
type AdminSignup struct {
	FullName        string `form:"fullname" json:"fullname"`
	Email           string `form:"email" json:"email"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirmPassword,omitempty"`
	Role            string `form:"role" json:"role,omitempty"`
}

// Validate will validate the payload
func (p AdminSignup) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.FullName, validation.Required, validation.Length(1, 200)),
		validation.Field(&p.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&p.Password, validation.Required, validation.Length(6, 100)),
		validation.Field(
			&p.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(p.Password)),
		),
		validation.Field(
			&p.Role,
			validation.In(
				string(RoleAdmin),
				string(RoleSuperAdmin),
			),
		),
	)
}

// ForgotPassword requests a reset link. Identifier is the matric or staff
// number matching the selected role.
type ForgotPassword struct {
	Role       string `form:"role" json:"role"`
	Identifier string `form:"identifier" json:"identifier,omitempty"`
	Email      string `form:"email" json:"email"`
}

// Validate will validate the payload
func (p ForgotPassword) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(
			&p.Role,
			validation.Required,
			validation.By(validRoleString),
		),
		validation.Field(
			&p.Email,
			validation.Required,
			is.Email,
		),
	)
}

// ResetPassword completes a reset. FirstLogin marks the forced first-time
// change, where the server responds with a refreshed user.
type ResetPassword struct {
	Token           string `form:"token" json:"token"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirmPassword,omitempty"`
	FirstLogin      bool   `form:"first_login" json:"firstLogin,omitempty"`
}

// Validate will validate the payload
func (p ResetPassword) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Token, validation.Required),
		validation.Field(&p.Password, validation.Required, validation.Length(6, 100)),
		validation.Field(
			&p.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(p.Password)),
		),
	)
}

// ChangePassword is the first-login mandatory password change.
type ChangePassword struct {
	CurrentPassword string `form:"current_password" json:"currentPassword"`
	NewPassword     string `form:"new_password" json:"newPassword"`
	ConfirmPassword string `form:"confirm_password" json:"confirmPassword,omitempty"`
}

// Validate will validate the payload
func (p ChangePassword) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.CurrentPassword, validation.Required),
		validation.Field(&p.NewPassword, validation.Required, validation.Length(6, 100)),
		validation.Field(
			&p.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(p.NewPassword)),
		),
	)
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}

func validRoleString(value any) error {
	s, _ := value.(string)
	if _, ok := ParseRole(s); !ok {
		return errors.New("must be a valid role")
	}
	return nil
}

// FormatValidationErrorToMap flattens ozzo field errors for form rendering.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		for field, ferr := range fieldErrs {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}

	out["form"] = err.Error()
	return out
}
