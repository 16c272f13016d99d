package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/users-api/internal/models"
)

const (
	msgRequired         = "This field is required."
	msgBlank            = "This field may not be blank."
	msgInvalidEmail     = "Enter a valid email address."
	msgInvalidUsername  = "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	msgMaxLength        = "Ensure this field has no more than %s characters."
	msgInvalid          = "Invalid value."
	msgEmailExists      = "E-mail already exists."
	msgUsernameExists   = "A user with that username already exists."
	msgPasswordMismatch = "Password doesn't match"
	msgOldPasswordReq   = "Previous password is required"
	msgInvalidUserID    = "Invalid user id"
	msgOldPasswordWrong = "Old password is incorrect"

	maxGroupNameLength = 150
)

// notBlankFields не могут быть пустой строкой, если переданы.
var notBlankFields = []string{FieldUsername, FieldEmail, FieldPassword, FieldRepeatPassword}

var usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)

// UserInput — входные данные для создания и изменения пользователя.
// nil означает, что поле не передано.
type UserInput struct {
	Username       *string  `json:"username,omitempty"`
	FirstName      *string  `json:"first_name,omitempty"`
	LastName       *string  `json:"last_name,omitempty"`
	Email          *string  `json:"email,omitempty"`
	Password       *string  `json:"password,omitempty"`
	RepeatPassword *string  `json:"repeat_password,omitempty"`
	OldPassword    *string  `json:"old_password,omitempty"`
	Groups         []string `json:"groups,omitempty"`
}

// fieldValues — переданные значения для проверки тегами validator.
type fieldValues struct {
	Username  string `json:"username" validate:"omitempty,max=150,username"`
	FirstName string `json:"first_name" validate:"omitempty,max=150"`
	LastName  string `json:"last_name" validate:"omitempty,max=150"`
	Email     string `json:"email" validate:"omitempty,max=254,email"`
	Password  string `json:"password" validate:"omitempty,max=128"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	return v
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "email":
		return msgInvalidEmail
	case "username":
		return msgInvalidUsername
	case "max":
		return fmt.Sprintf(msgMaxLength, fe.Param())
	default:
		return msgInvalid
	}
}

func (in UserInput) value(field string) *string {
	switch field {
	case FieldUsername:
		return in.Username
	case FieldFirstName:
		return in.FirstName
	case FieldLastName:
		return in.LastName
	case FieldEmail:
		return in.Email
	case FieldPassword:
		return in.Password
	case FieldRepeatPassword:
		return in.RepeatPassword
	case FieldOldPassword:
		return in.OldPassword
	default:
		return nil
	}
}

func (in UserInput) present(field string) bool {
	if field == FieldGroups {
		return in.Groups != nil
	}
	return in.value(field) != nil
}

// restrict отбрасывает поля, недоступные для записи в форме.
// old_password сохраняется для формы самостоятельного изменения.
func (in UserInput) restrict(shape Shape) UserInput {
	out := UserInput{}
	keep := func(field string, v *string) *string {
		if shape.Writable(field) {
			return v
		}
		return nil
	}
	out.Username = keep(FieldUsername, in.Username)
	out.FirstName = keep(FieldFirstName, in.FirstName)
	out.LastName = keep(FieldLastName, in.LastName)
	out.Email = keep(FieldEmail, in.Email)
	out.Password = keep(FieldPassword, in.Password)
	out.RepeatPassword = keep(FieldRepeatPassword, in.RepeatPassword)
	if shape == ShapeSelfUpdate {
		out.OldPassword = in.OldPassword
	}
	if shape.Writable(FieldGroups) {
		out.Groups = in.Groups
	}
	return out
}

func (in UserInput) values() fieldValues {
	deref := func(v *string) string {
		if v == nil {
			return ""
		}
		return *v
	}
	return fieldValues{
		Username:  deref(in.Username),
		FirstName: deref(in.FirstName),
		LastName:  deref(in.LastName),
		Email:     deref(in.Email),
		Password:  deref(in.Password),
	}
}

// applyTo переносит переданные поля в пользователя. Пароль не переносится.
func (in UserInput) applyTo(user *models.User) {
	if in.Username != nil {
		user.Username = *in.Username
	}
	if in.FirstName != nil {
		user.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		user.LastName = *in.LastName
	}
	if in.Email != nil {
		user.Email = *in.Email
	}
	if in.Groups != nil {
		user.Groups = append([]string{}, in.Groups...)
	}
}

// normalizeGroups убирает дубликаты и сортирует имена групп.
func normalizeGroups(names []string) ([]string, []string) {
	var msgs []string
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		switch {
		case strings.TrimSpace(name) == "":
			msgs = appendOnce(msgs, msgBlank)
			continue
		case len([]rune(name)) > maxGroupNameLength:
			msgs = appendOnce(msgs, fmt.Sprintf(msgMaxLength, fmt.Sprint(maxGroupNameLength)))
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out, msgs
}

func appendOnce(list []string, msg string) []string {
	for _, m := range list {
		if m == msg {
			return list
		}
	}
	return append(list, msg)
}

// validateInput проверяет входные данные в рамках формы и возвращает
// нормализованный ввод. Все нарушения по полям собираются за один проход.
// Совпадение repeat_password проверяется только если остальные поля корректны.
func (s *UserService) validateInput(ctx context.Context, shape Shape, in UserInput, target *models.User, partial bool) (UserInput, error) {
	const op = "services.users.validateInput"

	in = in.restrict(shape)
	verr := newValidationError()

	if !partial {
		for _, field := range shape.WritableFields() {
			if !in.present(field) {
				verr.Add(field, msgRequired)
			}
		}
	}
	for _, field := range notBlankFields {
		if v := in.value(field); v != nil && *v == "" {
			verr.Add(field, msgBlank)
		}
	}

	if err := s.validate.Struct(in.values()); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return UserInput{}, fmt.Errorf("%s: %w", op, err)
		}
		for _, fe := range fieldErrs {
			verr.Add(fe.Field(), fieldMessage(fe))
		}
	}

	if in.Groups != nil {
		groups, msgs := normalizeGroups(in.Groups)
		for _, msg := range msgs {
			verr.Add(FieldGroups, msg)
		}
		in.Groups = groups
	}

	excludeID := ""
	if target != nil {
		excludeID = target.ID
	}
	if in.Email != nil && !verr.Has(FieldEmail) {
		taken, err := s.users.EmailExists(ctx, *in.Email, excludeID)
		if err != nil {
			return UserInput{}, fmt.Errorf("%s: %w", op, err)
		}
		if taken {
			verr.Add(FieldEmail, msgEmailExists)
		}
	}
	if in.Username != nil && !verr.Has(FieldUsername) {
		taken, err := s.users.UsernameExists(ctx, *in.Username, excludeID)
		if err != nil {
			return UserInput{}, fmt.Errorf("%s: %w", op, err)
		}
		if taken {
			verr.Add(FieldUsername, msgUsernameExists)
		}
	}

	if in.Password != nil && !verr.Has(FieldPassword) {
		candidate := models.User{}
		if target != nil {
			candidate = *target
		}
		in.applyTo(&candidate)
		if violations := s.passwords.Validate(*in.Password, &candidate); len(violations) > 0 {
			verr.Add(FieldPassword, strings.Join(violations, " "))
		}
	}

	if verr.Empty() && shape == ShapeCreate &&
		in.Password != nil && in.RepeatPassword != nil && *in.RepeatPassword != *in.Password {
		verr.Add(FieldRepeatPassword, msgPasswordMismatch)
	}

	if !verr.Empty() {
		return UserInput{}, verr
	}
	return in, nil
}

// checkSelfUpdate проверяет условия самостоятельного изменения учётной записи.
func (s *UserService) checkSelfUpdate(caller models.Principal, target *models.User, in UserInput) error {
	if in.OldPassword == nil || *in.OldPassword == "" {
		return fieldError(FieldOldPassword, msgOldPasswordReq)
	}
	if target.ID != caller.ID {
		return fieldError(FieldID, msgInvalidUserID)
	}
	if !s.passwords.Verify(target, *in.OldPassword) {
		return fieldError(FieldOldPassword, msgOldPasswordWrong)
	}
	return nil
}
