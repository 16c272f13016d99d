package services

import "github.com/magabrotheeeer/users-api/internal/models"

// Shape определяет, какие поля пользователя видны и какие доступны для записи.
type Shape int

const (
	ShapeCreate Shape = iota + 1
	ShapeDetailed
	ShapeBasic
	ShapeStaffUpdate
	ShapeSelfUpdate
)

// Имена полей во входных данных и в ошибках валидации.
const (
	FieldID             = "id"
	FieldUsername       = "username"
	FieldFirstName      = "first_name"
	FieldLastName       = "last_name"
	FieldEmail          = "email"
	FieldPassword       = "password"
	FieldRepeatPassword = "repeat_password"
	FieldOldPassword    = "old_password"
	FieldGroups         = "groups"
)

var writableFields = map[Shape][]string{
	ShapeCreate: {
		FieldUsername, FieldFirstName, FieldLastName, FieldEmail,
		FieldPassword, FieldRepeatPassword, FieldGroups,
	},
	ShapeStaffUpdate: {
		FieldUsername, FieldFirstName, FieldLastName, FieldEmail,
		FieldGroups, FieldPassword,
	},
	ShapeSelfUpdate: {
		FieldUsername, FieldFirstName, FieldLastName, FieldEmail,
		FieldPassword,
	},
}

func (s Shape) String() string {
	switch s {
	case ShapeCreate:
		return "create"
	case ShapeDetailed:
		return "detailed"
	case ShapeBasic:
		return "basic"
	case ShapeStaffUpdate:
		return "staff_update"
	case ShapeSelfUpdate:
		return "self_update"
	default:
		return "unknown"
	}
}

// WritableFields возвращает поля, которые можно передать в этой форме.
// Для форм только на чтение список пуст.
func (s Shape) WritableFields() []string {
	fields := writableFields[s]
	out := make([]string, len(fields))
	copy(out, fields)
	return out
}

// Writable сообщает, доступно ли поле для записи.
func (s Shape) Writable(field string) bool {
	for _, f := range writableFields[s] {
		if f == field {
			return true
		}
	}
	return false
}

// SelectShape выбирает форму представления по операции, инициатору и цели запроса.
func SelectShape(action Action, caller models.Principal, targetID string) Shape {
	switch action {
	case ActionCreate:
		return ShapeCreate
	case ActionRetrieve:
		if caller.IsStaff || caller.ID == targetID {
			return ShapeDetailed
		}
		return ShapeBasic
	case ActionUpdate, ActionPartialUpdate:
		if caller.IsStaff {
			return ShapeStaffUpdate
		}
		return ShapeSelfUpdate
	case ActionList:
		return ShapeBasic
	default:
		return ShapeDetailed
	}
}
