package services

import "github.com/magabrotheeeer/users-api/internal/models"

// Action — операция над пользователями.
type Action string

const (
	ActionCreate        Action = "create"
	ActionRetrieve      Action = "retrieve"
	ActionList          Action = "list"
	ActionUpdate        Action = "update"
	ActionPartialUpdate Action = "partial_update"
	ActionDelete        Action = "delete"
)

// rule описывает права на операцию.
// pre проверяется до поиска целевого пользователя, object после.
// Пустая проверка разрешает операцию любому аутентифицированному пользователю.
type rule struct {
	pre    func(caller models.Principal) bool
	object func(caller models.Principal, target *models.User) bool
}

func isStaff(caller models.Principal) bool {
	return caller.IsStaff
}

var policies = map[Action]rule{
	ActionCreate:        {pre: isStaff},
	ActionRetrieve:      {},
	ActionList:          {},
	ActionUpdate:        {},
	ActionPartialUpdate: {},
	ActionDelete: {
		pre: func(caller models.Principal) bool {
			return caller.IsStaff || caller.IsSuperuser
		},
		object: func(caller models.Principal, target *models.User) bool {
			return (caller.IsStaff && !target.IsStaff) || caller.IsSuperuser
		},
	},
}

// authorize проверяет права на операцию до загрузки целевого пользователя.
func authorize(action Action, caller *models.Principal) error {
	if caller == nil || caller.ID == "" {
		return ErrUnauthenticated
	}
	r, ok := policies[action]
	if !ok {
		return ErrForbidden
	}
	if r.pre != nil && !r.pre(*caller) {
		return ErrForbidden
	}
	return nil
}

// authorizeObject проверяет права на операцию над конкретным пользователем.
func authorizeObject(action Action, caller models.Principal, target *models.User) error {
	r := policies[action]
	if r.object != nil && !r.object(caller, target) {
		return ErrForbidden
	}
	return nil
}
