package models

// Group — именованная группа, общая для всех пользователей.
type Group struct {
	ID   int
	Name string
}
