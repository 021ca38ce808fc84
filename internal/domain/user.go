package domain

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type User struct {
	ID           string `db:"id"`
	Email        string `db:"email"`
	Name         string `db:"name"`
	Firstname    string `db:"firstname"`
	Hash         string `db:"password_hash"`
	Role         string `db:"role"`
	IsConfirmed  bool   `db:"is_confirmed"`
	ConfirmToken string `db:"confirm_token"`
}
