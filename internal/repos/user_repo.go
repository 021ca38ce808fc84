package repos

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"lucaslea/internal/domain"
)

// ErrDuplicateEmail is the structured signal for a unique-constraint hit on
// users.email; callers must not see the raw driver error.
var ErrDuplicateEmail = errors.New("email already registered")

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = `id,email,name,firstname,password_hash,role,is_confirmed,confirm_token`

func (r *UserRepo) ByEmail(email string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, `SELECT `+userCols+` FROM users WHERE LOWER(email)=LOWER(?)`, email)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ByID(id string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, `SELECT `+userCols+` FROM users WHERE id=?`, id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ByConfirmToken looks a record up by its confirmation token, confirmed or
// not, so re-visiting a consumed link stays a no-op.
func (r *UserRepo) ByConfirmToken(token string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, `SELECT `+userCols+` FROM users WHERE confirm_token=?`, token)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new account and assigns its id. A unique violation on
// email maps to ErrDuplicateEmail; any other failure passes through.
func (r *UserRepo) Create(u *domain.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	_, err := r.DB.Exec(`
		INSERT INTO users(id,email,name,firstname,password_hash,role,is_confirmed,confirm_token)
		VALUES(?,?,?,?,?,?,?,?)`,
		u.ID, u.Email, u.Name, u.Firstname, u.Hash, u.Role, u.IsConfirmed, u.ConfirmToken)
	if err != nil {
		var se *sqlite.Error
		if errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// Confirm flips is_confirmed; running it on an already-confirmed record is harmless.
func (r *UserRepo) Confirm(id string) error {
	_, err := r.DB.Exec(`UPDATE users SET is_confirmed=1 WHERE id=?`, id)
	return err
}

func (r *UserRepo) BindSession(sid, userID string) error {
	_, err := r.DB.Exec(`INSERT INTO sessions(id,user_id,last_seen)
                          VALUES(?,?,CURRENT_TIMESTAMP)
                          ON CONFLICT(id) DO UPDATE SET user_id=excluded.user_id,last_seen=CURRENT_TIMESTAMP`, sid, userID)
	return err
}

func (r *UserRepo) SessionUser(sid string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, `
      SELECT u.id,u.email,u.name,u.firstname,u.password_hash,u.role,u.is_confirmed,u.confirm_token
      FROM sessions s
      JOIN users u ON u.id=s.user_id
      WHERE s.id=?`, sid)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) UnbindSession(sid string) error {
	_, err := r.DB.Exec(`UPDATE sessions SET user_id=NULL,last_seen=CURRENT_TIMESTAMP WHERE id=?`, sid)
	return err
}

// DeleteUserCascade removes an account and its session bindings.
func (r *UserRepo) DeleteUserCascade(userID string) error {
	tx, err := r.DB.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM sessions WHERE user_id=?`, userID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM users WHERE id=?`, userID); err != nil {
		return err
	}
	return tx.Commit()
}
