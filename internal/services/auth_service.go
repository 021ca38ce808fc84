package services

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"lucaslea/internal/domain"
	applog "lucaslea/internal/log"
	"lucaslea/internal/repos"
	"lucaslea/internal/validate"
)

// Workflow outcomes. Handlers map these to statuses; messages are the only
// thing a client ever sees.
var (
	ErrEmailInvalid     = errors.New("invalid email address")
	ErrNameInvalid      = errors.New("name and firstname are required")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrEmailTaken       = errors.New("account could not be created")
	ErrUserNotFound     = errors.New("user not found")
	ErrWrongPassword    = errors.New("wrong password")
	ErrNotConfirmed     = errors.New("please confirm your email address before logging in")
	ErrTokenMissing     = errors.New("token missing")
	ErrTokenNotFound    = errors.New("invalid or expired link")
)

const bcryptCost = 12

// Mailer delivers the confirmation email. Implementations make exactly one
// attempt; the service owns the failure log path.
type Mailer interface {
	SendConfirmation(email, token string) error
}

type AuthService struct {
	Users *repos.UserRepo
	Mail  Mailer
}

type RegisterInput struct {
	Name            string
	Firstname       string
	Email           string
	Password        string
	ConfirmPassword string
}

// Register creates an unconfirmed account and kicks off the confirmation
// email. The registration is complete once the record is persisted; mail
// delivery is best effort on its own goroutine and never affects the result.
func (s *AuthService) Register(in RegisterInput) error {
	email, ok := validate.Email(in.Email)
	if !ok {
		return ErrEmailInvalid
	}
	name, okName := validate.Name(in.Name)
	firstname, okFirst := validate.Name(in.Firstname)
	if !okName || !okFirst {
		return ErrNameInvalid
	}
	if in.Password != in.ConfirmPassword {
		return ErrPasswordMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return err
	}
	token, err := newConfirmToken()
	if err != nil {
		return err
	}

	u := &domain.User{
		Email:        email,
		Name:         name,
		Firstname:    firstname,
		Hash:         string(hash),
		Role:         domain.RoleUser,
		IsConfirmed:  false,
		ConfirmToken: token,
	}
	if err := s.Users.Create(u); err != nil {
		if errors.Is(err, repos.ErrDuplicateEmail) {
			return ErrEmailTaken
		}
		return err
	}

	go s.dispatchConfirmation(u.Email, token)
	return nil
}

// Login verifies credentials and binds the session on success. The
// confirmation check runs before password verification so an unconfirmed
// account never reveals whether the password was right. The session is only
// touched on the success path.
func (s *AuthService) Login(sid, email, password string) (*domain.User, error) {
	email, ok := validate.Email(email)
	if !ok {
		return nil, ErrEmailInvalid
	}
	u, err := s.Users.ByEmail(email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !u.IsConfirmed {
		return nil, ErrNotConfirmed
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrWrongPassword
	}
	if err := s.Users.BindSession(sid, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

// Confirm consumes a confirmation token. The transition is one-way and
// idempotent: revisiting an already-consumed link succeeds without touching
// the record again.
func (s *AuthService) Confirm(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrTokenMissing
	}
	if !validate.Token(token) {
		return ErrTokenNotFound
	}
	u, err := s.Users.ByConfirmToken(token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTokenNotFound
		}
		return err
	}
	if u.IsConfirmed {
		return nil
	}
	return s.Users.Confirm(u.ID)
}

func (s *AuthService) Logout(sid string) error {
	return s.Users.UnbindSession(sid)
}

func (s *AuthService) CurrentUser(sid string) (*domain.User, error) {
	return s.Users.SessionUser(sid)
}

func (s *AuthService) dispatchConfirmation(email, token string) {
	if s.Mail == nil {
		return
	}
	if err := s.Mail.SendConfirmation(email, token); err != nil {
		applog.Background("mail.confirmation.fail", err, map[string]any{"email": email})
	}
}

// newConfirmToken returns 32 bytes of entropy, hex encoded.
func newConfirmToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
