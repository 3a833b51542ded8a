// Package auth registers users and issues the sessions that identify them.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/prefs"
)

const (
	usersKey       = "users"
	minPasswordLen = 6

	// bcrypt refuses longer input
	maxPasswordBytes = 72
)

var (
	ErrMissingFields      = errors.New("please fill all fields")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrWeakPassword       = errors.New("password does not meet the requirements")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes")
	ErrEmailTaken         = errors.New("user already exists with this email")
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrSessionNotFound    = errors.New("session not found or expired")
)

type (
	RegisterInput struct {
		Username        string `json:"username"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}

	// User is a stored credential record. Only the bcrypt hash is kept.
	User struct {
		Username     string    `json:"username"`
		Email        string    `json:"email"`
		PasswordHash string    `json:"passwordHash"`
		CreatedAt    time.Time `json:"createdAt"`
	}

	Session struct {
		Token     string    `json:"token"`
		Username  string    `json:"username"`
		Email     string    `json:"email"`
		IssuedAt  time.Time `json:"issuedAt"`
		ExpiresAt time.Time `json:"expiresAt"`
	}
)

func SessionKey(token string) string { return "session:" + token }

type Option func(*Service)

func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithHashCost sets the bcrypt cost; tests use bcrypt.MinCost.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

type Service struct {
	prefs  prefs.Store
	ttl    time.Duration
	cost   int
	now    func() time.Time
	logger *slog.Logger

	mu sync.Mutex // serializes read-modify-write of the user list
}

func NewService(p prefs.Store, opts ...Option) *Service {
	s := &Service{
		prefs:  p,
		ttl:    30 * 24 * time.Hour,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckPassword requires a lowercase letter, an uppercase letter, a digit,
// at least six characters and no surrounding whitespace. Passwords over 72
// bytes give ErrPasswordTooLong.
func CheckPassword(p string) error {
	if len(p) > maxPasswordBytes {
		return ErrPasswordTooLong
	}
	var lower, upper, digit bool
	for _, r := range p {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !lower || !upper || !digit || len([]rune(p)) < minPasswordLen || strings.TrimSpace(p) != p {
		return ErrWeakPassword
	}
	return nil
}

// Register validates in.Password plus the uniqueness of email and username
// and stores the new user.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	if username == "" || email == "" || in.Password == "" || in.ConfirmPassword == "" {
		return User{}, ErrMissingFields
	}
	if in.Password != in.ConfirmPassword {
		return User{}, ErrPasswordMismatch
	}
	if err := CheckPassword(in.Password); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.users(ctx)
	if err != nil {
		return User{}, err
	}
	for _, u := range users {
		if strings.EqualFold(u.Email, email) {
			return User{}, ErrEmailTaken
		}
	}
	for _, u := range users {
		if u.Username == username {
			return User{}, ErrUsernameTaken
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	u := User{Username: username, Email: email, PasswordHash: string(hash), CreatedAt: s.now()}

	edit, err := prefs.PutJSON(usersKey, append(users, u))
	if err != nil {
		return User{}, err
	}
	if err := s.prefs.Apply(ctx, edit); err != nil {
		return User{}, fmt.Errorf("save user: %w", err)
	}
	s.logger.InfoContext(ctx, "User registered", "username", username)
	return u, nil
}

// Login checks the trimmed credentials and persists a new session.
func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	username, password = strings.TrimSpace(username), strings.TrimSpace(password)
	if username == "" || password == "" {
		return Session{}, ErrMissingFields
	}

	users, err := s.users(ctx)
	if err != nil {
		return Session{}, err
	}
	var found *User
	for i := range users {
		if users[i].Username == username {
			found = &users[i]
			break
		}
	}
	if found == nil || bcrypt.CompareHashAndPassword([]byte(found.PasswordHash), []byte(password)) != nil {
		s.logger.WarnContext(ctx, "Login failed", "username", username)
		return Session{}, ErrInvalidCredentials
	}

	now := s.now()
	sess := Session{
		Token:     uuid.NewString(),
		Username:  found.Username,
		Email:     found.Email,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}
	edit, err := prefs.PutJSON(SessionKey(sess.Token), sess)
	if err != nil {
		return Session{}, err
	}
	if err := s.prefs.Apply(ctx, edit); err != nil {
		return Session{}, fmt.Errorf("save session: %w", err)
	}
	s.logger.InfoContext(ctx, "User logged in", "username", sess.Username)
	return sess, nil
}

// Resolve returns the live session for token. Expired sessions are dropped.
func (s *Service) Resolve(ctx context.Context, token string) (Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Session{}, ErrSessionNotFound
	}
	var sess Session
	found, err := prefs.GetJSON(ctx, s.prefs, SessionKey(token), &sess)
	switch {
	case errors.Is(err, prefs.ErrDecode):
		found = false
	case err != nil:
		return Session{}, fmt.Errorf("read session: %w", err)
	}
	if !found {
		return Session{}, ErrSessionNotFound
	}
	if !s.now().Before(sess.ExpiresAt) {
		if err := s.prefs.Apply(ctx, prefs.Remove(SessionKey(token))); err != nil {
			s.logger.WarnContext(ctx, "Failed to drop expired session", "username", sess.Username, "error", err)
		}
		return Session{}, ErrSessionNotFound
	}
	return sess, nil
}

// Logout drops the session. Users and their ledgers are kept.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.prefs.Apply(ctx, prefs.Remove(SessionKey(strings.TrimSpace(token)))); err != nil {
		return fmt.Errorf("drop session: %w", err)
	}
	return nil
}

// users reads the credential list. An unreadable list is treated as empty,
// like the other preference loaders.
func (s *Service) users(ctx context.Context) ([]User, error) {
	var users []User
	_, err := prefs.GetJSON(ctx, s.prefs, usersKey, &users)
	switch {
	case errors.Is(err, prefs.ErrDecode):
		s.logger.WarnContext(ctx, "Stored user list is malformed, treating as empty", "error", err)
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("read users: %w", err)
	}
	return users, nil
}
