package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"restopos/internal/domain"
	"restopos/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotAuthorized      = errors.New("not authorized")
)

// session is the persisted login record; the signed token carries the
// username, role and expiry so a restart can restore the session
// without re-prompting.
type session struct {
	Token string `json:"token"`
}

type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// seedUsers creates the default admin and cashier accounts on first
// run. An existing users record, even an empty one, is left alone.
func (s *Service) seedUsers(ctx context.Context) error {
	var users []domain.UserAccount
	if s.loadRecord(ctx, store.KeyUsers, &users) {
		return nil
	}

	for _, seed := range []struct{ username, role string }{
		{"admin", domain.RoleAdmin},
		{"cashier", domain.RoleCashier},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(s.seedPasswords[seed.role]), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash seed password for %s: %w", seed.username, err)
		}
		users = append(users, domain.UserAccount{
			Username:  seed.username,
			Password:  string(hash),
			Role:      seed.role,
			Active:    true,
			CreatedAt: s.now(),
		})
	}

	if err := s.repo.Save(ctx, store.KeyUsers, users); err != nil {
		return fmt.Errorf("save seeded users: %w", err)
	}
	return nil
}

// restoreSession revives the persisted login if its token is still
// valid. An expired or tampered token just means nobody is logged in.
func (s *Service) restoreSession(ctx context.Context) {
	var sess session
	if !s.loadRecord(ctx, store.KeyCurrentUser, &sess) || sess.Token == "" {
		return
	}

	user, err := s.parseToken(sess.Token)
	if err != nil {
		log.Printf("[service] WARN: discarding stale session: %v", err)
		return
	}
	s.currentUser = &user
}

func (s *Service) parseToken(token string) (domain.User, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.sessionSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return domain.User{}, err
	}
	if !parsed.Valid || claims.Subject == "" {
		return domain.User{}, errors.New("invalid session token")
	}
	return domain.User{Username: claims.Subject, Role: claims.Role}, nil
}

// Login verifies the credentials against the stored accounts, issues
// a signed session token and persists it so the login survives a
// restart.
func (s *Service) Login(ctx context.Context, username, password string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var users []domain.UserAccount
	s.loadRecord(ctx, store.KeyUsers, &users)

	idx := slices.IndexFunc(users, func(u domain.UserAccount) bool { return u.Username == username })
	if idx < 0 || !users[idx].Active {
		return domain.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(users[idx].Password), []byte(password)); err != nil {
		return domain.User{}, ErrInvalidCredentials
	}

	now := s.now()
	claims := sessionClaims{
		Role: users[idx].Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   users[idx].Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.sessionSecret)
	if err != nil {
		return domain.User{}, fmt.Errorf("sign session token: %w", err)
	}

	if err := s.repo.Save(ctx, store.KeyCurrentUser, session{Token: token}); err != nil {
		return domain.User{}, fmt.Errorf("save session: %w", err)
	}

	user := domain.User{Username: users[idx].Username, Role: users[idx].Role}
	s.currentUser = &user
	return user, nil
}

// Logout drops the persisted session. Logging out while logged out is
// not an error.
func (s *Service) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Delete(ctx, store.KeyCurrentUser); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.currentUser = nil
	return nil
}

// CurrentUser reports the logged-in user, if any.
func (s *Service) CurrentUser() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.currentUser == nil {
		return domain.User{}, false
	}
	return *s.currentUser, true
}

// HasRole reports whether the logged-in user holds the role. Admin
// implies every role.
func (s *Service) HasRole(role string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasRoleLocked(role)
}

func (s *Service) hasRoleLocked(role string) bool {
	if s.currentUser == nil {
		return false
	}
	return s.currentUser.Role == role || s.currentUser.Role == domain.RoleAdmin
}

func (s *Service) requireRoleLocked(role string) error {
	if !s.hasRoleLocked(role) {
		return fmt.Errorf("%w: %s role required", ErrNotAuthorized, role)
	}
	return nil
}
