// Package users implements registration, login, session lifecycle, and the
// admin member operations (list with selections, role change, deletion).
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/growthcompass/server/internal/auth"
	"github.com/rs/zerolog"
)

var (
	ErrNotFound         = errors.New("user not found")
	ErrEmailTaken       = errors.New("email is already taken")
	ErrInvalidRole      = errors.New("invalid role")
	ErrSelfDeletion     = errors.New("admins cannot delete themselves")
	ErrPasswordTooShort = errors.New("password is too short")
	ErrMissingField     = errors.New("name and email are required")
)

// User is a registered member of the group.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// Member is a user with their selections grouped per viewpoint, as shown in
// the admin member view.
type Member struct {
	User       User
	Selections map[string]MemberSelection
}

// MemberSelection is the step/memo pair for one viewpoint.
type MemberSelection struct {
	Step int
	Memo string
}

// MemberRow is one row of the users-to-selections join. Selection columns are
// nil for users without any selection.
type MemberRow struct {
	User      User
	Viewpoint *string
	Step      *int
	Memo      *string
}

// Repository is the persistence surface for users.
type Repository interface {
	Create(ctx context.Context, user User) (User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ListWithSelections(ctx context.Context) ([]MemberRow, error)
	UpdateRole(ctx context.Context, id, role string) error
	Delete(ctx context.Context, id string) error
}

type Service struct {
	repo          Repository
	sessions      auth.SessionStore
	sessionExpiry time.Duration
	minPassword   int
	logger        zerolog.Logger
}

func NewService(repo Repository, sessions auth.SessionStore, sessionExpiry time.Duration, minPassword int, logger zerolog.Logger) *Service {
	if sessionExpiry <= 0 {
		sessionExpiry = auth.DefaultSessionExpiry
	}
	return &Service{
		repo:          repo,
		sessions:      sessions,
		sessionExpiry: sessionExpiry,
		minPassword:   minPassword,
		logger:        logger.With().Str("component", "users").Logger(),
	}
}

// RegisterParams carries the registration payload after transport decoding.
type RegisterParams struct {
	Name     string
	Email    string
	Password string
}

// Register creates a member account and issues a session token.
func (s *Service) Register(ctx context.Context, params RegisterParams) (User, *auth.Session, error) {
	name := strings.TrimSpace(params.Name)
	email := normalizeEmail(params.Email)
	if name == "" || email == "" {
		return User{}, nil, ErrMissingField
	}
	if len(params.Password) < s.minPassword {
		return User{}, nil, ErrPasswordTooShort
	}

	if existing, err := s.repo.GetByEmail(ctx, email); err != nil && !errors.Is(err, ErrNotFound) {
		return User{}, nil, fmt.Errorf("check email: %w", err)
	} else if existing != nil {
		return User{}, nil, ErrEmailTaken
	}

	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		return User{}, nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         auth.RoleMember,
	})
	if err != nil {
		// A concurrent registration can still hit the unique constraint.
		if errors.Is(err, ErrEmailTaken) {
			return User{}, nil, ErrEmailTaken
		}
		return User{}, nil, fmt.Errorf("create user: %w", err)
	}

	session, err := s.issueSession(ctx, user.ID)
	if err != nil {
		return User{}, nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Msg("member registered")
	return user, session, nil
}

// Login verifies credentials and issues a fresh session token.
func (s *Service) Login(ctx context.Context, email, password string) (User, *auth.Session, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, nil, auth.ErrInvalidCredentials
		}
		return User{}, nil, fmt.Errorf("lookup user: %w", err)
	}

	if err := auth.VerifyPassword(user.PasswordHash, password); err != nil {
		return User{}, nil, auth.ErrInvalidCredentials
	}

	session, err := s.issueSession(ctx, user.ID)
	if err != nil {
		return User{}, nil, err
	}
	return *user, session, nil
}

// Logout deletes the session row; the token is dead immediately.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Delete(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// GetByID returns a single user.
func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// ListMembers joins users with their selections and groups them per user.
// Users without selections appear with an empty map.
func (s *Service) ListMembers(ctx context.Context) ([]Member, error) {
	rows, err := s.repo.ListWithSelections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	var members []Member
	index := make(map[string]int)
	for _, row := range rows {
		pos, ok := index[row.User.ID]
		if !ok {
			pos = len(members)
			index[row.User.ID] = pos
			members = append(members, Member{
				User:       row.User,
				Selections: make(map[string]MemberSelection),
			})
		}
		if row.Viewpoint != nil && row.Step != nil {
			memo := ""
			if row.Memo != nil {
				memo = *row.Memo
			}
			members[pos].Selections[*row.Viewpoint] = MemberSelection{Step: *row.Step, Memo: memo}
		}
	}
	return members, nil
}

// ChangeRole updates a user's role after validating it against the enumerated
// set.
func (s *Service) ChangeRole(ctx context.Context, id, role string) error {
	if !auth.IsValidRole(role) {
		return ErrInvalidRole
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.UpdateRole(ctx, id, role); err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	return nil
}

// Delete removes a user. Admins cannot delete themselves; selections,
// sessions, attendances, and answers go with the user via FK cascade.
func (s *Service) Delete(ctx context.Context, id, actorID string) error {
	if id == actorID {
		return ErrSelfDeletion
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func (s *Service) issueSession(ctx context.Context, userID string) (*auth.Session, error) {
	token, err := auth.NewSessionToken()
	if err != nil {
		return nil, err
	}
	session := auth.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: time.Now().Add(s.sessionExpiry),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &session, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
