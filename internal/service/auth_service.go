package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/taskboard/internal/logging"
	"github.com/iliyamo/taskboard/internal/model"
	"github.com/iliyamo/taskboard/internal/queue"
	"github.com/iliyamo/taskboard/internal/repository"
	"github.com/iliyamo/taskboard/internal/utils"
)

// TokenPair is what every successful authentication returns.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthResult is the register/login response body: {user, accessToken, refreshToken}.
type AuthResult struct {
	User model.User `json:"user"`
	TokenPair
}

// AuthService runs the session lifecycle: register, login, refresh
// rotation, logout and password change.
type AuthService struct {
	users      UserStore
	sessions   SessionStore
	tokens     *utils.TokenService
	bcryptCost int
	events     EventPublisher
	log        logging.Logger
	now        func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(users UserStore, sessions SessionStore, tokens *utils.TokenService, bcryptCost int, events EventPublisher, log logging.Logger) *AuthService {
	if events == nil {
		events = NopPublisher
	}
	return &AuthService{
		users:      users,
		sessions:   sessions,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		events:     events,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Register creates the user with its default categories and signs it in.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (AuthResult, error) {
	email = repository.NormalizeEmail(email)
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return AuthResult{}, ErrConflict
	} else if !errors.Is(err, repository.ErrNotFound) {
		return AuthResult{}, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return AuthResult{}, err
	}

	now := s.now()
	u := model.User{ID: uuid.NewString(), Email: email, Name: name, PasswordHash: hash, CreatedAt: now, UpdatedAt: now}
	cats := model.DefaultCategories()
	for i := range cats {
		cats[i].ID = uuid.NewString()
		cats[i].UserID = u.ID
		// keeps the seeded order stable under ORDER BY created_at
		cats[i].CreatedAt = now.Add(time.Duration(i) * time.Millisecond)
	}
	if err := s.users.CreateWithCategories(ctx, &u, cats); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return AuthResult{}, ErrConflict
		}
		return AuthResult{}, err
	}

	pair, err := s.issuePair(ctx, u)
	if err != nil {
		return AuthResult{}, err
	}
	s.publish(ctx, queue.TaskEvent{Type: queue.UserRegistered, UserID: u.ID})
	return AuthResult{User: u, TokenPair: pair}, nil
}

// Login verifies credentials. Unknown emails and wrong passwords produce
// the same error and cost the same bcrypt work.
func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		utils.VerifyPassword(s.dummy(), password)
		return AuthResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return AuthResult{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return AuthResult{}, ErrInvalidCredentials
	}
	pair, err := s.issuePair(ctx, u)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{User: u, TokenPair: pair}, nil
}

// Refresh rotates a refresh token: the presented one is consumed and a
// new pair is issued. Of two concurrent calls with the same token only
// one succeeds.
func (s *AuthService) Refresh(ctx context.Context, raw string) (TokenPair, error) {
	hash := utils.HashToken(raw)
	claims, err := s.tokens.VerifyRefreshToken(raw)
	if err != nil {
		s.forget(ctx, hash)
		return TokenPair{}, ErrInvalidOrExpiredToken
	}

	won, err := s.sessions.Consume(ctx, hash, claims.UserID, s.now())
	if err != nil {
		return TokenPair{}, err
	}
	if !won {
		s.forget(ctx, hash)
		return TokenPair{}, ErrInvalidOrExpiredToken
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return TokenPair{}, ErrInvalidOrExpiredToken
	}
	if err != nil {
		return TokenPair{}, err
	}
	return s.issuePair(ctx, u)
}

// Logout deletes the session behind raw. It never fails.
func (s *AuthService) Logout(ctx context.Context, raw string) {
	if raw == "" {
		return
	}
	if _, err := s.sessions.DeleteByHash(ctx, utils.HashToken(raw)); err != nil {
		s.log.Warn(ctx, "logout: delete session failed", "err", err)
	}
}

// ChangePassword replaces the password, revokes every session of the
// user and returns a fresh pair for the caller, all in one transaction.
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) (TokenPair, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return TokenPair{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, current) {
		return TokenPair{}, ErrInvalidCredentials
	}
	hash, err := utils.HashPassword(next, s.bcryptCost)
	if err != nil {
		return TokenPair{}, err
	}
	pair, record, err := s.mintPair(u)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.users.ReplacePassword(ctx, u.ID, hash, s.now(), record); err != nil {
		return TokenPair{}, err
	}
	return pair, nil
}

// PurgeExpired removes refresh tokens past their expiry.
func (s *AuthService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.sessions.PurgeExpired(ctx, s.now())
}

func (s *AuthService) issuePair(ctx context.Context, u model.User) (TokenPair, error) {
	pair, record, err := s.mintPair(u)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.sessions.Store(ctx, record); err != nil {
		return TokenPair{}, err
	}
	return pair, nil
}

func (s *AuthService) mintPair(u model.User) (TokenPair, model.RefreshToken, error) {
	access, err := s.tokens.IssueAccessToken(u.ID, u.Email)
	if err != nil {
		return TokenPair{}, model.RefreshToken{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefreshToken(u.ID, uuid.NewString())
	if err != nil {
		return TokenPair{}, model.RefreshToken{}, fmt.Errorf("issue refresh token: %w", err)
	}
	record := model.RefreshToken{
		ID:        refresh.ID,
		UserID:    u.ID,
		TokenHash: utils.HashToken(refresh.Token),
		ExpiresAt: refresh.Exp,
		CreatedAt: s.now(),
	}
	return TokenPair{AccessToken: access.Token, RefreshToken: refresh.Token}, record, nil
}

// forget drops a stored session that can no longer be used, such as one
// presented after its expiry.
func (s *AuthService) forget(ctx context.Context, hash string) {
	if _, err := s.sessions.DeleteByHash(ctx, hash); err != nil {
		s.log.Warn(ctx, "refresh: cleanup failed", "err", err)
	}
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = utils.HashPassword(uuid.NewString(), s.bcryptCost)
	})
	return s.dummyHash
}

func (s *AuthService) publish(ctx context.Context, ev queue.TaskEvent) {
	ev.OccurredAt = s.now()
	_ = s.events.Publish(ctx, ev)
}
