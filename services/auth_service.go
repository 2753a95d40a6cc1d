package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/beach-league/auth"
	"github.com/Dosada05/beach-league/models"
	"github.com/Dosada05/beach-league/repositories"
	"github.com/Dosada05/beach-league/utils"
	"github.com/google/uuid"
)

const minPasswordLength = 6

type AuthService interface {
	// CreateAccount creates the credentials and a player profile with zeroed stats.
	CreateAccount(ctx context.Context, input CreateAccountInput) (*models.Identity, error)
	SignIn(ctx context.Context, email, password string) (*models.Identity, string, error)
	SignOut(ctx context.Context, identity *models.Identity) error
	// Authenticate resolves a token to the identity of a live session.
	Authenticate(ctx context.Context, token string) (*models.Identity, error)
	// Subscribe delivers the user's identity on every sign-in and nil when sessionID signs out.
	// An empty sessionID receives the sign-out of any of the user's sessions.
	Subscribe(userID, sessionID string, fn func(*models.Identity)) (unsubscribe func())
}

type CreateAccountInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type authService struct {
	accountRepo repositories.AccountRepository
	playerRepo  repositories.PlayerRepository
	tokens      *auth.TokenManager
	sessions    auth.SessionStore
	broker      *auth.Broker
	adminEmails map[string]struct{}
	logger      *slog.Logger
}

func NewAuthService(
	accountRepo repositories.AccountRepository,
	playerRepo repositories.PlayerRepository,
	tokens *auth.TokenManager,
	sessions auth.SessionStore,
	broker *auth.Broker,
	adminEmails []string,
	logger *slog.Logger,
) AuthService {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, email := range adminEmails {
		admins[strings.ToLower(strings.TrimSpace(email))] = struct{}{}
	}
	return &authService{
		accountRepo: accountRepo,
		playerRepo:  playerRepo,
		tokens:      tokens,
		sessions:    sessions,
		broker:      broker,
		adminEmails: admins,
		logger:      logger,
	}
}

func (s *authService) CreateAccount(ctx context.Context, input CreateAccountInput) (*models.Identity, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	name := strings.TrimSpace(input.DisplayName)
	if !utils.IsValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if len(input.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}
	if name == "" {
		return nil, ErrNameRequired
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("ошибка хеширования пароля: %w", err)
	}

	account := &models.Account{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  name,
		PasswordHash: hash,
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		if errors.Is(err, repositories.ErrAccountEmailConflict) {
			return nil, ErrEmailTaken
		}
		return nil, storeError("create account", err)
	}

	_, isAdmin := s.adminEmails[email]
	player := &models.PlayerProfile{
		ID:      account.ID,
		Name:    name,
		Email:   email,
		IsAdmin: isAdmin,
	}
	if err := s.playerRepo.Create(ctx, player); err != nil {
		// Без профиля аккаунт бесполезен: удаляем его, чтобы email можно было использовать снова.
		if delErr := s.accountRepo.Delete(ctx, account.ID); delErr != nil {
			s.logger.ErrorContext(ctx, "account left without player profile",
				slog.String("user_id", account.ID), slog.Any("error", err), slog.Any("cleanup_error", delErr))
		}
		if errors.Is(err, repositories.ErrPlayerEmailConflict) {
			return nil, ErrEmailTaken
		}
		return nil, storeError("create player profile", err)
	}

	return &models.Identity{UserID: account.ID, Email: email, Name: name, IsAdmin: isAdmin}, nil
}

func (s *authService) SignIn(ctx context.Context, email, password string) (*models.Identity, string, error) {
	account, err := s.accountRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repositories.ErrAccountNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", storeError("get account", err)
	}
	if !utils.CheckPasswordHash(password, account.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	identity, err := s.identityFor(ctx, account)
	if err != nil {
		return nil, "", err
	}

	sessionID := uuid.NewString()
	token, expiresAt, err := s.tokens.Issue(account.ID, sessionID)
	if err != nil {
		return nil, "", err
	}
	if err := s.sessions.Create(ctx, auth.Session{ID: sessionID, UserID: account.ID, ExpiresAt: expiresAt}); err != nil {
		return nil, "", fmt.Errorf("failed to create session: %w", err)
	}
	identity.SessionID = sessionID

	s.broker.Publish(account.ID, "", identity)
	return identity, token, nil
}

func (s *authService) SignOut(ctx context.Context, identity *models.Identity) error {
	if identity == nil || identity.SessionID == "" {
		return ErrUnauthenticated
	}
	if err := s.sessions.Delete(ctx, identity.SessionID); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	s.broker.Publish(identity.UserID, identity.SessionID, nil)
	return nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*models.Identity, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	session, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, auth.ErrSessionNotFound) {
			return nil, ErrSessionRevoked
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session.UserID != claims.Subject {
		return nil, ErrInvalidToken
	}

	account, err := s.accountRepo.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repositories.ErrAccountNotFound) {
			return nil, ErrSessionRevoked
		}
		return nil, storeError("get account", err)
	}
	identity, err := s.identityFor(ctx, account)
	if err != nil {
		return nil, err
	}
	identity.SessionID = session.ID
	return identity, nil
}

func (s *authService) Subscribe(userID, sessionID string, fn func(*models.Identity)) func() {
	return s.broker.Subscribe(userID, sessionID, fn)
}

// identityFor reads the admin flag and name from the profile so changes apply on the next request.
func (s *authService) identityFor(ctx context.Context, account *models.Account) (*models.Identity, error) {
	identity := &models.Identity{UserID: account.ID, Email: account.Email, Name: account.DisplayName}
	player, err := s.playerRepo.GetByID(ctx, account.ID)
	switch {
	case err == nil:
		identity.Name = player.Name
		identity.IsAdmin = player.IsAdmin
	case errors.Is(err, repositories.ErrPlayerNotFound):
		s.logger.WarnContext(ctx, "account has no player profile", slog.String("user_id", account.ID))
	default:
		return nil, storeError("get player", err)
	}
	return identity, nil
}
