package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Dosada05/beach-league/models"
	"github.com/Dosada05/beach-league/repositories"
	"github.com/Dosada05/beach-league/storage"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// MaxAvatarSize is the largest accepted avatar payload (2 MiB).
const MaxAvatarSize = 2 << 20

type PlayerService interface {
	GetProfile(ctx context.Context, id string) (*models.PlayerProfile, error)
	// UpdateProfile changes identity fields only; stats are never touched here.
	UpdateProfile(ctx context.Context, actorID, playerID string, input UpdateProfileInput) (*models.PlayerProfile, error)
	UploadAvatar(ctx context.Context, actorID, playerID string, reader io.Reader, size int64, contentType string) (*models.PlayerProfile, error)
	ListPlayers(ctx context.Context, search string) ([]*models.PlayerProfile, error)
}

type UpdateProfileInput struct {
	Name   *string `json:"name"`
	Age    *int    `json:"age"`
	Gender *string `json:"gender"`
}

type playerService struct {
	playerRepo repositories.PlayerRepository
	uploader   storage.FileUploader
	logger     *slog.Logger
}

func NewPlayerService(playerRepo repositories.PlayerRepository, uploader storage.FileUploader, logger *slog.Logger) PlayerService {
	return &playerService{
		playerRepo: playerRepo,
		uploader:   uploader,
		logger:     logger,
	}
}

func (s *playerService) GetProfile(ctx context.Context, id string) (*models.PlayerProfile, error) {
	player, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, storeError("get player", err)
	}
	populateAvatarURL(player, s.uploader)
	return player, nil
}

func (s *playerService) UpdateProfile(ctx context.Context, actorID, playerID string, input UpdateProfileInput) (*models.PlayerProfile, error) {
	if actorID != playerID {
		return nil, ErrForbiddenOperation
	}
	player, err := s.GetProfile(ctx, playerID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		player.Name = name
	}
	if input.Age != nil {
		if *input.Age < 1 || *input.Age > 120 {
			return nil, ErrInvalidAge
		}
		age := *input.Age
		player.Age = &age
	}
	if input.Gender != nil {
		gender := strings.TrimSpace(*input.Gender)
		if gender == "" {
			player.Gender = nil
		} else {
			player.Gender = &gender
		}
	}

	if err := s.playerRepo.UpdateIdentity(ctx, player); err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, storeError("update player", err)
	}
	return player, nil
}

func (s *playerService) UploadAvatar(ctx context.Context, actorID, playerID string, reader io.Reader, size int64, contentType string) (*models.PlayerProfile, error) {
	if actorID != playerID {
		return nil, ErrForbiddenOperation
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, ErrAvatarInvalidType
	}
	if size > MaxAvatarSize {
		return nil, ErrAvatarTooLarge
	}
	if s.uploader == nil {
		return nil, ErrUploaderUnavailable
	}
	ext, err := GetExtensionFromContentType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAvatarInvalidType, err)
	}

	// The declared size is not trusted; read at most one byte past the limit.
	data, err := io.ReadAll(io.LimitReader(reader, MaxAvatarSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read avatar: %w", err)
	}
	if len(data) > MaxAvatarSize {
		return nil, ErrAvatarTooLarge
	}

	player, err := s.GetProfile(ctx, playerID)
	if err != nil {
		return nil, err
	}
	previousKey := player.AvatarKey

	key := storage.AvatarKey(playerID, ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}
	if err := s.playerRepo.UpdateAvatarKey(ctx, playerID, &key); err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, storeError("update avatar", err)
	}

	if previousKey != nil && *previousKey != key {
		if err := s.uploader.Delete(ctx, *previousKey); err != nil {
			s.logger.WarnContext(ctx, "failed to delete previous avatar",
				slog.String("player_id", playerID),
				slog.String("key", *previousKey),
				slog.Any("error", err),
			)
		}
	}

	player.AvatarKey = &key
	player.AvatarURL = nil
	populateAvatarURL(player, s.uploader)
	return player, nil
}

func (s *playerService) ListPlayers(ctx context.Context, search string) ([]*models.PlayerProfile, error) {
	players, err := s.playerRepo.List(ctx, repositories.ListPlayersFilter{})
	if err != nil {
		return nil, storeError("list players", err)
	}
	search = strings.TrimSpace(search)
	result := make([]*models.PlayerProfile, 0, len(players))
	for _, p := range players {
		if search != "" &&
			!fuzzy.MatchNormalizedFold(search, p.Name) &&
			!strings.Contains(strings.ToLower(p.Email), strings.ToLower(search)) {
			continue
		}
		populateAvatarURL(p, s.uploader)
		result = append(result, p)
	}
	return result, nil
}
