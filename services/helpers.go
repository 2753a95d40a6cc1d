package services

import (
	"fmt"
	"strings"

	"github.com/Dosada05/beach-league/models"
	"github.com/Dosada05/beach-league/realtime"
	"github.com/Dosada05/beach-league/storage"
)

// EventPublisher delivers events to websocket rooms. *realtime.Hub implements it.
type EventPublisher interface {
	Publish(room, eventType string, payload interface{})
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, string, interface{}) {}

func publisherOrNoop(p EventPublisher) EventPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}

func publishTournamentEvent(p EventPublisher, tournamentID, eventType string, payload interface{}) {
	p.Publish(realtime.TournamentRoom(tournamentID), eventType, payload)
}

// isValidStatusTransition covers manual changes only. completed is reached through MaybeAutoComplete.
func isValidStatusTransition(current, next models.TournamentStatus) bool {
	allowedTransitions := map[models.TournamentStatus][]models.TournamentStatus{
		models.StatusUpcoming:  {models.StatusActive, models.StatusCancelled},
		models.StatusActive:    {models.StatusCancelled},
		models.StatusCompleted: {},
		models.StatusCancelled: {},
	}
	for _, allowedNextStatus := range allowedTransitions[current] {
		if next == allowedNextStatus {
			return true
		}
	}
	return false
}

// normalizeCategories trims, drops empty values and removes duplicates keeping the first occurrence.
func normalizeCategories(categories []string) []string {
	seen := make(map[string]struct{}, len(categories))
	result := make([]string, 0, len(categories))
	for _, c := range categories {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		key := strings.ToLower(c)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, c)
	}
	return result
}

func populateAvatarURL(player *models.PlayerProfile, uploader storage.FileUploader) {
	if player == nil || player.AvatarKey == nil || *player.AvatarKey == "" || uploader == nil {
		return
	}
	if url := uploader.GetPublicURL(*player.AvatarKey); url != "" {
		player.AvatarURL = &url
	}
}

func GetExtensionFromContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	default:
		parts := strings.Split(contentType, "/")
		if len(parts) == 2 && parts[0] == "image" && parts[1] != "" {
			// "image/svg+xml" -> ".svg"
			return "." + strings.Split(parts[1], "+")[0], nil
		}
		return "", fmt.Errorf("could not determine file extension from content type: '%s'", contentType)
	}
}
