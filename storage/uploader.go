package storage

import (
	"context"
	"io"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader is the blob store used for player avatars.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	// GetPublicURL returns a stable download reference for key, or "" when none can be built.
	GetPublicURL(key string) string
}

// AvatarKey returns the object key of a player's avatar, e.g. "avatars/<id>.png".
func AvatarKey(playerID, ext string) string {
	return "avatars/" + playerID + ext
}
