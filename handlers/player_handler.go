package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/beach-league/services"
)

// multipartOverhead leaves room for form boundaries and headers around the avatar file.
const multipartOverhead = 64 << 10

type PlayerHandler struct {
	playerService services.PlayerService
}

func NewPlayerHandler(ps services.PlayerService) *PlayerHandler {
	return &PlayerHandler{playerService: ps}
}

// GetProfile godoc
// @Summary      Player profile with statistics
// @Tags         players
// @Produce      json
// @Param        playerID path string true "Player ID"
// @Success      200 {object} map[string]interface{}
// @Failure      404 {object} map[string]interface{}
// @Router       /players/{playerID} [get]
func (h *PlayerHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	player, err := h.playerService.GetProfile(r.Context(), playerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"player": player})
}

// UpdateProfile godoc
// @Summary      Update name, age or gender of the caller's own profile
// @Tags         players
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        playerID path string true "Player ID"
// @Param        input body services.UpdateProfileInput true "Changes"
// @Success      200 {object} map[string]interface{}
// @Failure      400,403,404 {object} map[string]interface{}
// @Router       /players/{playerID} [patch]
func (h *PlayerHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.UpdateProfileInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	player, err := h.playerService.UpdateProfile(r.Context(), identity.UserID, playerID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"player": player})
}

// UploadAvatar godoc
// @Summary      Upload the caller's avatar (multipart field "avatar", image, at most 2 MiB)
// @Tags         players
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        playerID path string true "Player ID"
// @Param        avatar formData file true "Image"
// @Success      200 {object} map[string]interface{}
// @Failure      400,403,503 {object} map[string]interface{}
// @Router       /players/{playerID}/avatar [post]
func (h *PlayerHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	identity, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, services.MaxAvatarSize+multipartOverhead)
	file, header, err := r.FormFile("avatar")
	if err != nil {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) {
			mapServiceErrorToHTTP(w, r, services.ErrAvatarTooLarge)
			return
		}
		badRequestResponse(w, r, err)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		badRequestResponse(w, r, errors.New("content type required"))
		return
	}

	player, err := h.playerService.UploadAvatar(r.Context(), identity.UserID, playerID, file, header.Size, contentType)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"player": player})
}

// ListPlayers godoc
// @Summary      All players, optionally filtered by name or email
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        search query string false "Search term"
// @Success      200 {object} map[string]interface{}
// @Router       /admin/players [get]
func (h *PlayerHandler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := h.playerService.ListPlayers(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"players": players})
}
