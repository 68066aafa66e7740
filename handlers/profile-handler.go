package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"profile-service/middleware"
	"profile-service/models"
	"profile-service/store"
)

// maxBodyBytes matches the 100kb default of common JSON body parsers.
const maxBodyBytes = 100 << 10

const (
	msgLoadFailed     = "Could not load"
	msgTestPutFailed  = "Test: database put operation failed"
	msgInvalidUser    = "Invalid User"
	msgPutFailed      = "Valid user but database put operation failed"
	msgInvalidPayload = "Invalid request payload"
	msgBodyTooLarge   = "Request entity too large"
)

var (
	errNullPayload     = errors.New("payload is null")
	errTrailingPayload = errors.New("unexpected data after JSON object")
)

type JSONResponse map[string]interface{}

type ProfileHandler struct {
	store store.ProfileStore
}

func NewProfileHandler(profileStore store.ProfileStore) *ProfileHandler {
	return &ProfileHandler{store: profileStore}
}

// GetUserDataHandler returns every record stored for the caller. Callers
// without an identity read the shared UNAUTH bucket.
func (h *ProfileHandler) GetUserDataHandler(w http.ResponseWriter, r *http.Request) error {
	userID, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		userID = models.UnauthenticatedUserID
	}

	profiles, err := h.store.Query(r.Context(), userID)
	if err != nil {
		return middleware.NewAppError(http.StatusInternalServerError, msgLoadFailed, err)
	}
	if profiles == nil {
		profiles = []models.Profile{}
	}

	writeJSON(w, http.StatusOK, profiles)
	return nil
}

// PostTestHandler writes the fixed diagnostic record. The request is ignored.
func (h *ProfileHandler) PostTestHandler(w http.ResponseWriter, r *http.Request) error {
	record := models.Profile{}
	record.SetUserID(models.TestUserID)

	if err := h.store.Put(r.Context(), record); err != nil {
		return middleware.NewAppError(http.StatusInternalServerError, msgTestPutFailed, err).
			WithField("tableName", h.store.TableName())
	}

	writeJSON(w, http.StatusOK, JSONResponse{})
	return nil
}

// PostUserDataHandler replaces the caller's record with the request body.
func (h *ProfileHandler) PostUserDataHandler(w http.ResponseWriter, r *http.Request) error {
	fields, err := decodeFields(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return middleware.NewAppError(http.StatusRequestEntityTooLarge, msgBodyTooLarge, err)
		}
		return middleware.NewAppError(http.StatusBadRequest, msgInvalidPayload, err)
	}

	profile := models.NewProfile(fields)
	profile.DropEmptyStrings()
	userID, _ := middleware.IdentityFromContext(r.Context())
	profile.SetUserID(userID)

	if profile.UserID() == "" {
		return middleware.NewAppError(http.StatusBadRequest, msgInvalidUser, nil)
	}

	if err := h.store.Put(r.Context(), profile); err != nil {
		return middleware.NewAppError(http.StatusInternalServerError, msgPutFailed, err)
	}

	writeJSON(w, http.StatusOK, profile)
	return nil
}

// decodeFields reads a JSON object body. Bodies not sent as application/json
// are not read and count as an empty object, as does an empty JSON body.
func decodeFields(w http.ResponseWriter, r *http.Request) (map[string]interface{}, error) {
	if !isJSONRequest(r) {
		return map[string]interface{}{}, nil
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	var fields map[string]interface{}
	if err := dec.Decode(&fields); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]interface{}{}, nil
		}
		return nil, err
	}
	if fields == nil {
		return nil, errNullPayload
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, errTrailingPayload
	}
	return fields, nil
}

func isJSONRequest(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
