package models

const (
	// UserIDKey is the key attribute of the profile table.
	UserIDKey = "userId"

	// UnauthenticatedUserID is used for reads when no identity was resolved.
	UnauthenticatedUserID = "UNAUTH"

	// TestUserID is written by the diagnostic test endpoint.
	TestUserID = "001"
)

// Profile is a free-form profile record keyed by userId.
type Profile map[string]interface{}

// NewProfile copies fields into a new record.
func NewProfile(fields map[string]interface{}) Profile {
	profile := make(Profile, len(fields)+1)
	for key, value := range fields {
		profile[key] = value
	}
	return profile
}

// DropEmptyStrings removes every field whose value is the empty string.
// Clients send "" to mean "no value".
func (p Profile) DropEmptyStrings() {
	for key, value := range p {
		if s, ok := value.(string); ok && s == "" {
			delete(p, key)
		}
	}
}

func (p Profile) SetUserID(userID string) {
	p[UserIDKey] = userID
}

func (p Profile) UserID() string {
	userID, _ := p[UserIDKey].(string)
	return userID
}
