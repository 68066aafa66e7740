package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewProfileCopiesFields(t *testing.T) {
	fields := map[string]interface{}{"name": "Ann"}
	profile := NewProfile(fields)
	profile["name"] = "Bob"

	assert.Equal(t, "Ann", fields["name"])
	assert.Equal(t, "Bob", profile["name"])
}

func TestNewProfileNilFields(t *testing.T) {
	profile := NewProfile(nil)
	assert.NotNil(t, profile)
	assert.Empty(t, profile)
}

func TestDropEmptyStrings(t *testing.T) {
	profile := Profile{
		"name":    "Ann",
		"bio":     "",
		"age":     float64(0),
		"active":  false,
		"nothing": nil,
		"nested":  map[string]interface{}{"inner": ""},
		"spaces":  " ",
	}
	profile.DropEmptyStrings()

	assert.Equal(t, Profile{
		"name":    "Ann",
		"age":     float64(0),
		"active":  false,
		"nothing": nil,
		"nested":  map[string]interface{}{"inner": ""},
		"spaces":  " ",
	}, profile)
}

func TestProfileSetUserIDOverridesClientValue(t *testing.T) {
	profile := Profile{UserIDKey: "client-supplied"}
	profile.SetUserID("abc-123")
	assert.Equal(t, "abc-123", profile.UserID())

	assert.Equal(t, "", Profile{UserIDKey: 42}.UserID())
	assert.Equal(t, "", Profile{}.UserID())
}
