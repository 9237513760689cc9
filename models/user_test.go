package models_test

import (
	"testing"

	"github.com/alwitt/gatelink/models"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

// TestValidateAuthorizedUserList verifies the caller-side list validation
// rules: entry formats, in-list uniqueness, and access window pairing.
func TestValidateAuthorizedUserList(t *testing.T) {
	assert := assert.New(t)

	checker := validator.New()
	assert.Nil(models.RegisterWithValidator(checker))

	// Valid list
	assert.Nil(models.ValidateAuthorizedUserList(checker, []models.AuthorizedUser{
		{ID: "001", PhoneNumber: "+15550001111", SerialNumber: "001"},
		{
			ID: "002", PhoneNumber: "+15550002222", SerialNumber: "200",
			StartTime: "2601010800", EndTime: "2601011800",
		},
	}))

	// Serial slot out of range
	assert.Error(models.ValidateAuthorizedUserList(checker, []models.AuthorizedUser{
		{ID: "001", PhoneNumber: "+15550001111", SerialNumber: "201"},
	}))

	// Phone number format
	assert.Error(models.ValidateAuthorizedUserList(checker, []models.AuthorizedUser{
		{ID: "001", PhoneNumber: "call me", SerialNumber: "001"},
	}))

	// Duplicate phone number
	assert.Error(models.ValidateAuthorizedUserList(checker, []models.AuthorizedUser{
		{ID: "001", PhoneNumber: "+15550001111", SerialNumber: "001"},
		{ID: "002", PhoneNumber: "+15550001111", SerialNumber: "002"},
	}))

	// Duplicate serial slot
	assert.Error(models.ValidateAuthorizedUserList(checker, []models.AuthorizedUser{
		{ID: "001", PhoneNumber: "+15550001111", SerialNumber: "001"},
		{ID: "002", PhoneNumber: "+15550002222", SerialNumber: "001"},
	}))

	// Unpaired access window
	assert.Error(models.ValidateAuthorizedUserList(checker, []models.AuthorizedUser{
		{
			ID: "001", PhoneNumber: "+15550001111", SerialNumber: "001",
			StartTime: "2601010800",
		},
	}))
}
