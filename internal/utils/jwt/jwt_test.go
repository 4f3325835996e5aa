package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avc/cafe-delivery-system/internal/domain"
)

func TestManager_GenerateAndValidate(t *testing.T) {
	manager := NewManager("test-secret", time.Hour)

	token, err := manager.Generate(42, domain.RoleAdmin)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	accountID, err := manager.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), accountID)
}

func TestManager_Validate_WrongSecret(t *testing.T) {
	manager := NewManager("test-secret", time.Hour)
	other := NewManager("other-secret", time.Hour)

	token, err := manager.Generate(42, domain.RoleCourier)
	require.NoError(t, err)

	_, err = other.Validate(token)
	assert.Error(t, err)
}

func TestManager_Validate_Expired(t *testing.T) {
	manager := NewManager("test-secret", -time.Minute)

	token, err := manager.Generate(42, domain.RoleAdmin)
	require.NoError(t, err)

	_, err = manager.Validate(token)
	assert.Error(t, err)
}

func TestManager_Validate_Garbage(t *testing.T) {
	manager := NewManager("test-secret", time.Hour)

	_, err := manager.Validate("not.a.token")
	assert.Error(t, err)
}
