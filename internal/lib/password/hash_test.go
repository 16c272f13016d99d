package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/magabrotheeeer/users-api/internal/models"
)

func TestGetHash(t *testing.T) {
	tests := []struct {
		name     string
		password string
		cost     int
	}{
		{
			name:     "regular password",
			password: "password123",
			cost:     bcrypt.MinCost,
		},
		{
			name:     "password with special chars",
			password: "p@ssw0rd!@#$%^&*()",
			cost:     bcrypt.MinCost,
		},
		{
			name:     "invalid cost falls back to default",
			password: "short",
			cost:     100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotHash, err := GetHash(tt.password, tt.cost)
			require.NoError(t, err)
			require.NotEmpty(t, gotHash)
			assert.NoError(t, CompareHash(gotHash, tt.password))
		})
	}
}

func TestCompareHash(t *testing.T) {
	correctHash, err := GetHash("correct_password", bcrypt.MinCost)
	require.NoError(t, err)

	anotherHash, err := GetHash("another_password", bcrypt.MinCost)
	require.NoError(t, err)

	tests := []struct {
		name        string
		hash        string
		password    string
		shouldMatch bool
	}{
		{
			name:        "matching password",
			hash:        correctHash,
			password:    "correct_password",
			shouldMatch: true,
		},
		{
			name:        "wrong password",
			hash:        correctHash,
			password:    "wrong_password",
			shouldMatch: false,
		},
		{
			name:        "different hash same password",
			hash:        anotherHash,
			password:    "correct_password",
			shouldMatch: false,
		},
		{
			name:        "empty password",
			hash:        correctHash,
			password:    "",
			shouldMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CompareHash(tt.hash, tt.password)
			if tt.shouldMatch {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestManager_HashAndVerify(t *testing.T) {
	m := NewManager(bcrypt.MinCost, nil)

	hash, err := m.Hash("barO1234FFF")
	require.NoError(t, err)

	user := &models.User{PasswordHash: hash}
	assert.True(t, m.Verify(user, "barO1234FFF"))
	assert.False(t, m.Verify(user, "barO1234FFf"))
	assert.False(t, m.Verify(&models.User{}, "barO1234FFF"))
	assert.False(t, m.Verify(nil, "barO1234FFF"))
}
