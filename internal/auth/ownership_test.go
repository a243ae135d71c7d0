package auth

import (
	"testing"

	"thoughtstream/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorizeOwner(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		ownerID     uint
		principalID uint
		allowed     bool
	}{
		{"owner matches", 5, 5, true},
		{"different user", 5, 6, false},
		{"zero owner", 0, 6, false},
		{"zero principal", 5, 0, false},
		{"both zero", 0, 0, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := AuthorizeOwner(tt.ownerID, tt.principalID)
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			appErr, ok := err.(*models.AppError)
			require.True(t, ok)
			assert.Equal(t, models.CodeNotOwner, appErr.Code)
		})
	}
}
