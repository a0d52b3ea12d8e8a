package credentials

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pilotwire/pilotwire/pkg/models"
)

func TestValidateStorageState(t *testing.T) {
	tests := []struct {
		name    string
		state   *models.StorageState
		wantErr bool
	}{
		{
			name:    "nil blob",
			state:   nil,
			wantErr: true,
		},
		{
			name:  "empty blob",
			state: &models.StorageState{},
		},
		{
			name: "cookies only",
			state: &models.StorageState{
				Cookies: []models.Cookie{{Name: "sid", Domain: "example.com"}},
			},
		},
		{
			name: "origins only",
			state: &models.StorageState{
				Origins: []models.OriginState{{Origin: "https://example.com"}},
			},
		},
		{
			name: "cookie without name",
			state: &models.StorageState{
				Cookies: []models.Cookie{{Domain: "example.com"}},
			},
			wantErr: true,
		},
		{
			name: "cookie without domain",
			state: &models.StorageState{
				Cookies: []models.Cookie{{Name: "sid"}},
			},
			wantErr: true,
		},
		{
			name: "origin without origin url",
			state: &models.StorageState{
				Origins: []models.OriginState{{LocalStorage: []models.LocalStorageItem{{Name: "k"}}}},
			},
			wantErr: true,
		},
		{
			name: "full blob",
			state: &models.StorageState{
				Cookies: []models.Cookie{
					{Name: "sid", Value: "abc", Domain: "example.com", Path: "/", Secure: true},
				},
				Origins: []models.OriginState{
					{
						Origin:       "https://example.com",
						LocalStorage: []models.LocalStorageItem{{Name: "token", Value: "xyz"}},
					},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStorageState(tt.state)

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidStorageState)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
