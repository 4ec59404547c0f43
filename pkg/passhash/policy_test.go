package passhash

import (
	"strings"
	"testing"

	"github.com/Temutjin2k/authhub/pkg/validator"
	"github.com/stretchr/testify/assert"
)

func TestValidatePolicy(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     string
	}{
		{"valid", "passw0rd", ""},
		{"exactly max", strings.Repeat("a", 71) + "1", ""},
		{"empty", "", "must be provided"},
		{"too short", "pa55", "must be at least 8 bytes long"},
		{"too long", strings.Repeat("a", 72) + "1", "must not be more than 72 bytes long"},
		{"letters only", "password", "must contain a letter and a digit"},
		{"digits only", "12345678", "must contain a letter and a digit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := validator.New()
			ValidatePolicy(v, "new_password", tt.password)

			if tt.want == "" {
				assert.True(t, v.Valid())
				return
			}
			assert.Equal(t, tt.want, v.Errors["new_password"])
		})
	}
}
