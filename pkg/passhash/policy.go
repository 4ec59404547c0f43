package passhash

import "github.com/Temutjin2k/authhub/pkg/validator"

const MinPasswordBytes = 8

// ValidatePolicy records on v, under key, the first password rule that fails:
// 8 to 72 bytes with at least one letter and one digit.
func ValidatePolicy(v *validator.Validator, key, password string) {
	v.Check(password != "", key, "must be provided")
	v.Check(len(password) >= MinPasswordBytes, key, "must be at least 8 bytes long")
	v.Check(len(password) <= MaxPasswordBytes, key, "must not be more than 72 bytes long")
	v.Check(validator.StrongPassword(password), key, "must contain a letter and a digit")
}
