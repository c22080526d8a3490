package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/angelmondragon/wedplan-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting an operator JWT.
type AccessTokenPayload struct {
	Subject string
	Role    enums.StaffRole
	JTI     string
}

// AccessTokenClaims represents the typed JWT presented by operators.
type AccessTokenClaims struct {
	Role enums.StaffRole `json:"role"`
	jwt.RegisteredClaims
}
