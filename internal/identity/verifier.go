package identity

import (
	"errors"
	"strings"

	"github.com/BloggingApp/feed-service/internal/model"
	"github.com/BloggingApp/feed-service/pkg/utils"
	"github.com/golang-jwt/jwt/v5"
)

var ErrMissingSubject = errors.New("token has no subject")

// Verifier turns bearer ID tokens into identities.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

func (v *Verifier) Verify(token string) (*model.Identity, error) {
	claims, err := utils.DecodeJWT(strings.TrimSpace(token), v.secret)
	if err != nil {
		return nil, err
	}
	return FromClaims(claims)
}

// FromClaims reads uid from "uid" or "sub", plus "email" and "name".
func FromClaims(claims jwt.MapClaims) (*model.Identity, error) {
	uid := stringClaim(claims, "uid")
	if uid == "" {
		uid = stringClaim(claims, "sub")
	}
	if uid == "" {
		return nil, ErrMissingSubject
	}

	return &model.Identity{
		UID:         uid,
		Email:       stringClaim(claims, "email"),
		DisplayName: stringClaim(claims, "name"),
	}, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	s, _ := claims[key].(string)
	return strings.TrimSpace(s)
}
