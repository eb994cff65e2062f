package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"campusevents/internal/domain"
)

// Claims represents the JWT payload carrying the scoped identity.
type Claims struct {
	Role      string `json:"role"`
	CollegeID int64  `json:"college_id"`
	jwt.RegisteredClaims
}

// Issue signs an access token for the given identity.
func Issue(id domain.Identity, issuer, key string, ttl time.Duration) (string, time.Time, error) {
	exp := time.Now().Add(ttl)
	claims := Claims{
		Role:      id.Role,
		CollegeID: id.CollegeID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(id.SubjectID, 10),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

// Parse validates a token and returns the scoped identity it carries.
func Parse(tokenStr, key, issuer string) (domain.Identity, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(key), nil
	})
	if err != nil {
		return domain.Identity{}, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return domain.Identity{}, errors.New("invalid token")
	}
	if issuer != "" && claims.Issuer != issuer {
		return domain.Identity{}, errors.New("issuer mismatch")
	}
	if claims.Role != domain.RoleAdmin && claims.Role != domain.RoleStudent {
		return domain.Identity{}, errors.New("unknown role")
	}
	subject, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return domain.Identity{}, errors.New("invalid subject")
	}
	return domain.Identity{
		SubjectID: subject,
		Role:      claims.Role,
		CollegeID: claims.CollegeID,
	}, nil
}
