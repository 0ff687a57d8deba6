package utils // package utils provides helpers for the signed browser session cookie

import (
    "errors"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/google/uuid"
)

// ErrInvalidSession is returned for a session token that is malformed,
// tampered with, expired or signed with another key.
var ErrInvalidSession = errors.New("invalid session token")

// SessionToken is a signed browser session id along with its expiry.
type SessionToken struct {
    ID    string    // the session id (a random UUID)
    Token string    // the serialized JWT carried in the cookie
    Exp   time.Time // the UTC expiration time
}

// NewSessionToken mints a fresh session id and signs it as an HS256 JWT
// whose subject is the id.
func NewSessionToken(secret string, ttl time.Duration) (SessionToken, error) {
    return SignSession(secret, uuid.NewString(), ttl)
}

// SignSession signs an existing session id, e.g. to extend its lifetime.
func SignSession(secret, id string, ttl time.Duration) (SessionToken, error) {
    now := time.Now().UTC()
    exp := now.Add(ttl)
    claims := jwt.RegisteredClaims{
        Subject:   id,
        IssuedAt:  jwt.NewNumericDate(now),
        ExpiresAt: jwt.NewNumericDate(exp),
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    if err != nil {
        return SessionToken{}, err
    }
    return SessionToken{ID: id, Token: signed, Exp: exp}, nil
}

// ParseSession verifies raw and returns the session id it carries.
func ParseSession(secret, raw string) (string, error) {
    var claims jwt.RegisteredClaims
    tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
        // HMAC only
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalidSession
        }
        return []byte(secret), nil
    }, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
    if err != nil || !tok.Valid {
        return "", ErrInvalidSession
    }
    if _, err := uuid.Parse(claims.Subject); err != nil {
        return "", ErrInvalidSession
    }
    return claims.Subject, nil
}
