package session

import (
	"time"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Identity is the subject carried inside both token kinds.
type Identity struct {
	ID         int64 `json:"id"`
	Role       Role  `json:"role"`
	IsVerified bool  `json:"isVerified"`
}

// Valid reports whether the identity can be carried in a token that will
// verify again later.
func (i Identity) Valid() bool {
	return i.ID > 0 && i.Role.Valid()
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RefreshToken is one stored device session. A live record is the only
// proof that a refresh token has not been rotated or revoked.
type RefreshToken struct {
	ID        int64
	SubjectID int64
	Token     string
	ExpiresAt time.Time
}

type Info struct {
	ID        int64     `json:"id"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type EventKind string

const (
	EventIssued     EventKind = "issued"
	EventRotated    EventKind = "rotated"
	EventRevoked    EventKind = "revoked"
	EventRevokedAll EventKind = "revoked_all"
	EventReaped     EventKind = "reaped"
)

type Event struct {
	Kind      EventKind
	SubjectID int64
	Count     int64
	At        time.Time
}
