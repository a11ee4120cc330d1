package entity

import "time"

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

type User struct {
	ID              int64      `json:"id"`
	Email           string     `json:"email"`
	Username        string     `json:"username"`
	PasswordHash    string     `json:"-"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	Role            string     `json:"role"`
	Avatar          string     `json:"avatar,omitempty"`
	AuthProvider    string     `json:"auth_provider"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	PendingEmail    string     `json:"pending_email,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

func (u User) Verified() bool { return u.EmailVerifiedAt != nil }

// PasswordReset rows are single-use and expire; token_hash stores the
// sha256 of the token that was mailed out.
type PasswordReset struct {
	ID        int64
	UserID    int64
	Email     string
	TokenHash string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
	RequestIP string
	UserAgent string
}
