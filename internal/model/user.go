package model

import "time"

// User is identified by its 17-digit SteamID64.
type User struct {
	ID            int64     `json:"id"`
	SteamID       string    `json:"steam_id"`
	PhoneE164     string    `json:"phone_e164,omitempty"`
	PhoneVerified bool      `json:"phone_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

// CanReceiveSMS reports whether alert notifications may be sent to this user.
func (u *User) CanReceiveSMS() bool {
	return u != nil && u.PhoneVerified && u.PhoneE164 != ""
}

// PhoneVerification is a pending one-time code sent to a user's phone.
type PhoneVerification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Code      string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
