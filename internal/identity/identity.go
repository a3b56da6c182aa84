package identity

import "time"

// Identity is a registered cardholder stored in the database. PINHash is a
// bcrypt hash, never the raw PIN.
type Identity struct {
	ID        int64
	Name      string
	Phone     string
	Email     string
	CardLast4 string
	PINHash   string
	CreatedAt time.Time
}
