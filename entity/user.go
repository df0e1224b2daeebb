package entity

import "time"

// User is a Telegram chat bound to a custodial Solana account.
// The private key is custody material: it is fetched per signing call and
// never cached in conversation state.
type User struct {
	ChatID     int64     `json:"chat_id" bson:"chat_id"`
	Username   string    `json:"username" bson:"username"`
	PublicKey  string    `json:"public_key" bson:"public_key"`
	PrivateKey string    `json:"-" bson:"private_key"`
	Subscribed []string  `json:"subscribed" bson:"subscribed"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at"`
}

// IsSubscribed reports whether the user subscribes to the named alert
// category.
func (u *User) IsSubscribed(name string) bool {
	for _, s := range u.Subscribed {
		if s == name {
			return true
		}
	}
	return false
}
