package entity

import "time"

// Subscription is an alert category a user can opt into.
type Subscription struct {
	ID          string    `json:"id" bson:"id"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description" bson:"description"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

// SubscriptionStatus pairs a subscription with one user's membership.
type SubscriptionStatus struct {
	Subscription
	IsSubscribed bool `json:"is_subscribed"`
}
