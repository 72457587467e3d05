package domain

import "time"

type User struct {
	ID        string           `bson:"_id" json:"_id"`
	Name      string           `bson:"name" json:"name"`
	Email     string           `bson:"email" json:"email"`
	ImageURL  string           `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	CartItems map[string]int64 `bson:"cartItems" json:"cartItems"`
	IsAdmin   bool             `bson:"isAdmin" json:"isAdmin"`
	IsSeller  bool             `bson:"isSeller" json:"isSeller"`
}

// FailedEvent is an event whose post-commit delivery failed and waits for the relay job.
type FailedEvent struct {
	ID        string    `bson:"_id" json:"id"`
	EventType string    `bson:"eventType" json:"eventType"`
	Key       string    `bson:"key" json:"key"`
	Payload   []byte    `bson:"payload" json:"payload"`
	Attempts  int       `bson:"attempts" json:"attempts"`
	LastError string    `bson:"lastError" json:"lastError"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
