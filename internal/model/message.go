package model

import "time"

// Message is a contact-form submission.
type Message struct {
	ID        string    `json:"id" firestore:"-"`
	Name      string    `json:"name" firestore:"name"`
	Email     string    `json:"email" firestore:"email"`
	Message   string    `json:"message" firestore:"message"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}
