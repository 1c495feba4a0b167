package models

import "time"

type User struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Balance      float64   `json:"balance"`
	History      []Ticket  `json:"history"`
	Version      int64     `json:"version"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserDocument is the stored form of a User. Unlike User it serializes the
// password hash, so it must never be written to a client.
type UserDocument struct {
	User
	PasswordHash string `json:"passwordHash"`
}

func NewUserDocument(u *User) *UserDocument {
	return &UserDocument{User: *u, PasswordHash: u.PasswordHash}
}

func (d *UserDocument) ToUser() *User {
	u := d.User
	u.PasswordHash = d.PasswordHash
	if u.History == nil {
		u.History = []Ticket{}
	}
	return &u
}

// TicketByID returns the history position of the ticket with the given id,
// or -1.
func (u *User) TicketByID(id string) int {
	for i := range u.History {
		if u.History[i].ID == id {
			return i
		}
	}
	return -1
}

type BalanceUpdate struct {
	Username string  `json:"username"`
	Balance  float64 `json:"balance"`
	Reason   string  `json:"reason"`
}
