package models

import (
	"time"
)

// Company represents a tenant in the system. Every client, product and quote
// record is owned by exactly one company.
type Company struct {
	ID                 int64
	Name               string
	BusinessIdentifier string // tax/business identifier, e.g. an RFC in Mexico
	RFC                string
	Email              string
	Phone              string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// User is a person that belongs to a company.
type User struct {
	ID        int64
	CompanyID *int64 // nil until the user is attached to a company
	FullName  string
	Email     string
	CreatedAt time.Time
}
