package domain

import (
	"errors"
	"time"
)

var ErrInvalidInput = errors.New("invalid input")

type DonationStatus string

const (
	StatusDonated  DonationStatus = "donated"
	StatusReceived DonationStatus = "received"
)

func (s DonationStatus) Valid() bool {
	return s == StatusDonated || s == StatusReceived
}

// DonationRecord is immutable once stored.
type DonationRecord struct {
	ID         string
	IdentityID string
	BloodType  BloodType
	Quantity   int
	Status     DonationStatus
	EventDate  time.Time
	Note       *string

	// Donor is populated by listing queries; nil on freshly recorded entries.
	Donor *DonorSummary
}

type DonorSummary struct {
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	BloodType BloodType `json:"bloodType"`
	Phone     string    `json:"phone"`
	Role      Role      `json:"role"`
}

// DonationTotals is the per-identity aggregate used by the user report.
type DonationTotals struct {
	DonatedQuantity  int
	DonatedCount     int
	ReceivedQuantity int
	ReceivedCount    int
}
