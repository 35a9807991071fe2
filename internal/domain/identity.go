package domain

import (
	"errors"
	"time"
)

var (
	ErrIdentityNotFound   = errors.New("identity not found")
	ErrDuplicateEmail     = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotVerified        = errors.New("account is not verified")
	ErrAlreadyVerified    = errors.New("account is already verified")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrTokenInvalid       = errors.New("token is invalid")
	ErrTokenExpired       = errors.New("token has expired")
	ErrForbidden          = errors.New("forbidden")
)

type Role string

const (
	RoleDonor    Role = "donor"
	RoleReceiver Role = "receiver"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleDonor, RoleReceiver, RoleAdmin:
		return true
	}
	return false
}

type BloodType string

// BloodTypes lists every ABO/Rh combination in display order.
var BloodTypes = []BloodType{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

func (b BloodType) Valid() bool {
	for _, t := range BloodTypes {
		if b == t {
			return true
		}
	}
	return false
}

// Identity is a registrant. PasswordHash never leaves the service layer;
// use Public for anything that is serialized to a client.
type Identity struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	BloodType    BloodType
	Phone        string
	Age          int
	Address      string
	Role         Role
	Verified     bool
	CreatedAt    time.Time
}

type PublicIdentity struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	BloodType BloodType `json:"bloodType"`
	Phone     string    `json:"phone"`
	Age       int       `json:"age"`
	Address   string    `json:"address"`
	Role      Role      `json:"role"`
	Verified  bool      `json:"isVerified"`
	CreatedAt time.Time `json:"createdAt"`
}

func (i *Identity) Public() PublicIdentity {
	return PublicIdentity{
		ID:        i.ID,
		Name:      i.Name,
		Email:     i.Email,
		BloodType: i.BloodType,
		Phone:     i.Phone,
		Age:       i.Age,
		Address:   i.Address,
		Role:      i.Role,
		Verified:  i.Verified,
		CreatedAt: i.CreatedAt,
	}
}

// Profile is the registration input before hashing.
type Profile struct {
	Name      string
	Email     string
	Password  string
	BloodType BloodType
	Phone     string
	Age       int
	Address   string
	Role      Role
}
