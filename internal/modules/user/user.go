package user

import (
	"time"

	"github.com/google/uuid"
)

// Loyalty tiers, derived purely from cumulative lifetime spend.
const (
	TierBronze   = "bronze"
	TierSilver   = "silver"
	TierGold     = "gold"
	TierPlatinum = "platinum"
)

// TierFor maps lifetime spend to a loyalty tier.
func TierFor(lifetimeSpent float64) string {
	switch {
	case lifetimeSpent >= 5000:
		return TierPlatinum
	case lifetimeSpent >= 2500:
		return TierGold
	case lifetimeSpent >= 1000:
		return TierSilver
	default:
		return TierBronze
	}
}

// Profile holds a user's personal details.
type Profile struct {
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Phone       string     `json:"phone,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Avatar      string     `json:"avatar,omitempty"`
}

// Address is a stored shipping or billing address. At most one address per
// type carries is_default.
type Address struct {
	AddressID     string   `json:"address_id"`
	Type          string   `json:"type"` // shipping, billing
	IsDefault     bool     `json:"is_default"`
	RecipientName string   `json:"recipient_name"`
	Street        string   `json:"street"`
	City          string   `json:"city"`
	State         string   `json:"state"`
	PostalCode    string   `json:"postal_code"`
	Country       string   `json:"country"` // ISO 3166-1 alpha-2
	Longitude     *float64 `json:"longitude,omitempty"`
	Latitude      *float64 `json:"latitude,omitempty"`
}

// PaymentMethod is a stored (tokenised) payment instrument.
type PaymentMethod struct {
	MethodID  string `json:"method_id"`
	Type      string `json:"type"` // credit_card, debit_card, paypal
	IsDefault bool   `json:"is_default"`
	LastFour  string `json:"last_four"`
	Brand     string `json:"brand"`
	ExpiresAt string `json:"expires_at"` // MM/YY
}

// NotificationPreferences controls what the user gets notified about.
type NotificationPreferences struct {
	EmailMarketing    bool `json:"email_marketing"`
	OrderUpdates      bool `json:"order_updates"`
	PushNotifications bool `json:"push_notifications"`
}

// Preferences holds user-level settings.
type Preferences struct {
	Currency      string                  `json:"currency"`
	Language      string                  `json:"language"`
	Notifications NotificationPreferences `json:"notifications"`
}

// DefaultPreferences returns the settings applied to new accounts.
func DefaultPreferences() Preferences {
	return Preferences{
		Currency: "USD",
		Language: "en",
		Notifications: NotificationPreferences{
			EmailMarketing: true,
			OrderUpdates:   true,
		},
	}
}

// Loyalty tracks reward points and the tier derived from lifetime spend.
type Loyalty struct {
	Points        int     `json:"points"`
	Tier          string  `json:"tier"`
	LifetimeSpent float64 `json:"lifetime_spent"`
}

// User is a customer account.
type User struct {
	ID             uuid.UUID       `json:"id"`
	Email          string          `json:"email"`
	PasswordHash   string          `json:"-"`
	Profile        Profile         `json:"profile"`
	Addresses      []Address       `json:"addresses,omitempty"`
	PaymentMethods []PaymentMethod `json:"payment_methods,omitempty"`
	Preferences    Preferences     `json:"preferences"`
	Loyalty        Loyalty         `json:"loyalty"`
	Status         string          `json:"status"` // active, inactive, suspended
	ResetToken     string          `json:"-"`
	LastLogin      *time.Time      `json:"-"`
	LoginCount     int             `json:"-"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// AddressByID finds a stored address by its identifier.
func (u *User) AddressByID(addressID string) *Address {
	for i := range u.Addresses {
		if u.Addresses[i].AddressID == addressID {
			return &u.Addresses[i]
		}
	}
	return nil
}

// PaymentMethodByID finds a stored payment method by its identifier.
func (u *User) PaymentMethodByID(methodID string) *PaymentMethod {
	for i := range u.PaymentMethods {
		if u.PaymentMethods[i].MethodID == methodID {
			return &u.PaymentMethods[i]
		}
	}
	return nil
}

// UpdateProfileRequest is the payload for profile updates.
type UpdateProfileRequest struct {
	FirstName   *string      `json:"first_name,omitempty"`
	LastName    *string      `json:"last_name,omitempty"`
	Phone       *string      `json:"phone,omitempty"`
	Preferences *Preferences `json:"preferences,omitempty"`
}

// AddAddressRequest is the payload for adding an address.
type AddAddressRequest struct {
	Type          string    `json:"type"`
	IsDefault     bool      `json:"is_default"`
	RecipientName string    `json:"recipient_name"`
	Street        string    `json:"street"`
	City          string    `json:"city"`
	State         string    `json:"state"`
	PostalCode    string    `json:"postal_code"`
	Country       string    `json:"country"`
	Coordinates   []float64 `json:"coordinates,omitempty"` // [longitude, latitude]
}

// AddPaymentMethodRequest is the payload for adding a payment method.
type AddPaymentMethodRequest struct {
	Type      string `json:"type"`
	IsDefault bool   `json:"is_default"`
	LastFour  string `json:"last_four"`
	Brand     string `json:"brand"`
	ExpiresAt string `json:"expires_at"`
}
