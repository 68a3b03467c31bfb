package domain

import (
	"encoding/json"
	"time"
)

// User models an onboarded identity. Username is globally unique in the
// store; Metadata holds the role-specific profile attributes as JSON.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Phone        string    `json:"phone"`
	Address      string    `json:"address"`
	Metadata     string    `json:"metadata,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Contact is shared by every profile variant.
type Contact struct {
	Phone   string `json:"phone"   validate:"required"`
	Address string `json:"address" validate:"required"`
}

// Profile is the closed set of role-specific registration attributes. Each
// role has exactly one variant, so required-field checks are per variant.
type Profile interface {
	Role() Role
	ContactInfo() Contact
	Metadata() map[string]string
	isProfile()
}

type ManufacturerProfile struct {
	Contact
	CompanyName   string `json:"companyName"   validate:"required"`
	LicenseNumber string `json:"licenseNumber" validate:"required"`
	Manager       string `json:"manager"       validate:"required"`
	Brand         string `json:"brand"         validate:"required"`
}

func (ManufacturerProfile) Role() Role             { return RoleManufacturer }
func (p ManufacturerProfile) ContactInfo() Contact { return p.Contact }
func (ManufacturerProfile) isProfile()             {}

func (p ManufacturerProfile) Metadata() map[string]string {
	return map[string]string{
		"companyName":   p.CompanyName,
		"licenseNumber": p.LicenseNumber,
		"manager":       p.Manager,
		"brand":         p.Brand,
	}
}

type SellerProfile struct {
	Contact
	CompanyName string `json:"companyName" validate:"required"`
	Manager     string `json:"manager"     validate:"required"`
	Brand       string `json:"brand"       validate:"required"`
	// OnboardedBy is the manufacturer that added the seller.
	OnboardedBy string `json:"manufacturer,omitempty"`
}

func (SellerProfile) Role() Role             { return RoleSeller }
func (p SellerProfile) ContactInfo() Contact { return p.Contact }
func (SellerProfile) isProfile()             {}

func (p SellerProfile) Metadata() map[string]string {
	m := map[string]string{
		"companyName": p.CompanyName,
		"manager":     p.Manager,
		"brand":       p.Brand,
	}
	if p.OnboardedBy != "" {
		m["manufacturer"] = p.OnboardedBy
	}
	return m
}

type CustomerProfile struct {
	Contact
	FullName string `json:"fullName" validate:"required"`
}

func (CustomerProfile) Role() Role             { return RoleCustomer }
func (p CustomerProfile) ContactInfo() Contact { return p.Contact }
func (CustomerProfile) isProfile()             {}

func (p CustomerProfile) Metadata() map[string]string {
	return map[string]string{"fullName": p.FullName}
}

// EncodeMetadata serialises a profile's role-specific attributes.
func EncodeMetadata(p Profile) (string, error) {
	b, err := json.Marshal(p.Metadata())
	if err != nil {
		return "", err
	}
	return string(b), nil
}
