package entity

import (
	"strings"

	"lumisync/internal/domain/docstore"
)

type Role string

const (
	RoleUnset   Role = ""
	RoleRenter  Role = "renter"
	RoleManager Role = "manager"
)

// ParseRole is case-insensitive. Anything unrecognised is RoleUnset.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "renter":
		return RoleRenter
	case "manager":
		return RoleManager
	}
	return RoleUnset
}

type User struct {
	ID                     string   `json:"id"`
	Name                   string   `json:"name"`
	Email                  string   `json:"email,omitempty"`
	Phone                  string   `json:"phone,omitempty"`
	ProfileImageURL        string   `json:"profile_image_url,omitempty"`
	Role                   Role     `json:"role"`
	ManagerOf              []string `json:"manager_of,omitempty"`
	ActivePropertyID       string   `json:"active_property_id,omitempty"`
	ActivePropertyImageURL string   `json:"active_property_image_url,omitempty"`
	// Renter tenancy as mirrored on the user document.
	PropertyID string `json:"property_id,omitempty"`
	RoomNumber string `json:"room_number,omitempty"`
}

func UserFromDocument(doc docstore.Document) User {
	return User{
		ID:                     doc.ID,
		Name:                   doc.String("name"),
		Email:                  doc.String("email"),
		Phone:                  doc.String("phone"),
		ProfileImageURL:        doc.String("profileImageUrl"),
		Role:                   ParseRole(doc.String("userType")),
		ManagerOf:              doc.Strings("managerOf"),
		ActivePropertyID:       doc.String("activePropertyId"),
		ActivePropertyImageURL: doc.String("activePropertyImageUrl"),
		PropertyID:             doc.String("propertyId"),
		RoomNumber:             doc.String("roomNumber"),
	}
}

// Tenancy is a renter's assignment, stored under renters/{uid}.
type Tenancy struct {
	RenterID     string `json:"renter_id"`
	PropertyID   string `json:"property_id,omitempty"`
	PropertyName string `json:"property_name,omitempty"`
	RoomNumber   string `json:"room_number,omitempty"`
}

func TenancyFromDocument(doc docstore.Document) Tenancy {
	return Tenancy{
		RenterID:     doc.ID,
		PropertyID:   doc.String("propertyId"),
		PropertyName: doc.String("propertyName"),
		RoomNumber:   doc.String("roomNumber"),
	}
}

// Profile is the display identity shown for the other side of a conversation.
type Profile struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	PhotoURL string `json:"photo_url,omitempty"`
}

const FallbackDisplayName = "User"

func (u User) Profile() Profile {
	name := u.Name
	if name == "" {
		name = FallbackDisplayName
	}
	return Profile{UserID: u.ID, Name: name, PhotoURL: u.ProfileImageURL}
}

func (u User) DisplayName() string {
	return u.Profile().Name
}
