package entity

import (
	"time"

	"lumisync/internal/domain/docstore"
)

// Contact is a directory entry. Custom contacts are added by managers and
// live in the contacts collection; the rest are renters joined from their
// tenancy and user documents.
type Contact struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone,omitempty"`
	Email        string    `json:"email,omitempty"`
	PropertyName string    `json:"property_name,omitempty"`
	Custom       bool      `json:"custom"`
	CreatedByID  string    `json:"created_by_id,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

func ContactFromDocument(doc docstore.Document) Contact {
	return Contact{
		ID:           doc.ID,
		Name:         doc.String("name"),
		Phone:        doc.String("phone"),
		Email:        doc.String("email"),
		PropertyName: doc.String("propertyName"),
		Custom:       true,
		CreatedByID:  doc.String("createdById"),
		CreatedAt:    doc.Time("createdAt"),
	}
}

// RenterContact builds the directory entry of a renter.
func RenterContact(user User, tenancy Tenancy) Contact {
	return Contact{
		ID:           user.ID,
		Name:         user.DisplayName(),
		Phone:        user.Phone,
		Email:        user.Email,
		PropertyName: tenancy.PropertyName,
	}
}

func (c Contact) Fields() map[string]interface{} {
	return map[string]interface{}{
		"name":         c.Name,
		"phone":        c.Phone,
		"email":        c.Email,
		"propertyName": c.PropertyName,
		"isCustom":     true,
		"createdById":  c.CreatedByID,
		"createdAt":    c.CreatedAt,
	}
}
