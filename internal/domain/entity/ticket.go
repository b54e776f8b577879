package entity

import (
	"fmt"
	"strings"
	"time"

	"lumisync/internal/domain/docstore"
)

// TicketKind selects one of the two structurally identical ticket collections.
type TicketKind string

const (
	KindComplaint  TicketKind = "complaints"
	KindFixRequest TicketKind = "fix-requests"
)

func ParseTicketKind(s string) (TicketKind, error) {
	switch TicketKind(s) {
	case KindComplaint, "complaint":
		return KindComplaint, nil
	case KindFixRequest, "fix_requests", "fixRequests":
		return KindFixRequest, nil
	}
	return "", fmt.Errorf("unknown ticket kind %q", s)
}

func (k TicketKind) Collection() string {
	if k == KindFixRequest {
		return docstore.CollectionFixRequests
	}
	return docstore.CollectionComplaints
}

// ImageFolder is the blob store prefix for ticket photos.
func (k TicketKind) ImageFolder() string {
	if k == KindFixRequest {
		return "fixRequestImages"
	}
	return "complaintImages"
}

type TicketStatus string

const (
	StatusOpen    TicketStatus = "open"
	StatusPending TicketStatus = "pending"
	StatusClosed  TicketStatus = "closed"
)

// ParseTicketStatus accepts any of the three statuses. There is no transition
// graph: every status is reachable from every other.
func ParseTicketStatus(s string) (TicketStatus, error) {
	switch st := TicketStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusOpen, StatusPending, StatusClosed:
		return st, nil
	}
	return "", fmt.Errorf("unknown ticket status %q", s)
}

// ManagerRoomLabel is the room label on tickets a manager files.
const ManagerRoomLabel = "Property Manager"

// CreatedDateLayout is dd-MM-yyyy.
const CreatedDateLayout = "02-01-2006"

type Ticket struct {
	ID              string       `json:"id"`
	ShortID         string       `json:"short_id"`
	Kind            TicketKind   `json:"kind"`
	AuthorID        string       `json:"author_id"`
	AuthorName      string       `json:"author_name"`
	AuthorRole      Role         `json:"author_role"`
	PropertyID      string       `json:"property_id"`
	PropertyAddress string       `json:"property_address"`
	RoomNumber      string       `json:"room_number"`
	Status          TicketStatus `json:"status"`
	CreatedAt       time.Time    `json:"created_at"`
	CreatedDate     string       `json:"created_date"`
	Description     string       `json:"description"`
	ImageURL        string       `json:"image_url,omitempty"`
}

// ShortID is the first six characters of the id, upper-cased.
func ShortID(id string) string {
	if len(id) < 6 {
		return strings.ToUpper(id)
	}
	return strings.ToUpper(id[:6])
}

func TicketFromDocument(kind TicketKind, doc docstore.Document) Ticket {
	t := Ticket{
		ID:              doc.ID,
		ShortID:         doc.String("shortId"),
		Kind:            kind,
		AuthorID:        doc.String("createdById"),
		AuthorName:      doc.String("createdByName"),
		AuthorRole:      ParseRole(doc.String("createdByRole")),
		PropertyID:      doc.String("propertyId"),
		PropertyAddress: doc.String("propertyAddress"),
		RoomNumber:      doc.String("roomNumber"),
		Status:          TicketStatus(doc.String("status")),
		CreatedAt:       doc.Time("createdAt"),
		CreatedDate:     doc.String("createdDate"),
		Description:     doc.String("description"),
		ImageURL:        doc.String("imageUrl"),
	}
	if t.ShortID == "" {
		t.ShortID = ShortID(t.ID)
	}
	if t.Status == "" {
		t.Status = StatusOpen
	}
	return t
}

// Fields is the document body written on create.
func (t Ticket) Fields() map[string]interface{} {
	fields := map[string]interface{}{
		"createdById":     t.AuthorID,
		"createdByName":   t.AuthorName,
		"createdByRole":   string(t.AuthorRole),
		"propertyId":      t.PropertyID,
		"propertyAddress": t.PropertyAddress,
		"roomNumber":      t.RoomNumber,
		"status":          string(t.Status),
		"createdAt":       t.CreatedAt,
		"createdDate":     t.CreatedDate,
		"description":     t.Description,
	}
	if t.ImageURL != "" {
		fields["imageUrl"] = t.ImageURL
	}
	return fields
}

// VisibleTo reports whether a user with the given scope may observe t: the
// author always can, a manager can when the ticket's property is in scope.
func (t Ticket) VisibleTo(scope Scope) bool {
	if scope.UserID != "" && scope.UserID == t.AuthorID {
		return true
	}
	return scope.IsManager() && scope.Includes(t.PropertyID)
}

// DeletableBy follows VisibleTo: the author or a manager in scope.
func (t Ticket) DeletableBy(scope Scope) bool {
	return t.VisibleTo(scope)
}

// StatusChangeableBy allows only managers whose scope holds the property.
func (t Ticket) StatusChangeableBy(scope Scope) bool {
	return scope.IsManager() && scope.Includes(t.PropertyID)
}
