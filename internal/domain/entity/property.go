package entity

import "lumisync/internal/domain/docstore"

type Property struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	ImageURL string `json:"image_url,omitempty"`
	OwnerID  string `json:"owner_id"`
}

func PropertyFromDocument(doc docstore.Document) Property {
	owner := doc.String("ownerUid")
	if owner == "" {
		owner = doc.String("managerId")
	}
	return Property{
		ID:       doc.ID,
		Name:     doc.String("name"),
		Address:  doc.String("address"),
		ImageURL: doc.String("imageUrl"),
		OwnerID:  owner,
	}
}

// DisplayText is what tickets store as the property label: the address,
// or the name when no address is set.
func (p Property) DisplayText() string {
	if p.Address != "" {
		return p.Address
	}
	return p.Name
}
