package entity

// Scope is what a user may see: the role plus the property ids it covers.
// The zero value is the most restrictive scope.
type Scope struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
	// PropertyIDs is an ordered set: the manager's managed properties, or the
	// renter's single tenancy property.
	PropertyIDs []string `json:"property_ids"`
	// ActivePropertyID is a manager's current selection, if any.
	ActivePropertyID string `json:"active_property_id,omitempty"`
	RoomNumber       string `json:"room_number,omitempty"`
}

func RestrictedScope(userID string) Scope {
	return Scope{UserID: userID, Role: RoleRenter}
}

func (s Scope) IsManager() bool {
	return s.Role == RoleManager
}

func (s Scope) Includes(propertyID string) bool {
	if propertyID == "" {
		return false
	}
	for _, id := range s.PropertyIDs {
		if id == propertyID {
			return true
		}
	}
	return false
}

// OrderedSet drops empty and repeated ids, keeping first occurrence order.
func OrderedSet(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
