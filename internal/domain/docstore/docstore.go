package docstore

import (
	"context"
	"time"
)

// Collection names shared by every store implementation.
const (
	CollectionUsers         = "users"
	CollectionRenters       = "renters"
	CollectionProperties    = "properties"
	CollectionComplaints    = "complaints"
	CollectionFixRequests   = "fixRequests"
	CollectionConversations = "conversations"
	CollectionContacts      = "contacts"
	SubcollectionMessages   = "messages"
)

// MessagesPath returns the child collection holding a conversation's messages.
func MessagesPath(conversationID string) string {
	return CollectionConversations + "/" + conversationID + "/" + SubcollectionMessages
}

type Operator string

const (
	OpEqual         Operator = "=="
	OpIn            Operator = "in"
	OpArrayContains Operator = "array-contains"
)

type Filter struct {
	Field string
	Op    Operator
	Value interface{}
}

func Eq(field string, value interface{}) Filter {
	return Filter{Field: field, Op: OpEqual, Value: value}
}

func In(field string, values []string) Filter {
	return Filter{Field: field, Op: OpIn, Value: values}
}

func ArrayContains(field string, value interface{}) Filter {
	return Filter{Field: field, Op: OpArrayContains, Value: value}
}

type Direction int

const (
	Asc Direction = iota
	Desc
)

type OrderBy struct {
	Field     string
	Direction Direction
}

// Query is a one-shot or live read against a single collection.
type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    *OrderBy
	Limit      int
}

// WithoutOrder returns a copy with the server-side ordering removed.
func (q Query) WithoutOrder() Query {
	out := q
	out.OrderBy = nil
	out.Filters = append([]Filter(nil), q.Filters...)
	return out
}

type Document struct {
	ID   string
	Data map[string]interface{}
}

func (d Document) String(field string) string {
	if v, ok := d.Data[field].(string); ok {
		return v
	}
	return ""
}

func (d Document) Time(field string) time.Time {
	switch v := d.Data[field].(type) {
	case time.Time:
		return v
	case *time.Time:
		if v != nil {
			return *v
		}
	}
	return time.Time{}
}

func (d Document) Bool(field string) bool {
	v, _ := d.Data[field].(bool)
	return v
}

// Strings reads a string array field. Firestore decodes arrays as
// []interface{}, the memory store keeps whatever was written.
func (d Document) Strings(field string) []string {
	switch v := d.Data[field].(type) {
	case []string:
		return append([]string(nil), v...)
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// SnapshotFunc receives the full current result set of a live query, or the
// error that terminated it. After an error no further calls are made.
type SnapshotFunc func(docs []Document, err error)

// Subscription is the handle returned by Subscribe. Unsubscribe may be called
// any number of times.
type Subscription interface {
	Unsubscribe()
}

// DocumentStore is the document database collaborator. Get returns a
// NOT_FOUND AppError for missing documents.
type DocumentStore interface {
	Get(ctx context.Context, collection, id string) (*Document, error)
	Query(ctx context.Context, q Query) ([]Document, error)
	Subscribe(ctx context.Context, q Query, fn SnapshotFunc) (Subscription, error)
	Add(ctx context.Context, collection string, fields map[string]interface{}) (string, error)
	Set(ctx context.Context, collection, id string, fields map[string]interface{}, merge bool) error
	Update(ctx context.Context, collection, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, collection, id string) error
}
