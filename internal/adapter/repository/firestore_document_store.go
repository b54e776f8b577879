package repository

import (
	"context"
	"sort"
	"sync"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"lumisync/internal/domain/docstore"
	"lumisync/pkg/errors"
	"lumisync/pkg/logger"
)

type firestoreDocumentStore struct {
	client *firestore.Client
}

func NewFirestoreDocumentStore(client *firestore.Client) docstore.DocumentStore {
	return &firestoreDocumentStore{
		client: client,
	}
}

func (s *firestoreDocumentStore) Get(ctx context.Context, collection, id string) (*docstore.Document, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound(collection+"/"+id, err)
		}
		return nil, err
	}
	return &docstore.Document{ID: snap.Ref.ID, Data: snap.Data()}, nil
}

func (s *firestoreDocumentStore) build(q docstore.Query) firestore.Query {
	query := s.client.Collection(q.Collection).Query
	for _, f := range q.Filters {
		query = query.Where(f.Field, string(f.Op), f.Value)
	}
	if q.OrderBy != nil {
		dir := firestore.Asc
		if q.OrderBy.Direction == docstore.Desc {
			dir = firestore.Desc
		}
		query = query.OrderBy(q.OrderBy.Field, dir)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	return query
}

func (s *firestoreDocumentStore) Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	iter := s.build(q).Documents(ctx)
	defer iter.Stop()

	var docs []docstore.Document
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, docstore.Document{ID: doc.Ref.ID, Data: doc.Data()})
	}
	return docs, nil
}

type firestoreSubscription struct {
	cancel context.CancelFunc
	once   sync.Once
}

func (s *firestoreSubscription) Unsubscribe() {
	s.once.Do(s.cancel)
}

// Subscribe drives a Snapshots iterator on its own goroutine. The listener
// runs until Unsubscribe, ctx cancellation or the first error.
func (s *firestoreDocumentStore) Subscribe(ctx context.Context, q docstore.Query, fn docstore.SnapshotFunc) (docstore.Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	it := s.build(q).Snapshots(ctx)
	sub := &firestoreSubscription{cancel: cancel}

	go func() {
		defer it.Stop()
		for {
			snap, err := it.Next()
			if err != nil {
				if err == iterator.Done || ctx.Err() != nil || status.Code(err) == codes.Canceled {
					return
				}
				logger.Warn("Firestore listener on %s stopped: %v", q.Collection, err)
				fn(nil, err)
				return
			}
			all, err := snap.Documents.GetAll()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				fn(nil, err)
				return
			}
			docs := make([]docstore.Document, 0, len(all))
			for _, d := range all {
				docs = append(docs, docstore.Document{ID: d.Ref.ID, Data: d.Data()})
			}
			fn(docs, nil)
		}
	}()

	return sub, nil
}

func (s *firestoreDocumentStore) Add(ctx context.Context, collection string, fields map[string]interface{}) (string, error) {
	ref, _, err := s.client.Collection(collection).Add(ctx, fields)
	if err != nil {
		return "", err
	}
	return ref.ID, nil
}

func (s *firestoreDocumentStore) Set(ctx context.Context, collection, id string, fields map[string]interface{}, merge bool) error {
	ref := s.client.Collection(collection).Doc(id)
	var err error
	if merge {
		_, err = ref.Set(ctx, fields, firestore.MergeAll)
	} else {
		_, err = ref.Set(ctx, fields)
	}
	return err
}

func (s *firestoreDocumentStore) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	updates := make([]firestore.Update, 0, len(keys))
	for _, k := range keys {
		updates = append(updates, firestore.Update{Path: k, Value: fields[k]})
	}

	_, err := s.client.Collection(collection).Doc(id).Update(ctx, updates)
	if err != nil && status.Code(err) == codes.NotFound {
		return errors.NotFound(collection+"/"+id, err)
	}
	return err
}

func (s *firestoreDocumentStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.client.Collection(collection).Doc(id).Delete(ctx)
	return err
}
