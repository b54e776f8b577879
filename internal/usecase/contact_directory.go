package usecase

import (
	"context"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"lumisync/internal/domain/docstore"
	"lumisync/internal/domain/entity"
	"lumisync/internal/infrastructure/livesync"
	"lumisync/pkg/logger"
)

const renterJoinLimit = 8

// contactDirectory lists the custom contacts live, followed by the renters
// of the caller's properties. The renter part is read once per activation.
type contactDirectory struct {
	uc      *ScreenUseCase
	sync    *livesync.Synchronizer[entity.Contact]
	publish func([]entity.Contact)

	mu      sync.Mutex
	renters []entity.Contact
}

func (uc *ScreenUseCase) contactScreen(publish func(items interface{})) Screen {
	d := &contactDirectory{
		uc:      uc,
		publish: func(contacts []entity.Contact) { publish(contacts) },
	}
	d.sync = livesync.NewSynchronizer(
		string(ScreenContacts),
		uc.store,
		uc.fetcher,
		func(context.Context, string) (docstore.ScopedQuery, error) {
			return ContactQuery(), nil
		},
		func(doc docstore.Document) (entity.Contact, bool) {
			return entity.ContactFromDocument(doc), true
		},
		d.onContacts,
	)
	return d
}

func (d *contactDirectory) Activate(ctx context.Context, userID string) error {
	d.sync.Deactivate()

	renters := d.uc.renterContacts(ctx, userID)
	d.mu.Lock()
	d.renters = renters
	d.mu.Unlock()

	return d.sync.Activate(ctx, userID)
}

func (d *contactDirectory) Deactivate() {
	d.sync.Deactivate()
}

func (d *contactDirectory) State() livesync.State {
	return d.sync.State()
}

func (d *contactDirectory) onContacts(custom []entity.Contact) {
	d.mu.Lock()
	renters := d.renters
	d.mu.Unlock()

	out := make([]entity.Contact, 0, len(custom)+len(renters))
	out = append(out, custom...)
	out = append(out, renters...)
	d.publish(out)
}

// renterContacts joins the tenancies in the caller's scope with their user
// documents, grouped by property name. Unreadable entries are skipped.
func (uc *ScreenUseCase) renterContacts(ctx context.Context, userID string) []entity.Contact {
	scope := uc.resolver.Resolve(ctx, userID)
	docs, err := uc.fetcher.Fetch(ctx, RenterQuery(scope), false)
	if err != nil {
		logger.Warn("Renter directory for %s is partial: %v", userID, err)
	}

	found := make([]*entity.Contact, len(docs))
	var g errgroup.Group
	g.SetLimit(renterJoinLimit)
	for i, doc := range docs {
		if doc.ID == userID {
			continue
		}
		i, tenancy := i, entity.TenancyFromDocument(doc)
		g.Go(func() error {
			userDoc, err := uc.store.Get(ctx, docstore.CollectionUsers, tenancy.RenterID)
			if err != nil {
				logger.Debug("Skipping renter %s in directory: %v", tenancy.RenterID, err)
				return nil
			}
			contact := entity.RenterContact(entity.UserFromDocument(*userDoc), tenancy)
			found[i] = &contact
			return nil
		})
	}
	_ = g.Wait()

	out := make([]entity.Contact, 0, len(found))
	for _, c := range found {
		if c != nil {
			out = append(out, *c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := strings.ToLower(out[i].PropertyName), strings.ToLower(out[j].PropertyName)
		if pi != pj {
			return pi < pj
		}
		ni, nj := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if ni != nj {
			return ni < nj
		}
		return out[i].ID < out[j].ID
	})
	return out
}
