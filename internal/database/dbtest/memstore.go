// Package dbtest provides an in-memory stand-in for database.Store.
package dbtest

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"places-backend/internal/database"
	"places-backend/internal/models"
)

// MemStore keeps users and places in maps. CreatePlace and DeletePlace are
// all-or-nothing, like their transactional counterparts.
type MemStore struct {
	mu        sync.Mutex
	users     map[primitive.ObjectID]models.User
	userOrder []primitive.ObjectID
	places    map[primitive.ObjectID]models.Place
	failures  map[string]error

	// FailCreatorUpdate, when set, fails the creator update inside
	// CreatePlace and DeletePlace after the place write has been applied.
	FailCreatorUpdate error
}

func NewMemStore() *MemStore {
	return &MemStore{
		users:    make(map[primitive.ObjectID]models.User),
		places:   make(map[primitive.ObjectID]models.Place),
		failures: make(map[string]error),
	}
}

// FailOn makes the named method (e.g. "ListUsers") return err.
func (m *MemStore) FailOn(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[method] = err
}

func (m *MemStore) failure(method string) error {
	return m.failures[method]
}

func copyUser(u models.User) models.User {
	u.Places = append([]primitive.ObjectID{}, u.Places...)
	return u
}

func (m *MemStore) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failure("Ping")
}

func (m *MemStore) ListUsers(ctx context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("ListUsers"); err != nil {
		return nil, err
	}

	users := make([]models.User, 0, len(m.userOrder))
	for _, id := range m.userOrder {
		user := copyUser(m.users[id])
		user.Password = ""
		users = append(users, user)
	}
	return users, nil
}

func (m *MemStore) FindUserByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("FindUserByID"); err != nil {
		return models.User{}, err
	}

	user, ok := m.users[id]
	if !ok {
		return models.User{}, database.ErrNotFound
	}
	return copyUser(user), nil
}

func (m *MemStore) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("FindUserByEmail"); err != nil {
		return models.User{}, err
	}

	for _, user := range m.users {
		if user.Email == email {
			return copyUser(user), nil
		}
	}
	return models.User{}, database.ErrNotFound
}

func (m *MemStore) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("CreateUser"); err != nil {
		return err
	}

	for _, existing := range m.users {
		if existing.Email == user.Email {
			return database.ErrDuplicateEmail
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.Places == nil {
		user.Places = []primitive.ObjectID{}
	}
	m.users[user.ID] = copyUser(*user)
	m.userOrder = append(m.userOrder, user.ID)
	return nil
}

func (m *MemStore) FindPlaceByID(ctx context.Context, id primitive.ObjectID) (models.Place, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("FindPlaceByID"); err != nil {
		return models.Place{}, err
	}

	place, ok := m.places[id]
	if !ok {
		return models.Place{}, database.ErrNotFound
	}
	return place, nil
}

func (m *MemStore) ListPlacesByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Place, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("ListPlacesByUser"); err != nil {
		return nil, err
	}

	user, ok := m.users[userID]
	if !ok {
		return nil, database.ErrNotFound
	}
	places := make([]models.Place, 0, len(user.Places))
	for _, id := range user.Places {
		if place, ok := m.places[id]; ok {
			places = append(places, place)
		}
	}
	return places, nil
}

func (m *MemStore) CreatePlace(ctx context.Context, place *models.Place) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("CreatePlace"); err != nil {
		return err
	}

	if place.ID.IsZero() {
		place.ID = primitive.NewObjectID()
	}
	m.places[place.ID] = *place

	user, ok := m.users[place.Creator]
	switch {
	case m.FailCreatorUpdate != nil:
		delete(m.places, place.ID)
		return m.FailCreatorUpdate
	case !ok:
		delete(m.places, place.ID)
		return database.ErrNotFound
	}

	user.Places = append(user.Places, place.ID)
	m.users[user.ID] = user
	return nil
}

func (m *MemStore) UpdatePlace(ctx context.Context, place models.Place) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("UpdatePlace"); err != nil {
		return err
	}

	existing, ok := m.places[place.ID]
	if !ok {
		return database.ErrNotFound
	}
	existing.Title = place.Title
	existing.Description = place.Description
	m.places[place.ID] = existing
	return nil
}

func (m *MemStore) FindPlaceWithCreator(ctx context.Context, id primitive.ObjectID) (models.Place, models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("FindPlaceWithCreator"); err != nil {
		return models.Place{}, models.User{}, err
	}

	place, ok := m.places[id]
	if !ok {
		return models.Place{}, models.User{}, database.ErrNotFound
	}
	return place, copyUser(m.users[place.Creator]), nil
}

func (m *MemStore) DeletePlace(ctx context.Context, place models.Place) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("DeletePlace"); err != nil {
		return err
	}

	stored, ok := m.places[place.ID]
	if !ok {
		return database.ErrNotFound
	}
	delete(m.places, place.ID)

	user, ok := m.users[place.Creator]
	switch {
	case m.FailCreatorUpdate != nil:
		m.places[place.ID] = stored
		return m.FailCreatorUpdate
	case !ok:
		m.places[place.ID] = stored
		return database.ErrNotFound
	}

	kept := user.Places[:0:0]
	for _, id := range user.Places {
		if id != place.ID {
			kept = append(kept, id)
		}
	}
	user.Places = kept
	m.users[user.ID] = user
	return nil
}

// PlaceCount reports how many places are stored.
func (m *MemStore) PlaceCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.places)
}
