package memory

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-grocery/models"
	"go-grocery/store"
)

type Users struct {
	db *DB
}

func NewUsers(db *DB) *Users {
	return &Users{db: db}
}

// Create enforces email uniqueness the way the unique index does in
// MongoDB.
func (s *Users) Create(_ context.Context, user *models.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for _, u := range s.db.users {
		if u.Email == user.Email {
			return store.ErrDuplicate
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	s.db.users[user.ID] = *user
	return nil
}

func (s *Users) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	u, ok := s.db.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (s *Users) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	for _, u := range s.db.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Users) List(_ context.Context) ([]models.User, error) {
	s.db.mu.RLock()
	users := make([]models.User, 0, len(s.db.users))
	for _, u := range s.db.users {
		users = append(users, u)
	}
	s.db.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.After(users[j].CreatedAt)
		}
		return users[i].ID.Hex() > users[j].ID.Hex()
	})
	return users, nil
}

func (s *Users) Update(_ context.Context, user *models.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	existing, ok := s.db.users[user.ID]
	if !ok {
		return store.ErrNotFound
	}
	for id, u := range s.db.users {
		if id != user.ID && u.Email == user.Email {
			return store.ErrDuplicate
		}
	}
	existing.Name = user.Name
	existing.Email = user.Email
	existing.Phone = user.Phone
	existing.Password = user.Password
	s.db.users[user.ID] = existing
	return nil
}

func (s *Users) Delete(_ context.Context, id primitive.ObjectID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.db.users, id)
	return nil
}

func (s *Users) Count(_ context.Context) (int64, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return int64(len(s.db.users)), nil
}

var _ store.UserStore = (*Users)(nil)
