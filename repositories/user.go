//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"campus-sync/contract"
	"campus-sync/docstore"
	"campus-sync/domain"
	"campus-sync/errors"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/go-playground/validator/v10"
)

const UserCollection = "users"

func UserPath(id string) string { return UserCollection + "/" + id }

type IUserRepository interface {
	Create(ctx context.Context, user domain.User) error
	Get(ctx context.Context, id string) (domain.User, error)
	Mutate(ctx context.Context, id string, fn func(*domain.User) error) error
	All(ctx context.Context) ([]domain.User, error)
}

// UserRepository is the schema boundary for user documents. Every document
// entering or leaving the store is validated; documents missing invariant
// fields are rejected instead of being read with fallbacks.
type UserRepository struct {
	store contract.DocumentStore
	log   *slog.Logger
}

func NewUserRepository(store contract.DocumentStore, log *slog.Logger) *UserRepository {
	return &UserRepository{store: store, log: log}
}

var validate = validator.New()

// userDoc is the persisted shape of a user profile.
type userDoc struct {
	ID             string   `json:"id" validate:"required"`
	Name           string   `json:"name" validate:"required"`
	Surname        string   `json:"surname"`
	Patronymic     string   `json:"patronymic,omitempty"`
	Course         string   `json:"course,omitempty"`
	College        string   `json:"college,omitempty"`
	Job            string   `json:"job,omitempty"`
	PhotoRef       string   `json:"photoRef,omitempty"`
	Friends        []string `json:"friends"`
	FriendRequests []string `json:"friendRequests"`
}

func (r *UserRepository) Create(ctx context.Context, user domain.User) error {
	doc, err := encodeUser(user)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, UserPath(user.ID), doc)
}

func (r *UserRepository) Get(ctx context.Context, id string) (domain.User, error) {
	doc, err := r.store.Get(ctx, UserPath(id))
	if err != nil {
		return domain.User{}, err
	}
	return DecodeUser(doc)
}

// Mutate applies fn to the current user inside one store transaction and
// re-validates the result before it is written. fn returning an error
// aborts with no side effects.
func (r *UserRepository) Mutate(ctx context.Context, id string, fn func(*domain.User) error) error {
	return r.store.Mutate(ctx, UserPath(id), func(doc contract.Document) (contract.Document, error) {
		if doc == nil {
			return nil, fmt.Errorf("%w: user %s", errors.ErrNotFound, id)
		}
		user, err := DecodeUser(doc)
		if err != nil {
			return nil, err
		}
		if err := fn(&user); err != nil {
			return nil, err
		}
		return encodeUser(user)
	})
}

func (r *UserRepository) All(ctx context.Context) ([]domain.User, error) {
	snaps, err := r.store.Query(ctx, UserCollection, nil)
	if err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(snaps))
	for _, snap := range snaps {
		user, err := DecodeUser(snap.Data)
		if err != nil {
			r.log.Warn("Skipping malformed user document", "path", snap.Path, "error", err)
			continue
		}
		users = append(users, user)
	}
	return users, nil
}

// DecodeUser converts a raw store document into a domain user, rejecting
// documents that violate the schema or the self-reference invariant.
func DecodeUser(doc contract.Document) (domain.User, error) {
	var d userDoc
	if err := docstore.Decode(doc, &d); err != nil {
		return domain.User{}, err
	}
	if err := validate.Struct(d); err != nil {
		return domain.User{}, fmt.Errorf("%w: %v", errors.ErrInvalidDocument, err)
	}
	user := domain.User{
		ID:             d.ID,
		Name:           d.Name,
		Surname:        d.Surname,
		Patronymic:     d.Patronymic,
		Course:         d.Course,
		College:        d.College,
		Job:            d.Job,
		PhotoRef:       d.PhotoRef,
		Friends:        d.Friends,
		FriendRequests: d.FriendRequests,
	}
	if err := checkUserInvariants(user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func encodeUser(user domain.User) (contract.Document, error) {
	if err := checkUserInvariants(user); err != nil {
		return nil, err
	}
	d := userDoc{
		ID:             user.ID,
		Name:           user.Name,
		Surname:        user.Surname,
		Patronymic:     user.Patronymic,
		Course:         user.Course,
		College:        user.College,
		Job:            user.Job,
		PhotoRef:       user.PhotoRef,
		Friends:        user.Friends,
		FriendRequests: user.FriendRequests,
	}
	if d.Friends == nil {
		d.Friends = []string{}
	}
	if d.FriendRequests == nil {
		d.FriendRequests = []string{}
	}
	if err := validate.Struct(d); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidDocument, err)
	}
	return docstore.Encode(d)
}

// A user id never appears in its own friend or request sets.
func checkUserInvariants(user domain.User) error {
	if slices.Contains(user.Friends, user.ID) || slices.Contains(user.FriendRequests, user.ID) {
		return fmt.Errorf("%w: user %s references itself", errors.ErrInvalidDocument, user.ID)
	}
	return nil
}
