// Package profile manages user profile documents: creation, field
// updates, and avatars.
package profile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"campus-sync/contract"
	"campus-sync/domain"
	"campus-sync/repositories"

	"github.com/google/uuid"
)

type Manager struct {
	users repositories.IUserRepository
	blobs contract.BlobStore
	log   *slog.Logger
}

func NewManager(users repositories.IUserRepository, blobs contract.BlobStore, log *slog.Logger) *Manager {
	return &Manager{users: users, blobs: blobs, log: log}
}

// Update carries the editable profile fields. Nil pointers leave the
// current value in place, so a client can patch a single field.
type Update struct {
	Name       *string
	Surname    *string
	Patronymic *string
	Course     *string
	College    *string
	Job        *string
}

func (m *Manager) CreateUser(ctx context.Context, name, surname string) (domain.User, error) {
	user := domain.User{
		ID:             uuid.NewString(),
		Name:           name,
		Surname:        surname,
		Friends:        []string{},
		FriendRequests: []string{},
	}
	if err := m.users.Create(ctx, user); err != nil {
		return domain.User{}, err
	}
	m.log.Info("Created user", "user", user.ID)
	return user, nil
}

func (m *Manager) Get(ctx context.Context, id string) (domain.User, error) {
	return m.users.Get(ctx, id)
}

func (m *Manager) UpdateProfile(ctx context.Context, id string, upd Update) (domain.User, error) {
	var updated domain.User
	err := m.users.Mutate(ctx, id, func(user *domain.User) error {
		apply(&user.Name, upd.Name)
		apply(&user.Surname, upd.Surname)
		apply(&user.Patronymic, upd.Patronymic)
		apply(&user.Course, upd.Course)
		apply(&user.College, upd.College)
		apply(&user.Job, upd.Job)
		updated = *user
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return updated, nil
}

// SetAvatar uploads the photo before touching the profile document. If
// the upload fails the profile keeps its previous photo; a profile never
// points at a blob that was not stored.
func (m *Manager) SetAvatar(ctx context.Context, id string, photo []byte, name string) (domain.User, error) {
	ref, err := m.blobs.Upload(ctx, fmt.Sprintf("avatars/%s/%d-%s", id, time.Now().UnixMilli(), name), photo)
	if err != nil {
		return domain.User{}, fmt.Errorf("avatar upload failed, profile unchanged: %w", err)
	}
	url, err := m.blobs.URL(ref)
	if err != nil {
		return domain.User{}, fmt.Errorf("avatar upload failed, profile unchanged: %w", err)
	}

	var updated domain.User
	err = m.users.Mutate(ctx, id, func(user *domain.User) error {
		user.PhotoRef = url
		updated = *user
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return updated, nil
}

func apply(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
