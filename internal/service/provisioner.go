package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/vidtube/internal/model"
	"github.com/d60-Lab/vidtube/internal/repository"
)

// Provisioner 为用户创建三个默认播放列表并写回引用
type Provisioner struct {
	users     repository.UserRepository
	playlists repository.PlaylistRepository
}

func NewProvisioner(users repository.UserRepository, playlists repository.PlaylistRepository) *Provisioner {
	return &Provisioner{users: users, playlists: playlists}
}

// EnsureDefaultPlaylists is idempotent: it creates only the missing default
// playlists and never replaces a reference that is already set. A partially
// provisioned user (crash between steps) converges on the next call.
func (p *Provisioner) EnsureDefaultPlaylists(ctx context.Context, userID string) (*model.User, error) {
	u, err := p.users.GetByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	if u.HasDefaultPlaylists() {
		return u, nil
	}

	for _, kind := range model.DefaultKinds {
		if u.DefaultPlaylistID(kind) != "" {
			continue
		}
		pl, err := p.findOrCreate(ctx, u.ID, kind)
		if err != nil {
			return nil, storeErr(err, "playlist")
		}
		if _, err := p.users.SetDefaultPlaylist(ctx, u.ID, kind, pl.ID); err != nil {
			return nil, storeErr(err, "user")
		}
	}

	u, err = p.users.GetByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	return u, nil
}

// findOrCreate 复用上一次未写回引用的默认列表；(owner_id, default_kind) 唯一
func (p *Provisioner) findOrCreate(ctx context.Context, ownerID string, kind model.DefaultKind) (*model.Playlist, error) {
	pl, err := p.playlists.FindDefault(ctx, ownerID, kind)
	if err == nil {
		return pl, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	k := kind
	pl = &model.Playlist{
		ID:          uuid.New().String(),
		Name:        kind.Title(),
		Description: kind.Title(),
		OwnerID:     ownerID,
		IsPublic:    false,
		IsDefault:   true,
		DefaultKind: &k,
	}
	err = p.playlists.Create(ctx, pl)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return p.playlists.FindDefault(ctx, ownerID, kind)
	}
	if err != nil {
		return nil, err
	}
	return pl, nil
}
