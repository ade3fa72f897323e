package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/agenda-api/internal/model"
	"github.com/jwalitptl/agenda-api/internal/repository"
)

// Directory resolves marketplace users.
type Directory interface {
	GetDisplayNames(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]string, error)
	GetEmails(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]string, error)
	ProfessionalUserID(ctx context.Context, professionalID uuid.UUID) (uuid.UUID, error)
}

// CachedDirectory reads profiles through a TTL cache. Unknown users are not
// cached so a profile created later shows up without waiting for expiry.
type CachedDirectory struct {
	repo  repository.ProfileRepository
	cache *cache.Cache
}

func NewCachedDirectory(repo repository.ProfileRepository, ttl time.Duration) *CachedDirectory {
	return &CachedDirectory{
		repo:  repo,
		cache: cache.New(ttl, 2*ttl),
	}
}

// GetDisplayNames returns a name for every id found; missing users are
// absent from the map.
func (d *CachedDirectory) GetDisplayNames(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	profiles, err := d.profiles(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(profiles))
	for id, p := range profiles {
		names[id] = p.FullName
	}
	return names, nil
}

func (d *CachedDirectory) GetEmails(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	profiles, err := d.profiles(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	emails := make(map[uuid.UUID]string, len(profiles))
	for id, p := range profiles {
		if p.Email != nil && *p.Email != "" {
			emails[id] = *p.Email
		}
	}
	return emails, nil
}

func (d *CachedDirectory) ProfessionalUserID(ctx context.Context, professionalID uuid.UUID) (uuid.UUID, error) {
	key := "professional:" + professionalID.String()
	if v, ok := d.cache.Get(key); ok {
		return v.(uuid.UUID), nil
	}
	userID, err := d.repo.ProfessionalUserID(ctx, professionalID)
	if err != nil {
		return uuid.Nil, err
	}
	d.cache.SetDefault(key, userID)
	return userID, nil
}

func (d *CachedDirectory) profiles(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]*model.Profile, error) {
	out := make(map[uuid.UUID]*model.Profile, len(userIDs))
	var missing []uuid.UUID
	seen := make(map[uuid.UUID]bool, len(userIDs))
	for _, id := range userIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if v, ok := d.cache.Get(profileKey(id)); ok {
			out[id] = v.(*model.Profile)
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return out, nil
	}

	fetched, err := d.repo.GetProfiles(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}
	for _, p := range fetched {
		d.cache.SetDefault(profileKey(p.UserID), p)
		out[p.UserID] = p
	}
	return out, nil
}

func profileKey(id uuid.UUID) string {
	return "profile:" + id.String()
}
