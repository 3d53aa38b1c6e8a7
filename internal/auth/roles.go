package auth

import (
	"context"
	"fmt"
	"time"

	"Sparkle/internal/cache"
	"Sparkle/internal/repo"

	"go.uber.org/zap"
)

const DefaultRoleTTL = 5 * time.Minute

// RoleService answers role queries from the store, memoised in a cache.
type RoleService struct {
	Repo  repo.RoleStore
	Cache cache.Cache
	TTL   time.Duration
	Log   *zap.Logger
}

func roleKey(userID int) string { return fmt.Sprintf("role:%d", userID) }

func (s *RoleService) Role(ctx context.Context, userID int) (repo.Role, error) {
	key := roleKey(userID)
	if s.Cache != nil {
		v, ok, err := s.Cache.Get(ctx, key)
		if err != nil {
			s.warn("role cache get", err)
		} else if ok {
			if role, valid := repo.ParseRole(v); valid {
				return role, nil
			}
		}
	}

	role, err := s.Repo.GetRole(ctx, userID)
	if err != nil {
		return "", err
	}

	if s.Cache != nil {
		ttl := s.TTL
		if ttl <= 0 {
			ttl = DefaultRoleTTL
		}
		if err := s.Cache.Set(ctx, key, string(role), ttl); err != nil {
			s.warn("role cache set", err)
		}
	}
	return role, nil
}

func (s *RoleService) IsAdmin(ctx context.Context, userID int) (bool, error) {
	role, err := s.Role(ctx, userID)
	if err != nil {
		return false, err
	}
	return role == repo.RoleAdmin, nil
}

// Forget drops the cached role so the next query reads the store.
func (s *RoleService) Forget(ctx context.Context, userID int) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Delete(ctx, roleKey(userID)); err != nil {
		s.warn("role cache delete", err)
	}
}

func (s *RoleService) Grant(ctx context.Context, userID int, role repo.Role) error {
	if err := s.Repo.SetRole(ctx, userID, role); err != nil {
		return err
	}
	s.Forget(ctx, userID)
	return nil
}

func (s *RoleService) warn(msg string, err error) {
	if s.Log != nil {
		s.Log.Warn(msg, zap.Error(err))
	}
}
