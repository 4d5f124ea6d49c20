package access

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Service resolves principals to profiles and module grants.
type Service struct {
	repo        ProfileRepository
	seededAdmin string
	logger      *slog.Logger
	now         func() time.Time
}

// NewService builds Service. seededAdmin names a uid that receives the admin
// role when its profile is first created.
func NewService(repo ProfileRepository, seededAdmin string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, seededAdmin: seededAdmin, logger: logger, now: time.Now}
}

// Resolve returns the stored profile of p, creating a default one on first sign-in.
// Persisting the default is best effort: a write failure is logged and the
// default is still returned.
func (s *Service) Resolve(ctx context.Context, p Principal) (Profile, error) {
	profile, err := s.repo.Get(ctx, p.UID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, ErrProfileNotFound) {
		return Profile{}, err
	}
	profile = s.defaultProfile(p)
	if err := s.repo.Create(ctx, profile); err != nil {
		if errors.Is(err, ErrProfileExists) {
			if stored, getErr := s.repo.Get(ctx, p.UID); getErr == nil {
				return stored, nil
			}
		}
		s.logger.Warn("access: persist default profile", slog.String("uid", p.UID), slog.Any("error", err))
	}
	return profile, nil
}

func (s *Service) defaultProfile(p Principal) Profile {
	role := RoleViewer
	if s.seededAdmin != "" && p.UID == s.seededAdmin {
		role = RoleAdmin
	}
	name := p.Name
	if name == "" {
		name = "User"
	}
	return Profile{
		UID:         p.UID,
		Email:       p.Email,
		Role:        role,
		Permissions: []ModuleID{},
		DisplayName: name,
		CreatedAt:   s.now().UTC(),
	}
}

// AccessibleModules lists the catalogue entries profile may open.
func AccessibleModules(profile Profile) []Module {
	out := make([]Module, 0, len(Modules))
	for _, m := range Modules {
		if CanAccess(profile, m.ID) {
			out = append(out, m)
		}
	}
	return out
}

// CanAccess reports whether profile may open module.
func CanAccess(profile Profile, module ModuleID) bool {
	if profile.Role == RoleAdmin {
		return true
	}
	for _, perm := range profile.Permissions {
		if perm == module {
			return true
		}
	}
	return false
}
