package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/mrops-br/hardware-storefront/internal/domain"
)

var errEmptyProfileName = errors.New("profile name is required")

// GateMode is the outcome of the management area access check.
type GateMode int

const (
	GateGranted GateMode = iota
	GateLoginRequired
	GateAccessDenied
)

func (m GateMode) String() string {
	switch m {
	case GateGranted:
		return "granted"
	case GateLoginRequired:
		return "login-required"
	case GateAccessDenied:
		return "access-denied"
	}
	return "unknown"
}

// Gate decides whether the caller in ctx may use product management.
// Anonymous callers must log in; authenticated callers need the admin role.
func (s *ProductService) Gate(ctx context.Context) (GateMode, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.Gate")
	defer span.End()

	if domain.CallerFromContext(ctx).Anonymous() {
		return GateLoginRequired, nil
	}

	admin, err := s.backend.IsCallerAdmin(ctx)
	if err != nil {
		span.RecordError(err)
		s.logger.ErrorContext(ctx, "Failed to check admin status",
			slog.String("error", err.Error()),
		)
		return GateAccessDenied, err
	}
	if !admin {
		s.logger.WarnContext(ctx, "Management access denied")
		return GateAccessDenied, nil
	}
	return GateGranted, nil
}

// CallerRole returns the caller's role, guest when the backend reports an
// unknown value.
func (s *ProductService) CallerRole(ctx context.Context) (domain.UserRole, error) {
	role, err := s.backend.CallerUserRole(ctx)
	if err != nil {
		return domain.RoleGuest, err
	}
	if !role.Valid() {
		s.logger.WarnContext(ctx, "Backend reported unknown role",
			slog.String("role", string(role)),
		)
		return domain.RoleGuest, nil
	}
	return role, nil
}

// Profile returns the caller's stored profile, nil if none was saved.
func (s *ProductService) Profile(ctx context.Context) (*domain.UserProfile, error) {
	return s.backend.CallerUserProfile(ctx)
}

// SaveProfile stores the caller's display name.
func (s *ProductService) SaveProfile(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return invalid(errEmptyProfileName)
	}
	if err := s.backend.SaveCallerUserProfile(ctx, domain.UserProfile{Name: strings.TrimSpace(name)}); err != nil {
		s.logger.ErrorContext(ctx, "Failed to save profile",
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}
