// Package account implements the profile, password and preferences pages.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/modelhub/portal/internal/model"
)

const (
	minPasswordLength = 8
	maxNameLength     = 100
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ErrPreferencesNotFound is returned by a PreferencesStore for users who
// never saved preferences.
var ErrPreferencesNotFound = errors.New("preferences not found")

// ValidationError lists the fields that failed validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

// ProfileBackend is the backend surface for the account owner.
type ProfileBackend interface {
	GetProfile(ctx context.Context, token string) (*model.Profile, error)
	UpdateProfile(ctx context.Context, token string, in model.ProfileUpdate) (*model.Profile, error)
	ChangePassword(ctx context.Context, token string, in model.PasswordChange) error
}

// ProfileInvalidator drops cached copies of a token's profile.
type ProfileInvalidator interface {
	Invalidate(ctx context.Context, token string) error
}

// PreferencesStore persists portal-side account settings.
type PreferencesStore interface {
	GetPreferences(ctx context.Context, userID string) (*model.Preferences, error)
	PutPreferences(ctx context.Context, p *model.Preferences) error
}

// Service implements the account pages.
type Service struct {
	backend     ProfileBackend
	invalidator ProfileInvalidator
	prefs       PreferencesStore
	logger      *slog.Logger
	now         func() time.Time
}

// NewService creates an account service.
func NewService(backend ProfileBackend, invalidator ProfileInvalidator, prefs PreferencesStore, logger *slog.Logger) *Service {
	return &Service{
		backend:     backend,
		invalidator: invalidator,
		prefs:       prefs,
		logger:      logger.With("component", "account"),
		now:         time.Now,
	}
}

// Profile returns the account owner.
func (s *Service) Profile(ctx context.Context, token string) (*model.Profile, error) {
	return s.backend.GetProfile(ctx, token)
}

// UpdateProfile validates and saves the editable profile fields.
func (s *Service) UpdateProfile(ctx context.Context, token string, in model.ProfileUpdate) (*model.Profile, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Company = strings.TrimSpace(in.Company)
	in.AvatarURL = strings.TrimSpace(in.AvatarURL)

	if fields := ValidateProfile(in); len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	p, err := s.backend.UpdateProfile(ctx, token, in)
	if err != nil {
		return nil, err
	}

	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx, token); err != nil {
			s.logger.Warn("profile cache invalidation failed", slog.String("error", err.Error()))
		}
	}
	return p, nil
}

// ChangePassword validates the request before forwarding it to the backend.
func (s *Service) ChangePassword(ctx context.Context, token string, in model.PasswordChange) error {
	if fields := ValidatePasswordChange(in); len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return s.backend.ChangePassword(ctx, token, in)
}

// Preferences returns the user's settings, or the defaults if none were saved.
func (s *Service) Preferences(ctx context.Context, userID string) (*model.Preferences, error) {
	p, err := s.prefs.GetPreferences(ctx, userID)
	if errors.Is(err, ErrPreferencesNotFound) {
		return model.DefaultPreferences(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}
	return p, nil
}

// UpdatePreferences validates and replaces the user's settings.
func (s *Service) UpdatePreferences(ctx context.Context, userID string, in model.Preferences) (*model.Preferences, error) {
	in.Timezone = strings.TrimSpace(in.Timezone)
	if fields := ValidatePreferences(in); len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	in.UserID = userID
	in.UpdatedAt = s.now().UTC().Truncate(time.Millisecond)
	if in.MutedTypes == nil {
		in.MutedTypes = []string{}
	}
	slices.Sort(in.MutedTypes)
	in.MutedTypes = slices.Compact(in.MutedTypes)

	if err := s.prefs.PutPreferences(ctx, &in); err != nil {
		return nil, fmt.Errorf("put preferences: %w", err)
	}
	return &in, nil
}

// ValidateProfile returns field errors for a profile update.
func ValidateProfile(in model.ProfileUpdate) map[string]string {
	fields := make(map[string]string)
	switch {
	case in.Name == "":
		fields["name"] = "Name is required"
	case len(in.Name) > maxNameLength:
		fields["name"] = fmt.Sprintf("Name must be at most %d characters", maxNameLength)
	}
	switch {
	case in.Email == "":
		fields["email"] = "Email is required"
	case !emailPattern.MatchString(in.Email):
		fields["email"] = "Please enter a valid email address"
	}
	if in.AvatarURL != "" && !strings.HasPrefix(in.AvatarURL, "https://") {
		fields["avatar_url"] = "Avatar URL must use https"
	}
	return fields
}

// ValidatePasswordChange returns field errors for a password change.
func ValidatePasswordChange(in model.PasswordChange) map[string]string {
	fields := make(map[string]string)
	if in.CurrentPassword == "" {
		fields["current_password"] = "Current password is required"
	}

	switch {
	case len(in.NewPassword) < minPasswordLength:
		fields["new_password"] = fmt.Sprintf("Password must be at least %d characters", minPasswordLength)
	case !hasLetterAndDigit(in.NewPassword):
		fields["new_password"] = "Password must contain a letter and a digit"
	case in.CurrentPassword != "" && in.NewPassword == in.CurrentPassword:
		fields["new_password"] = "New password must differ from the current one"
	}

	if in.ConfirmPassword != in.NewPassword {
		fields["confirm_password"] = "Passwords do not match"
	}
	return fields
}

// ValidatePreferences returns field errors for a preferences update.
func ValidatePreferences(in model.Preferences) map[string]string {
	fields := make(map[string]string)
	if in.UsageAlertPercent < 1 || in.UsageAlertPercent > 100 {
		fields["usage_alert_percent"] = "Alert threshold must be between 1 and 100"
	}
	for _, t := range in.MutedTypes {
		if !model.IsValidNotificationType(model.NotificationType(t)) {
			fields["muted_types"] = fmt.Sprintf("Unknown notification type %q", t)
			break
		}
	}
	if in.Timezone != "" {
		if _, err := time.LoadLocation(in.Timezone); err != nil {
			fields["timezone"] = "Unknown timezone"
		}
	}
	return fields
}

func hasLetterAndDigit(s string) bool {
	var letter, digit bool
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return letter && digit
}

// MemoryPreferencesStore keeps preferences in process memory.
type MemoryPreferencesStore struct {
	mu    sync.RWMutex
	prefs map[string]model.Preferences
}

// NewMemoryPreferencesStore creates an empty store.
func NewMemoryPreferencesStore() *MemoryPreferencesStore {
	return &MemoryPreferencesStore{prefs: make(map[string]model.Preferences)}
}

func (m *MemoryPreferencesStore) GetPreferences(ctx context.Context, userID string) (*model.Preferences, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.prefs[userID]
	if !ok {
		return nil, ErrPreferencesNotFound
	}
	p.MutedTypes = slices.Clone(p.MutedTypes)
	return &p, nil
}

func (m *MemoryPreferencesStore) PutPreferences(ctx context.Context, p *model.Preferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *p
	cp.MutedTypes = slices.Clone(p.MutedTypes)
	m.prefs[p.UserID] = cp
	return nil
}
