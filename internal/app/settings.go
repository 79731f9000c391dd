package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/avencia/tenantcore/internal/domain"
)

// SettingsService is the typed boundary over the per-tenant settings store.
// Sections are structs; serialization happens here, not in callers.
type SettingsService struct {
	repo domain.SettingsRepository
}

// NewSettingsService creates a settings service over the given repository.
func NewSettingsService(repo domain.SettingsRepository) *SettingsService {
	return &SettingsService{repo: repo}
}

// Load fills section with the tenant's stored values. The caller passes a
// pointer pre-filled with the section's defaults; stored values overlay them,
// so fields added after a tenant last saved keep their defaults.
func (s *SettingsService) Load(ctx context.Context, tenantKey string, section domain.SettingsSection) error {
	raw, err := s.repo.Load(ctx, tenantKey, section.SectionKey())
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading settings %q: %w", section.SectionKey(), err)
	}

	if err := json.Unmarshal(raw, section); err != nil {
		return fmt.Errorf("decoding settings %q: %w", section.SectionKey(), err)
	}
	return nil
}

// Save persists the section for the tenant, replacing any stored values.
func (s *SettingsService) Save(ctx context.Context, tenantKey string, section domain.SettingsSection) error {
	raw, err := json.Marshal(section)
	if err != nil {
		return fmt.Errorf("encoding settings %q: %w", section.SectionKey(), err)
	}

	if err := s.repo.Save(ctx, tenantKey, section.SectionKey(), raw); err != nil {
		return fmt.Errorf("saving settings %q: %w", section.SectionKey(), err)
	}
	return nil
}
