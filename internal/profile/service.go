// Package profile loads, edits and persists a user's master resume profile.
// The remote store is authoritative; a local mirror serves reads when the
// store cannot be reached.
package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/resume-tracker/internal/db"
	"github.com/jonathan/resume-tracker/internal/schemas"
	"github.com/jonathan/resume-tracker/internal/types"
)

// Store is the remote profile persistence used by the service.
type Store interface {
	EnsureProfile(ctx context.Context, userID uuid.UUID, email string) (*db.ProfileRecord, error)
	SaveProfileData(ctx context.Context, userID uuid.UUID, data []byte) error
	SaveSettings(ctx context.Context, userID uuid.UUID, settings []byte) error
}

// Mirror is a local copy of profiles keyed by user.
type Mirror interface {
	Put(ctx context.Context, userID uuid.UUID, profile *types.Profile) error
	Get(ctx context.Context, userID uuid.UUID) (*types.Profile, error)
	Delete(ctx context.Context, userID uuid.UUID) error
}

// Service owns profile reads and writes for authenticated users.
type Service struct {
	store  Store
	mirror Mirror
}

// NewService creates a profile service. mirror may be nil.
func NewService(store Store, mirror Mirror) *Service {
	return &Service{store: store, mirror: mirror}
}

// Load returns the user's profile, creating an empty one on first use. A
// stored document that fails validation is replaced by an empty profile.
func (s *Service) Load(ctx context.Context, userID uuid.UUID, email string) (*types.Profile, error) {
	rec, err := s.store.EnsureProfile(ctx, userID, email)
	if err != nil {
		if cached := s.fromMirror(ctx, userID); cached != nil {
			log.Printf("[profile] store unavailable, serving mirrored profile for %s: %v", userID, err)
			return cached, nil
		}
		return nil, &StoreError{Message: "failed to load profile", Cause: err}
	}

	profile, err := schemas.ParseProfile(rec.Data)
	if err != nil {
		log.Printf("[profile] stored profile for %s is malformed, using empty profile: %v", userID, err)
		profile = types.EmptyProfile()
	}
	s.toMirror(ctx, userID, profile)
	return profile, nil
}

// Save replaces the whole profile.
func (s *Service) Save(ctx context.Context, userID uuid.UUID, profile *types.Profile) (*types.Profile, error) {
	if profile == nil {
		profile = types.EmptyProfile()
	}
	profile.Normalize()
	if err := prepareExperience(profile.Experience); err != nil {
		return nil, err
	}
	prepareEducation(profile.Education)
	if err := prepareSkills(profile.Skills); err != nil {
		return nil, err
	}

	data, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := s.store.SaveProfileData(ctx, userID, data); err != nil {
		return nil, &StoreError{Message: "failed to save profile", Cause: err}
	}
	s.toMirror(ctx, userID, profile)
	return profile, nil
}

// update loads the profile, applies fn and saves the result.
func (s *Service) update(ctx context.Context, userID uuid.UUID, email string, fn func(p *types.Profile) error) (*types.Profile, error) {
	profile, err := s.Load(ctx, userID, email)
	if err != nil {
		return nil, err
	}
	if err := fn(profile); err != nil {
		return nil, err
	}
	return s.Save(ctx, userID, profile)
}

// UpdatePersonal replaces the personal info section.
func (s *Service) UpdatePersonal(ctx context.Context, userID uuid.UUID, email string, info types.PersonalInfo) (*types.Profile, error) {
	return s.update(ctx, userID, email, func(p *types.Profile) error {
		p.PersonalInfo = info
		return nil
	})
}

// UpdateExperience replaces the experience section.
func (s *Service) UpdateExperience(ctx context.Context, userID uuid.UUID, email string, experience []types.Experience) (*types.Profile, error) {
	return s.update(ctx, userID, email, func(p *types.Profile) error {
		p.Experience = experience
		return nil
	})
}

// UpdateEducation replaces the education section.
func (s *Service) UpdateEducation(ctx context.Context, userID uuid.UUID, email string, education []types.Education) (*types.Profile, error) {
	return s.update(ctx, userID, email, func(p *types.Profile) error {
		p.Education = education
		return nil
	})
}

// UpdateSkills replaces the skills section. Duplicate (name, category) pairs
// are rejected with types.ErrDuplicateSkill.
func (s *Service) UpdateSkills(ctx context.Context, userID uuid.UUID, email string, skills []types.Skill) (*types.Profile, error) {
	return s.update(ctx, userID, email, func(p *types.Profile) error {
		p.Skills = skills
		return nil
	})
}

// AddSkill appends one skill.
func (s *Service) AddSkill(ctx context.Context, userID uuid.UUID, email string, skill types.Skill) (*types.Profile, error) {
	skill.Name = strings.TrimSpace(skill.Name)
	if skill.Name == "" {
		return nil, &InputError{Field: "name", Message: "skill name is required"}
	}
	if !skill.Category.Valid() {
		return nil, &InputError{Field: "category", Message: fmt.Sprintf("unknown skill category %q", skill.Category)}
	}
	return s.update(ctx, userID, email, func(p *types.Profile) error {
		if skill.ID == "" {
			skill.ID = uuid.NewString()
		}
		return p.AddSkill(skill)
	})
}

// Reset replaces the profile with an empty one. The mirrored copy is dropped
// first so a failed save never leaves the old profile to be served.
func (s *Service) Reset(ctx context.Context, userID uuid.UUID) (*types.Profile, error) {
	if s.mirror != nil {
		if err := s.mirror.Delete(ctx, userID); err != nil {
			log.Printf("[profile] mirror delete failed for %s: %v", userID, err)
		}
	}
	return s.Save(ctx, userID, types.EmptyProfile())
}

// Settings returns the user's settings. Malformed settings read as defaults.
func (s *Service) Settings(ctx context.Context, userID uuid.UUID, email string) (types.Settings, error) {
	rec, err := s.store.EnsureProfile(ctx, userID, email)
	if err != nil {
		return types.Settings{}, &StoreError{Message: "failed to load settings", Cause: err}
	}
	settings, err := schemas.ParseSettings(rec.Settings)
	if err != nil {
		log.Printf("[profile] stored settings for %s are malformed, using defaults: %v", userID, err)
		return types.Settings{}, nil
	}
	return settings, nil
}

// SaveSettings replaces the user's settings.
func (s *Service) SaveSettings(ctx context.Context, userID uuid.UUID, settings types.Settings) (types.Settings, error) {
	data, err := json.Marshal(settings)
	if err != nil {
		return types.Settings{}, fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := s.store.SaveSettings(ctx, userID, data); err != nil {
		return types.Settings{}, &StoreError{Message: "failed to save settings", Cause: err}
	}
	return settings, nil
}

func (s *Service) fromMirror(ctx context.Context, userID uuid.UUID) *types.Profile {
	if s.mirror == nil {
		return nil
	}
	cached, err := s.mirror.Get(ctx, userID)
	if err != nil {
		log.Printf("[profile] mirror read failed for %s: %v", userID, err)
		return nil
	}
	return cached
}

func (s *Service) toMirror(ctx context.Context, userID uuid.UUID, profile *types.Profile) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.Put(ctx, userID, profile); err != nil {
		log.Printf("[profile] mirror write failed for %s: %v", userID, err)
	}
}

func prepareExperience(experience []types.Experience) error {
	for i := range experience {
		e := &experience[i]
		if strings.TrimSpace(e.Title) == "" && strings.TrimSpace(e.Company) == "" {
			return &InputError{Field: fmt.Sprintf("experience[%d]", i), Message: "title or company is required"}
		}
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		if e.Bullets == nil {
			e.Bullets = []string{}
		}
	}
	return nil
}

func prepareEducation(education []types.Education) {
	for i := range education {
		if education[i].ID == "" {
			education[i].ID = uuid.NewString()
		}
	}
}

func prepareSkills(skills []types.Skill) error {
	seen := make(map[string]bool, len(skills))
	for i := range skills {
		sk := &skills[i]
		sk.Name = strings.TrimSpace(sk.Name)
		if sk.Name == "" {
			return &InputError{Field: fmt.Sprintf("skills[%d].name", i), Message: "skill name is required"}
		}
		if !sk.Category.Valid() {
			return &InputError{Field: fmt.Sprintf("skills[%d].category", i), Message: fmt.Sprintf("unknown skill category %q", sk.Category)}
		}
		key := strings.ToLower(sk.Name) + "\x00" + string(sk.Category)
		if seen[key] {
			return fmt.Errorf("%w: %s (%s)", types.ErrDuplicateSkill, sk.Name, sk.Category)
		}
		seen[key] = true
		if sk.ID == "" {
			sk.ID = uuid.NewString()
		}
	}
	return nil
}
