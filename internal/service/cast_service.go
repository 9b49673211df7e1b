package service

import (
	"context"
	"strings"

	"storyloom/internal/access"
	"storyloom/internal/models"
	"storyloom/internal/repository"
	"storyloom/internal/validation"
)

// CastService manages a project's characters, their moods, and backgrounds.
type CastService struct {
	cast   repository.CastRepository
	policy Authorizer
}

type CharacterFields struct {
	Name        string
	Tag         string
	Color       string
	Description string
}

type CreateCharacterInput struct {
	UserID    uint
	ProjectID uint
	Character CharacterFields
}

type UpdateCharacterInput struct {
	UserID      uint
	CharacterID uint
	Character   CharacterFields
}

type CreateMoodInput struct {
	UserID      uint
	CharacterID uint
	Name        string
}

type UpdateMoodInput struct {
	UserID uint
	MoodID uint
	Name   string
}

type BackgroundFields struct {
	Name     string
	ImageURL string
}

type CreateBackgroundInput struct {
	UserID     uint
	ProjectID  uint
	Background BackgroundFields
}

type UpdateBackgroundInput struct {
	UserID       uint
	BackgroundID uint
	Background   BackgroundFields
}

func NewCastService(cast repository.CastRepository, policy Authorizer) *CastService {
	return &CastService{cast: cast, policy: policy}
}

func validateCharacter(f CharacterFields) (*models.Character, error) {
	name, err := requireText(f.Name, "Name", 100)
	if err != nil {
		return nil, err
	}
	tag := strings.TrimSpace(f.Tag)
	if err := validation.ValidateCharacterTag(tag); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	color := strings.TrimSpace(f.Color)
	if err := validation.ValidateColor(color); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	return &models.Character{
		Name:        name,
		Tag:         tag,
		Color:       color,
		Description: strings.TrimSpace(f.Description),
	}, nil
}

func (s *CastService) CreateCharacter(ctx context.Context, in CreateCharacterInput) (*models.Character, error) {
	if _, err := s.policy.Authorize(ctx, in.UserID, in.ProjectID, access.CapabilityEditContent); err != nil {
		return nil, err
	}
	character, err := validateCharacter(in.Character)
	if err != nil {
		return nil, err
	}
	character.ProjectID = in.ProjectID
	if err := s.cast.CreateCharacter(ctx, character); err != nil {
		return nil, err
	}
	return s.cast.GetCharacter(ctx, character.ID)
}

func (s *CastService) GetCharacter(ctx context.Context, userID, characterID uint) (*models.Character, error) {
	character, err := s.cast.GetCharacter(ctx, characterID)
	if err != nil {
		return nil, err
	}
	if _, err := s.policy.Authorize(ctx, userID, character.ProjectID, access.CapabilityRead); err != nil {
		return nil, err
	}
	return character, nil
}

func (s *CastService) ListCharacters(ctx context.Context, userID, projectID uint) ([]models.Character, error) {
	if _, err := s.policy.Authorize(ctx, userID, projectID, access.CapabilityRead); err != nil {
		return nil, err
	}
	return s.cast.ListCharacters(ctx, projectID)
}

func (s *CastService) UpdateCharacter(ctx context.Context, in UpdateCharacterInput) (*models.Character, error) {
	existing, err := s.cast.GetCharacter(ctx, in.CharacterID)
	if err != nil {
		return nil, err
	}
	if _, err := s.policy.Authorize(ctx, in.UserID, existing.ProjectID, access.CapabilityEditContent); err != nil {
		return nil, err
	}
	character, err := validateCharacter(in.Character)
	if err != nil {
		return nil, err
	}
	character.ID = existing.ID
	character.ProjectID = existing.ProjectID
	if err := s.cast.UpdateCharacter(ctx, character); err != nil {
		return nil, err
	}
	return s.cast.GetCharacter(ctx, character.ID)
}

// DeleteCharacter removes the character and its moods. Lines and messages
// that referenced it become narration.
func (s *CastService) DeleteCharacter(ctx context.Context, userID, characterID uint) error {
	character, err := s.cast.GetCharacter(ctx, characterID)
	if err != nil {
		return err
	}
	if _, err := s.policy.Authorize(ctx, userID, character.ProjectID, access.CapabilityEditContent); err != nil {
		return err
	}
	return s.cast.DeleteCharacter(ctx, characterID)
}

func (s *CastService) CreateMood(ctx context.Context, in CreateMoodInput) (*models.Mood, error) {
	character, err := s.cast.GetCharacter(ctx, in.CharacterID)
	if err != nil {
		return nil, err
	}
	if _, err := s.policy.Authorize(ctx, in.UserID, character.ProjectID, access.CapabilityEditContent); err != nil {
		return nil, err
	}
	name, err := requireText(in.Name, "Name", 100)
	if err != nil {
		return nil, err
	}

	mood := &models.Mood{ProjectID: character.ProjectID, CharacterID: character.ID, Name: name}
	if err := s.cast.CreateMood(ctx, mood); err != nil {
		return nil, err
	}
	return mood, nil
}

func (s *CastService) ListMoods(ctx context.Context, userID, projectID uint) ([]models.Mood, error) {
	if _, err := s.policy.Authorize(ctx, userID, projectID, access.CapabilityRead); err != nil {
		return nil, err
	}
	return s.cast.ListMoods(ctx, projectID)
}

func (s *CastService) UpdateMood(ctx context.Context, in UpdateMoodInput) (*models.Mood, error) {
	mood, err := s.cast.GetMood(ctx, in.MoodID)
	if err != nil {
		return nil, err
	}
	if _, err := s.policy.Authorize(ctx, in.UserID, mood.ProjectID, access.CapabilityEditContent); err != nil {
		return nil, err
	}
	if mood.Name, err = requireText(in.Name, "Name", 100); err != nil {
		return nil, err
	}
	if err := s.cast.UpdateMood(ctx, mood); err != nil {
		return nil, err
	}
	return mood, nil
}

func (s *CastService) DeleteMood(ctx context.Context, userID, moodID uint) error {
	mood, err := s.cast.GetMood(ctx, moodID)
	if err != nil {
		return err
	}
	if _, err := s.policy.Authorize(ctx, userID, mood.ProjectID, access.CapabilityEditContent); err != nil {
		return err
	}
	return s.cast.DeleteMood(ctx, moodID)
}

func validateBackground(f BackgroundFields) (*models.Background, error) {
	name, err := requireName(f.Name)
	if err != nil {
		return nil, err
	}
	imageURL := strings.TrimSpace(f.ImageURL)
	if imageURL == "" {
		return nil, models.NewValidationError("Image URL is required")
	}
	if err := validation.ValidateAssetURL(imageURL); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	return &models.Background{Name: name, ImageURL: imageURL}, nil
}

func (s *CastService) CreateBackground(ctx context.Context, in CreateBackgroundInput) (*models.Background, error) {
	if _, err := s.policy.Authorize(ctx, in.UserID, in.ProjectID, access.CapabilityEditContent); err != nil {
		return nil, err
	}
	background, err := validateBackground(in.Background)
	if err != nil {
		return nil, err
	}
	background.ProjectID = in.ProjectID
	if err := s.cast.CreateBackground(ctx, background); err != nil {
		return nil, err
	}
	return background, nil
}

func (s *CastService) ListBackgrounds(ctx context.Context, userID, projectID uint) ([]models.Background, error) {
	if _, err := s.policy.Authorize(ctx, userID, projectID, access.CapabilityRead); err != nil {
		return nil, err
	}
	return s.cast.ListBackgrounds(ctx, projectID)
}

func (s *CastService) UpdateBackground(ctx context.Context, in UpdateBackgroundInput) (*models.Background, error) {
	existing, err := s.cast.GetBackground(ctx, in.BackgroundID)
	if err != nil {
		return nil, err
	}
	if _, err := s.policy.Authorize(ctx, in.UserID, existing.ProjectID, access.CapabilityEditContent); err != nil {
		return nil, err
	}
	background, err := validateBackground(in.Background)
	if err != nil {
		return nil, err
	}
	background.ID = existing.ID
	background.ProjectID = existing.ProjectID
	background.CreatedAt = existing.CreatedAt
	if err := s.cast.UpdateBackground(ctx, background); err != nil {
		return nil, err
	}
	return background, nil
}

func (s *CastService) DeleteBackground(ctx context.Context, userID, backgroundID uint) error {
	background, err := s.cast.GetBackground(ctx, backgroundID)
	if err != nil {
		return err
	}
	if _, err := s.policy.Authorize(ctx, userID, background.ProjectID, access.CapabilityEditContent); err != nil {
		return err
	}
	return s.cast.DeleteBackground(ctx, backgroundID)
}
