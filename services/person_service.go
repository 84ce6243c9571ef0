package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/table-match-manager/models"
	"github.com/Dosada05/table-match-manager/repositories"
	"github.com/Dosada05/table-match-manager/storage"
)

type CreatePersonInput struct {
	Name string `json:"name"`
}

type PersonService interface {
	Create(ctx context.Context, input CreatePersonInput) (*models.Person, error)
	GetByID(ctx context.Context, id int) (*models.Person, error)
	List(ctx context.Context) ([]*models.Person, error)
	UploadAvatar(ctx context.Context, id int, file io.Reader, contentType string) (*models.Person, error)
	RemoveAvatar(ctx context.Context, id int) (*models.Person, error)
}

type personService struct {
	personRepo repositories.PersonRepository
	uploader   storage.FileUploader
	logger     *slog.Logger

	now func() time.Time
}

func NewPersonService(personRepo repositories.PersonRepository, uploader storage.FileUploader, logger *slog.Logger) PersonService {
	return &personService{
		personRepo: personRepo,
		uploader:   uploader,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *personService) Create(ctx context.Context, input CreatePersonInput) (*models.Person, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrPersonNameRequired
	}

	person := &models.Person{Name: name}
	if err := s.personRepo.Create(ctx, person); err != nil {
		return nil, fmt.Errorf("failed to create person: %w", err)
	}

	s.logger.InfoContext(ctx, "person created", slog.Int("person_id", person.ID), slog.String("name", person.Name))
	return person, nil
}

func (s *personService) GetByID(ctx context.Context, id int) (*models.Person, error) {
	person, err := loadPerson(ctx, s.personRepo, id)
	if err != nil {
		return nil, err
	}
	s.populateAvatarURL(person)
	return person, nil
}

func (s *personService) List(ctx context.Context) ([]*models.Person, error) {
	persons, err := s.personRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list persons: %w", err)
	}
	for _, p := range persons {
		s.populateAvatarURL(p)
	}
	return persons, nil
}

func (s *personService) UploadAvatar(ctx context.Context, id int, file io.Reader, contentType string) (*models.Person, error) {
	if s.uploader == nil {
		return nil, ErrAvatarsNotConfigured
	}

	person, err := loadPerson(ctx, s.personRepo, id)
	if err != nil {
		return nil, err
	}

	ext, err := GetExtensionFromContentType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAvatarInvalidType, err)
	}

	key := fmt.Sprintf("avatars/person_%d_%d%s", person.ID, s.now().Unix(), ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	oldKey := person.AvatarKey
	if err := s.personRepo.UpdateAvatarKey(ctx, person.ID, &key); err != nil {
		// Загруженный объект подчищаем, раз ключ не сохранился.
		if delErr := s.uploader.Delete(ctx, key); delErr != nil {
			s.logger.WarnContext(ctx, "failed to delete orphaned avatar", slog.String("key", key), slog.Any("error", delErr))
		}
		return nil, fmt.Errorf("failed to store avatar key: %w", err)
	}

	if oldKey != nil && *oldKey != "" && *oldKey != key {
		if err := s.uploader.Delete(ctx, *oldKey); err != nil {
			s.logger.WarnContext(ctx, "failed to delete previous avatar", slog.String("key", *oldKey), slog.Any("error", err))
		}
	}

	person.AvatarKey = &key
	s.populateAvatarURL(person)
	return person, nil
}

func (s *personService) RemoveAvatar(ctx context.Context, id int) (*models.Person, error) {
	if s.uploader == nil {
		return nil, ErrAvatarsNotConfigured
	}

	person, err := loadPerson(ctx, s.personRepo, id)
	if err != nil {
		return nil, err
	}
	if person.AvatarKey == nil || *person.AvatarKey == "" {
		return person, nil
	}

	if err := s.personRepo.UpdateAvatarKey(ctx, person.ID, nil); err != nil {
		return nil, fmt.Errorf("failed to clear avatar key: %w", err)
	}
	if err := s.uploader.Delete(ctx, *person.AvatarKey); err != nil {
		s.logger.WarnContext(ctx, "failed to delete avatar object", slog.String("key", *person.AvatarKey), slog.Any("error", err))
	}

	person.AvatarKey = nil
	person.AvatarURL = nil
	return person, nil
}

func (s *personService) populateAvatarURL(person *models.Person) {
	if person == nil || s.uploader == nil || person.AvatarKey == nil || *person.AvatarKey == "" {
		return
	}
	if url := s.uploader.GetPublicURL(*person.AvatarKey); url != "" {
		person.AvatarURL = &url
	}
}

func GetExtensionFromContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	default:
		parts := strings.Split(contentType, "/")
		if len(parts) == 2 && strings.HasPrefix(parts[0], "image") && parts[1] != "" {
			return "." + strings.Split(parts[1], "+")[0], nil
		}
		return "", fmt.Errorf("could not determine file extension from content type: %q", contentType)
	}
}
