package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/Dosada05/table-match-manager/storage"
)

type fakeUploader struct {
	objects map[string]string
	deleted []string
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{objects: make(map[string]string)}
}

func (u *fakeUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	u.objects[key] = string(data)
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *fakeUploader) Delete(ctx context.Context, key string) error {
	delete(u.objects, key)
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.test/" + key
}

func TestCreatePersonRequiresName(t *testing.T) {
	svc := NewPersonService(newFakePersonRepo(), nil, testLogger())

	if _, err := svc.Create(context.Background(), CreatePersonInput{Name: "   "}); !errors.Is(err, ErrPersonNameRequired) {
		t.Fatalf("got %v, want ErrPersonNameRequired", err)
	}

	person, err := svc.Create(context.Background(), CreatePersonInput{Name: "  Alice  "})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if person.Name != "Alice" {
		t.Errorf("name = %q, want trimmed %q", person.Name, "Alice")
	}
	if person.ID == 0 {
		t.Error("expected an assigned ID")
	}
}

func TestListPersonsOrderedWithAvatarURLs(t *testing.T) {
	personRepo := newFakePersonRepo()
	uploader := newFakeUploader()
	svc := NewPersonService(personRepo, uploader, testLogger())

	bob := personRepo.add("Bob")
	personRepo.add("Alice")
	key := "avatars/person_1.png"
	if err := personRepo.UpdateAvatarKey(context.Background(), bob.ID, &key); err != nil {
		t.Fatal(err)
	}

	persons, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(persons) != 2 || persons[0].Name != "Alice" || persons[1].Name != "Bob" {
		t.Fatalf("unexpected order: %+v", persons)
	}
	if persons[1].AvatarURL == nil || *persons[1].AvatarURL != "https://cdn.test/avatars/person_1.png" {
		t.Errorf("avatar url = %v", persons[1].AvatarURL)
	}
	if persons[0].AvatarURL != nil {
		t.Error("Alice has no avatar")
	}
}

func TestUploadAvatarReplacesPrevious(t *testing.T) {
	personRepo := newFakePersonRepo()
	uploader := newFakeUploader()
	svc := NewPersonService(personRepo, uploader, testLogger())

	alice := personRepo.add("Alice")

	person, err := svc.UploadAvatar(context.Background(), alice.ID, strings.NewReader("first"), "image/png")
	if err != nil {
		t.Fatalf("UploadAvatar: %v", err)
	}
	if person.AvatarKey == nil || !strings.HasSuffix(*person.AvatarKey, ".png") {
		t.Fatalf("avatar key = %v", person.AvatarKey)
	}
	firstKey := *person.AvatarKey

	person, err = svc.UploadAvatar(context.Background(), alice.ID, strings.NewReader("second"), "image/jpeg")
	if err != nil {
		t.Fatalf("UploadAvatar: %v", err)
	}
	if *person.AvatarKey == firstKey {
		t.Error("expected a fresh key for the new avatar")
	}

	// Старый объект подчищен.
	found := false
	for _, key := range uploader.deleted {
		if key == firstKey {
			found = true
		}
	}
	if !found {
		t.Errorf("previous avatar %q was not deleted", firstKey)
	}
}

func TestUploadAvatarValidation(t *testing.T) {
	personRepo := newFakePersonRepo()
	alice := personRepo.add("Alice")

	// Без настроенного хранилища загрузка недоступна.
	svc := NewPersonService(personRepo, nil, testLogger())
	if _, err := svc.UploadAvatar(context.Background(), alice.ID, strings.NewReader("x"), "image/png"); !errors.Is(err, ErrAvatarsNotConfigured) {
		t.Errorf("got %v, want ErrAvatarsNotConfigured", err)
	}

	svc = NewPersonService(personRepo, newFakeUploader(), testLogger())
	if _, err := svc.UploadAvatar(context.Background(), alice.ID, strings.NewReader("x"), "application/pdf"); !errors.Is(err, ErrAvatarInvalidType) {
		t.Errorf("got %v, want ErrAvatarInvalidType", err)
	}
	if _, err := svc.UploadAvatar(context.Background(), 99, strings.NewReader("x"), "image/png"); !errors.Is(err, ErrPersonNotFound) {
		t.Errorf("got %v, want ErrPersonNotFound", err)
	}
}

func TestRemoveAvatar(t *testing.T) {
	personRepo := newFakePersonRepo()
	uploader := newFakeUploader()
	svc := NewPersonService(personRepo, uploader, testLogger())

	alice := personRepo.add("Alice")
	person, err := svc.UploadAvatar(context.Background(), alice.ID, strings.NewReader("img"), "image/png")
	if err != nil {
		t.Fatalf("UploadAvatar: %v", err)
	}
	key := *person.AvatarKey

	person, err = svc.RemoveAvatar(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("RemoveAvatar: %v", err)
	}
	if person.AvatarKey != nil || person.AvatarURL != nil {
		t.Error("expected avatar fields cleared")
	}
	if _, ok := uploader.objects[key]; ok {
		t.Error("expected the stored object to be deleted")
	}
}

func TestGetExtensionFromContentType(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"image/jpeg", ".jpg", false},
		{"image/png", ".png", false},
		{"image/webp", ".webp", false},
		{"image/svg+xml", ".svg", false},
		{"text/plain", "", true},
	}
	for _, tc := range tests {
		got, err := GetExtensionFromContentType(tc.in)
		if tc.wantErr != (err != nil) {
			t.Errorf("GetExtensionFromContentType(%q) error = %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("GetExtensionFromContentType(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
