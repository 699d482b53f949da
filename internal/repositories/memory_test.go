package repositories

import (
	"context"
	"testing"

	"github.com/Ayan1Dutta/InterviewEasy/internal/errs"
	"github.com/Ayan1Dutta/InterviewEasy/internal/models"
)

func TestMemoryStoreRoomLifecycle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	s := &models.Session{Code: "ABC12345", Host: "h@x.com", Participants: []string{"h@x.com"}, Status: models.StatusActive}
	if err := store.CreateRoom(ctx, s); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := store.CreateRoom(ctx, s); err != errs.ErrConflict {
		t.Fatalf("duplicate code must conflict, got %v", err)
	}

	got, err := store.FindRoomByCode(ctx, "ABC12345")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if got.Host != "h@x.com" {
		t.Fatalf("unexpected room: %#v", got)
	}

	got.Participants = append(got.Participants, "p@x.com")
	if err := store.SaveRoom(ctx, got); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	again, _ := store.FindRoomByCode(ctx, "ABC12345")
	if len(again.Participants) != 2 {
		t.Fatalf("save not visible: %#v", again.Participants)
	}

	if err := store.DeleteRoom(ctx, "ABC12345"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := store.FindRoomByCode(ctx, "ABC12345"); err != errs.ErrNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestMemoryStoreDocumentLifecycle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.FindDocumentByRoom(ctx, "ABC12345"); err != errs.ErrNotFound {
		t.Fatalf("expected not found, got %v", err)
	}

	doc := &models.CodeDocument{
		RoomCode: "ABC12345",
		Code:     map[models.Language]string{models.LangJava: "class A{}"},
	}
	if err := store.SaveDocument(ctx, doc); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := store.FindDocumentByRoom(ctx, "ABC12345")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if got.Code[models.LangJava] != "class A{}" {
		t.Fatalf("unexpected document: %#v", got)
	}
	if got.LastUpdated.IsZero() {
		t.Fatal("save must stamp LastUpdated")
	}

	if err := store.DeleteDocument(ctx, "ABC12345"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := store.FindDocumentByRoom(ctx, "ABC12345"); err != errs.ErrNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

// Reads must hand out copies; callers mutating a result must not leak back.
func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	doc := &models.CodeDocument{
		RoomCode: "ABC12345",
		Code:     map[models.Language]string{models.LangCPP: "int main(){}"},
	}
	if err := store.SaveDocument(ctx, doc); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	first, _ := store.FindDocumentByRoom(ctx, "ABC12345")
	first.Code[models.LangCPP] = "mutated"

	second, _ := store.FindDocumentByRoom(ctx, "ABC12345")
	if second.Code[models.LangCPP] != "int main(){}" {
		t.Fatalf("stored document aliased by a read: %q", second.Code[models.LangCPP])
	}
}
