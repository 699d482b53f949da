package repositories

import (
	"context"

	"github.com/Ayan1Dutta/InterviewEasy/internal/models"
)

// Store is the durable session/document contract. Implementations translate
// backend failures into errs.StorageError and absence into errs.ErrNotFound;
// no transactions are required across calls.
type Store interface {
	CreateRoom(ctx context.Context, s *models.Session) error
	FindRoomByCode(ctx context.Context, code string) (*models.Session, error)
	SaveRoom(ctx context.Context, s *models.Session) error
	DeleteRoom(ctx context.Context, code string) error

	FindDocumentByRoom(ctx context.Context, code string) (*models.CodeDocument, error)
	SaveDocument(ctx context.Context, d *models.CodeDocument) error
	DeleteDocument(ctx context.Context, code string) error
}
