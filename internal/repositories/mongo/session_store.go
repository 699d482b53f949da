package mongo

import (
	"context"
	"errors"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Ayan1Dutta/InterviewEasy/internal/errs"
	"github.com/Ayan1Dutta/InterviewEasy/internal/models"
)

// SessionStore implements repositories.Store over two MongoDB collections.
type SessionStore struct {
	sessions *mongo.Collection
	docs     *mongo.Collection
}

// NewSessionStore connects the collections and ensures a unique index on the
// room code so a duplicate create surfaces as ErrConflict.
func NewSessionStore(c *Client) (*SessionStore, error) {
	db, err := c.DB()
	if err != nil {
		return nil, err
	}

	sessionsCol := os.Getenv("SESSIONS_COLLECTION")
	if sessionsCol == "" {
		sessionsCol = "sessions"
	}
	docsCol := os.Getenv("CODEDOCS_COLLECTION")
	if docsCol == "" {
		docsCol = "codedocuments"
	}

	s := &SessionStore{
		sessions: db.Collection(sessionsCol),
		docs:     db.Collection(docsCol),
	}

	_, _ = s.sessions.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    map[string]interface{}{"sessionCode": 1},
		Options: options.Index().SetUnique(true),
	})
	_, _ = s.docs.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    map[string]interface{}{"sessionCode": 1},
		Options: options.Index().SetUnique(true),
	})

	return s, nil
}

func (s *SessionStore) CreateRoom(ctx context.Context, room *models.Session) error {
	_, err := s.sessions.InsertOne(ctx, room)
	if mongo.IsDuplicateKeyError(err) {
		return errs.ErrConflict
	}
	return errs.Storage("create room", err)
}

func (s *SessionStore) FindRoomByCode(ctx context.Context, code string) (*models.Session, error) {
	var room models.Session
	err := s.sessions.FindOne(ctx, map[string]string{"sessionCode": code}).Decode(&room)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, errs.Storage("find room", err)
	}
	return &room, nil
}

func (s *SessionStore) SaveRoom(ctx context.Context, room *models.Session) error {
	opts := options.Replace().SetUpsert(true)
	_, err := s.sessions.ReplaceOne(ctx, map[string]string{"sessionCode": room.Code}, room, opts)
	return errs.Storage("save room", err)
}

func (s *SessionStore) DeleteRoom(ctx context.Context, code string) error {
	_, err := s.sessions.DeleteOne(ctx, map[string]string{"sessionCode": code})
	return errs.Storage("delete room", err)
}

func (s *SessionStore) FindDocumentByRoom(ctx context.Context, code string) (*models.CodeDocument, error) {
	var doc models.CodeDocument
	err := s.docs.FindOne(ctx, map[string]string{"sessionCode": code}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, errs.Storage("find document", err)
	}
	return &doc, nil
}

func (s *SessionStore) SaveDocument(ctx context.Context, doc *models.CodeDocument) error {
	doc.LastUpdated = time.Now().UTC()
	opts := options.Replace().SetUpsert(true)
	_, err := s.docs.ReplaceOne(ctx, map[string]string{"sessionCode": doc.RoomCode}, doc, opts)
	return errs.Storage("save document", err)
}

func (s *SessionStore) DeleteDocument(ctx context.Context, code string) error {
	_, err := s.docs.DeleteOne(ctx, map[string]string{"sessionCode": code})
	return errs.Storage("delete document", err)
}
