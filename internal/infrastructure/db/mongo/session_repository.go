package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/grademind/grademind-api/internal/core/domain"
	"github.com/grademind/grademind-api/internal/core/ports"
)

// SessionRepository implements ports.SessionRepository using MongoDB.
type SessionRepository struct {
	col *mongo.Collection
}

func NewSessionRepository(db *mongo.Database) *SessionRepository {
	return &SessionRepository{col: db.Collection(collectionSessions)}
}

var _ ports.SessionRepository = (*SessionRepository)(nil)

type sessionDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	UserID       int64              `bson:"user_id"`
	Token        string             `bson:"session_token"`
	LoginAt      time.Time          `bson:"login_timestamp"`
	LastActivity time.Time          `bson:"last_activity"`
	IPAddress    string             `bson:"ip_address,omitempty"`
	UserAgent    string             `bson:"user_agent,omitempty"`
	IsActive     bool               `bson:"is_active"`
	ExpiresAt    time.Time          `bson:"expires_at"`
}

func (d sessionDocument) toDomain() *domain.Session {
	return &domain.Session{
		ID:           d.ID.Hex(),
		UserID:       d.UserID,
		Token:        d.Token,
		LoginAt:      d.LoginAt.UTC(),
		LastActivity: d.LastActivity.UTC(),
		IPAddress:    d.IPAddress,
		UserAgent:    d.UserAgent,
		IsActive:     d.IsActive,
		ExpiresAt:    d.ExpiresAt.UTC(),
	}
}

// Insert stores s and sets its ID.
func (r *SessionRepository) Insert(ctx context.Context, s *domain.Session) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := sessionDocument{
		ID:           primitive.NewObjectID(),
		UserID:       s.UserID,
		Token:        s.Token,
		LoginAt:      s.LoginAt,
		LastActivity: s.LastActivity,
		IPAddress:    s.IPAddress,
		UserAgent:    s.UserAgent,
		IsActive:     s.IsActive,
		ExpiresAt:    s.ExpiresAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	s.ID = doc.ID.Hex()
	return nil
}

func (r *SessionRepository) FindActiveByToken(ctx context.Context, token string) (*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc sessionDocument
	err := r.col.FindOne(ctx, bson.M{"session_token": token, "is_active": true}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *SessionRepository) Deactivate(ctx context.Context, sessionID string) error {
	oid, err := primitive.ObjectIDFromHex(sessionID)
	if err != nil {
		return domain.ErrSessionNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"is_active": false}})
	if err != nil {
		return fmt.Errorf("deactivate session: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (r *SessionRepository) Touch(ctx context.Context, token string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"session_token": token, "is_active": true},
		bson.M{"$set": bson.M{"last_activity": at}},
	)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (r *SessionRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateMany(ctx,
		bson.M{"is_active": true, "expires_at": bson.M{"$lt": now}},
		bson.M{"$set": bson.M{"is_active": false}},
	)
	if err != nil {
		return 0, fmt.Errorf("deactivate expired sessions: %w", err)
	}
	return res.ModifiedCount, nil
}

func (r *SessionRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "login_timestamp", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer cur.Close(ctx)

	var docs []sessionDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode sessions: %w", err)
	}

	out := make([]*domain.Session, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}
