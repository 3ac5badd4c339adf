package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fittrack/presence-system/internal/core/domain"
)

const profileCollection = "profiles"

// ProfileRepository implements ports.ProfileRepository against the profiles
// collection maintained by the backend's account service.
type ProfileRepository struct {
	coll *mongo.Collection
}

func NewProfileRepository(db *mongo.Database) *ProfileRepository {
	return &ProfileRepository{coll: db.Collection(profileCollection)}
}

type profileDoc struct {
	UserID      string `bson:"user_id"`
	DisplayName string `bson:"display_name"`
}

// DisplayName returns the stored display name for userID.
func (r *ProfileRepository) DisplayName(ctx context.Context, userID string) (string, error) {
	var doc profileDoc
	if err := r.coll.FindOne(ctx, bson.M{"user_id": userID}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return "", domain.ErrProfileNotFound
		}
		return "", fmt.Errorf("find profile: %w", err)
	}
	return doc.DisplayName, nil
}
