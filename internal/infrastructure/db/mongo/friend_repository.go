package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const friendshipCollection = "friendships"

// statusAccepted is the only relationship state that grants location
// visibility. Pending and rejected requests never authorize anything.
const statusAccepted = "accepted"

// FriendRepository implements ports.FriendRepository against the friendships
// collection. A friendship document is a directed request; authorization is
// the union of accepted rows where the user is sender or receiver, which the
// relationship store keeps symmetric by construction.
type FriendRepository struct {
	coll *mongo.Collection
}

func NewFriendRepository(db *mongo.Database) *FriendRepository {
	return &FriendRepository{coll: db.Collection(friendshipCollection)}
}

type friendshipDoc struct {
	SenderID   string `bson:"sender_id"`
	ReceiverID string `bson:"receiver_id"`
	Status     string `bson:"status"`
}

// AuthorizedPeers returns the set of user IDs with an accepted relationship
// to userID, in either direction.
func (r *FriendRepository) AuthorizedPeers(ctx context.Context, userID string) (map[string]struct{}, error) {
	filter := bson.M{
		"status": statusAccepted,
		"$or": []bson.M{
			{"sender_id": userID},
			{"receiver_id": userID},
		},
	}

	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find friendships: %w", err)
	}
	defer cursor.Close(ctx)

	peers := make(map[string]struct{})
	for cursor.Next(ctx) {
		var doc friendshipDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode friendship: %w", err)
		}
		if doc.SenderID == userID {
			peers[doc.ReceiverID] = struct{}{}
		} else {
			peers[doc.SenderID] = struct{}{}
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate friendships: %w", err)
	}

	return peers, nil
}
