package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/iliyamo/direct-message-service/internal/model"
)

// messageDoc is the BSON shape of a message in the 'messages' collection.
type messageDoc struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	Sender    string        `bson:"sender"`
	Recipient string        `bson:"recipient"`
	Text      string        `bson:"text"`
	Timestamp time.Time     `bson:"timestamp"`
}

// MongoMessageRepo is the document-store message backend. Mongo generates
// the ObjectIDs, which are globally unique and never reused; listing sorts
// by _id so insertion order is preserved. Credentials still live in the
// relational store, so recipient existence is checked through the injected
// UserExister.
type MongoMessageRepo struct {
	Coll  *mongo.Collection
	Users UserExister
}

func NewMongoMessageRepo(coll *mongo.Collection, users UserExister) *MongoMessageRepo {
	return &MongoMessageRepo{Coll: coll, Users: users}
}

var _ MessageStore = (*MongoMessageRepo)(nil)

// EnsureIndexes creates the recipient index used by ListForRecipient.
func (r *MongoMessageRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.Coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "recipient", Value: 1}},
	})
	return err
}

func (r *MongoMessageRepo) Append(ctx context.Context, sender, recipient, text string) (model.Message, error) {
	ok, err := r.Users.Exists(ctx, recipient)
	if err != nil {
		return model.Message{}, err
	}
	if !ok {
		return model.Message{}, ErrUnknownRecipient
	}
	doc := messageDoc{
		Sender:    sender,
		Recipient: recipient,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
	res, err := r.Coll.InsertOne(ctx, doc)
	if err != nil {
		return model.Message{}, err
	}
	oid, ok := res.InsertedID.(bson.ObjectID)
	if !ok {
		return model.Message{}, errors.New("unexpected inserted id type")
	}
	return model.Message{
		ID:        oid.Hex(),
		Sender:    doc.Sender,
		Recipient: doc.Recipient,
		Text:      doc.Text,
		Timestamp: doc.Timestamp,
	}, nil
}

func (r *MongoMessageRepo) ListForRecipient(ctx context.Context, username string) ([]model.Message, error) {
	cur, err := r.Coll.Find(ctx, bson.M{"recipient": username},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []model.Message{}
	for cur.Next(ctx) {
		var d messageDoc
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		out = append(out, d.toModel())
	}
	return out, cur.Err()
}

func (r *MongoMessageRepo) Get(ctx context.Context, id string) (model.Message, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return model.Message{}, ErrNotFound
	}
	var d messageDoc
	err = r.Coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Message{}, ErrNotFound
	}
	if err != nil {
		return model.Message{}, err
	}
	return d.toModel(), nil
}

func (r *MongoMessageRepo) Delete(ctx context.Context, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.Coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (d messageDoc) toModel() model.Message {
	return model.Message{
		ID:        d.ID.Hex(),
		Sender:    d.Sender,
		Recipient: d.Recipient,
		Text:      d.Text,
		Timestamp: d.Timestamp,
	}
}
