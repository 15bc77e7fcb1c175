// Package mongo stores requests, spares and categories in the collections
// the shop's earlier web app wrote to, reading its legacy field formats.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Fahmy112/Al-Rayan-Service/internal/models"
	"github.com/Fahmy112/Al-Rayan-Service/internal/store"

	"github.com/avast/retry-go/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	requestsCollection   = "requests"
	sparesCollection     = "spares"
	categoriesCollection = "spare_categories"
)

type Options struct {
	URI             string
	Database        string
	ConnectAttempts uint
	RetryDelay      time.Duration
	Logger          *zap.Logger
}

type Store struct {
	client     *mongo.Client
	requests   *mongo.Collection
	spares     *mongo.Collection
	categories *mongo.Collection
	now        func() time.Time
}

type requestDoc struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty"`
	models.ServiceRequest `bson:",inline"`
}

type spareDoc struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	models.SparePart `bson:",inline"`
}

// Connect dials MongoDB, retrying until the server answers a ping, and
// makes sure the indexes exist.
func Connect(ctx context.Context, opts Options) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ConnectAttempts == 0 {
		opts.ConnectAttempts = 1
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}

	clientOpts := options.Client().ApplyURI(opts.URI).SetRegistry(newRegistry())
	client, err := retry.DoWithData(func() (*mongo.Client, error) {
		client, err := mongo.Connect(ctx, clientOpts)
		if err != nil {
			return nil, err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx, nil); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		return client, nil
	},
		retry.Context(ctx),
		retry.Attempts(opts.ConnectAttempts),
		retry.Delay(opts.RetryDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("mongo connect failed, retrying", zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	s := NewStore(client, opts.Database)
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func NewStore(client *mongo.Client, database string) *Store {
	db := client.Database(database)
	return &Store{
		client:     client,
		requests:   db.Collection(requestsCollection),
		spares:     db.Collection(sparesCollection),
		categories: db.Collection(categoriesCollection),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	if _, err := s.requests.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "createdAt", Value: -1}}}); err != nil {
		return fmt.Errorf("requests index: %w", err)
	}
	if _, err := s.spares.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "name", Value: 1}}}); err != nil {
		return fmt.Errorf("spares index: %w", err)
	}
	if _, err := s.categories.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("spare_categories index: %w", err)
	}
	return nil
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, store.ErrInvalidID
	}
	return oid, nil
}

func (d requestDoc) model() models.ServiceRequest {
	req := d.ServiceRequest
	req.ID = d.ID.Hex()
	req.Status = models.NormalizeStatus(req.Status)
	if payment, ok := models.ParsePaymentStatus(string(req.PaymentStatus)); ok {
		req.PaymentStatus = payment
	}
	return req
}

func (d spareDoc) model() models.SparePart {
	spare := d.SparePart
	spare.ID = d.ID.Hex()
	return spare
}

func (s *Store) CreateRequest(ctx context.Context, req models.ServiceRequest) (models.ServiceRequest, error) {
	now := s.now()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	req.UpdatedAt = now
	doc := requestDoc{ID: primitive.NewObjectID(), ServiceRequest: req}
	if _, err := s.requests.InsertOne(ctx, doc); err != nil {
		return models.ServiceRequest{}, err
	}
	return doc.model(), nil
}

func (s *Store) GetRequest(ctx context.Context, requestID string) (models.ServiceRequest, bool, error) {
	oid, err := parseID(requestID)
	if err != nil {
		return models.ServiceRequest{}, false, nil
	}
	var doc requestDoc
	err = s.requests.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ServiceRequest{}, false, nil
	}
	if err != nil {
		return models.ServiceRequest{}, false, err
	}
	return doc.model(), true, nil
}

func (s *Store) UpdateRequest(ctx context.Context, req models.ServiceRequest) (models.ServiceRequest, error) {
	oid, err := parseID(req.ID)
	if err != nil {
		return models.ServiceRequest{}, err
	}
	req.UpdatedAt = s.now()
	var doc requestDoc
	err = s.requests.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": req},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ServiceRequest{}, store.ErrRequestNotFound
	}
	if err != nil {
		return models.ServiceRequest{}, err
	}
	return doc.model(), nil
}

func (s *Store) DeleteRequest(ctx context.Context, requestID string) error {
	oid, err := parseID(requestID)
	if err != nil {
		return err
	}
	res, err := s.requests.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrRequestNotFound
	}
	return nil
}

// ListRequests returns requests newest first. Date bounds match both BSON
// dates and the epoch-millisecond numbers older records carry.
func (s *Store) ListRequests(ctx context.Context, filter store.RequestFilter) ([]models.ServiceRequest, error) {
	query := bson.D{}
	if filter.Status != "" {
		query = append(query, bson.E{Key: "status", Value: bson.M{"$in": filter.Status.Spellings()}})
	}
	if !filter.From.IsZero() || !filter.To.IsZero() {
		asDate := bson.M{}
		asMillis := bson.M{}
		if !filter.From.IsZero() {
			asDate["$gte"] = filter.From
			asMillis["$gte"] = filter.From.UnixMilli()
		}
		if !filter.To.IsZero() {
			asDate["$lte"] = filter.To
			asMillis["$lte"] = filter.To.UnixMilli()
		}
		query = append(query, bson.E{Key: "$or", Value: bson.A{
			bson.M{"createdAt": asDate},
			bson.M{"createdAt": asMillis},
		}})
	}

	cursor, err := s.requests.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []models.ServiceRequest
	for cursor.Next(ctx) {
		var doc requestDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.model())
	}
	return out, cursor.Err()
}

func (s *Store) CreateSpare(ctx context.Context, spare models.SparePart) (models.SparePart, error) {
	now := s.now()
	if spare.CreatedAt.IsZero() {
		spare.CreatedAt = now
	}
	spare.UpdatedAt = now
	doc := spareDoc{ID: primitive.NewObjectID(), SparePart: spare}
	if _, err := s.spares.InsertOne(ctx, doc); err != nil {
		return models.SparePart{}, err
	}
	return doc.model(), nil
}

func (s *Store) GetSpare(ctx context.Context, spareID string) (models.SparePart, bool, error) {
	oid, err := parseID(spareID)
	if err != nil {
		return models.SparePart{}, false, nil
	}
	return s.findSpare(ctx, bson.M{"_id": oid})
}

func (s *Store) FindSpareByName(ctx context.Context, name string) (models.SparePart, bool, error) {
	return s.findSpare(ctx, bson.M{"name": name})
}

func (s *Store) findSpare(ctx context.Context, filter bson.M) (models.SparePart, bool, error) {
	var doc spareDoc
	err := s.spares.FindOne(ctx, filter, options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.SparePart{}, false, nil
	}
	if err != nil {
		return models.SparePart{}, false, err
	}
	return doc.model(), true, nil
}

func (s *Store) UpdateSpare(ctx context.Context, spare models.SparePart) (models.SparePart, error) {
	oid, err := parseID(spare.ID)
	if err != nil {
		return models.SparePart{}, err
	}
	spare.UpdatedAt = s.now()
	var doc spareDoc
	err = s.spares.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": spare},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.SparePart{}, store.ErrSpareNotFound
	}
	if err != nil {
		return models.SparePart{}, err
	}
	return doc.model(), nil
}

func (s *Store) DeleteSpare(ctx context.Context, spareID string) error {
	oid, err := parseID(spareID)
	if err != nil {
		return err
	}
	res, err := s.spares.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrSpareNotFound
	}
	return nil
}

func (s *Store) ListSpares(ctx context.Context) ([]models.SparePart, error) {
	cursor, err := s.spares.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []models.SparePart
	for cursor.Next(ctx) {
		var doc spareDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.model())
	}
	return out, cursor.Err()
}

// AdjustSpareQuantity adds delta in a single pipeline update that never lets
// the stored quantity drop below zero.
func (s *Store) AdjustSpareQuantity(ctx context.Context, spareID string, delta int) (models.SparePart, error) {
	oid, err := parseID(spareID)
	if err != nil {
		return models.SparePart{}, err
	}
	update := mongo.Pipeline{{{Key: "$set", Value: bson.D{
		{Key: "quantity", Value: bson.D{{Key: "$max", Value: bson.A{
			0,
			bson.D{{Key: "$add", Value: bson.A{
				bson.D{{Key: "$ifNull", Value: bson.A{"$quantity", 0}}},
				delta,
			}}},
		}}}},
		{Key: "updatedAt", Value: s.now()},
	}}}}

	var doc spareDoc
	err = s.spares.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.SparePart{}, store.ErrSpareNotFound
	}
	if err != nil {
		return models.SparePart{}, err
	}
	return doc.model(), nil
}

func (s *Store) AssignCategoryByName(ctx context.Context, spareName, category string) (int64, error) {
	res, err := s.spares.UpdateMany(ctx,
		bson.M{"name": spareName},
		bson.M{"$set": bson.M{"category": category, "updatedAt": s.now()}},
	)
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

func (s *Store) UpsertCategory(ctx context.Context, name string) error {
	_, err := s.categories.UpdateOne(ctx,
		bson.M{"name": name},
		bson.M{"$setOnInsert": bson.M{"name": name}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *Store) ListCategories(ctx context.Context) ([]models.SpareCategory, error) {
	cursor, err := s.categories.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := make([]models.SpareCategory, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
