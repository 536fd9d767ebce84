// Package mongodb stores expense records as documents in a MongoDB
// collection.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"expensetracker/internal/core"
	"expensetracker/internal/storage"
)

// document is the stored shape of an expense. Ids are uuid strings.
type document struct {
	ID        string    `bson:"_id"`
	Title     string    `bson:"title"`
	Amount    float64   `bson:"amount"`
	Category  string    `bson:"category"`
	Date      time.Time `bson:"date"`
	Notes     string    `bson:"notes"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func toDocument(e core.Expense) document {
	return document{
		ID:        e.ID,
		Title:     e.Title,
		Amount:    e.Amount,
		Category:  e.Category,
		Date:      e.Date,
		Notes:     e.Notes,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func (d document) expense() core.Expense {
	return core.Expense{
		ID:        d.ID,
		Title:     d.Title,
		Amount:    d.Amount,
		Category:  d.Category,
		Date:      core.NormalizeTime(d.Date),
		Notes:     d.Notes,
		CreatedAt: core.NormalizeTime(d.CreatedAt),
		UpdatedAt: core.NormalizeTime(d.UpdatedAt),
	}
}

var sortKeys = map[string]string{
	core.SortDate:      "date",
	core.SortAmount:    "amount",
	core.SortTitle:     "title",
	core.SortCategory:  "category",
	core.SortCreatedAt: "createdAt",
	core.SortUpdatedAt: "updatedAt",
	core.SortID:        "_id",
}

type Config struct {
	URI        string
	Database   string
	Collection string
}

type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    storage.Clock
}

var _ storage.ExpenseStore = (*Store)(nil)

// New connects to MongoDB, checks the connection and ensures the list
// indexes exist.
func New(ctx context.Context, cfg Config) (*Store, error) {
	return NewWithClock(ctx, cfg, time.Now)
}

func NewWithClock(ctx context.Context, cfg Config, now storage.Clock) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := &Store{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
		now:    now,
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "date", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Create(ctx context.Context, fields core.ExpenseFields) (core.Expense, error) {
	e, err := storage.NewRecord(fields, s.now())
	if err != nil {
		return core.Expense{}, err
	}
	if _, err := s.coll.InsertOne(ctx, toDocument(e)); err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	return e, nil
}

func filterDoc(f core.Filter) bson.D {
	filter := bson.D{}
	if f.Category != "" {
		filter = append(filter, bson.E{Key: "category", Value: f.Category})
	}
	if f.From != nil || f.To != nil {
		rng := bson.D{}
		if f.From != nil {
			rng = append(rng, bson.E{Key: "$gte", Value: *f.From})
		}
		if f.To != nil {
			rng = append(rng, bson.E{Key: "$lte", Value: *f.To})
		}
		filter = append(filter, bson.E{Key: "date", Value: rng})
	}
	return filter
}

func sortDoc(sort []core.SortField) bson.D {
	d := make(bson.D, 0, len(sort))
	for _, s := range sort {
		key, ok := sortKeys[s.Field]
		if !ok {
			continue
		}
		dir := 1
		if s.Desc {
			dir = -1
		}
		d = append(d, bson.E{Key: key, Value: dir})
	}
	return d
}

func (s *Store) FindMany(ctx context.Context, q core.ListQuery) ([]core.Expense, error) {
	opts := options.Find().
		SetSort(sortDoc(q.Sort)).
		SetSkip(q.Skip).
		SetLimit(q.Limit)

	cur, err := s.coll.Find(ctx, filterDoc(q.Filter), opts)
	if err != nil {
		return nil, fmt.Errorf("find expenses: %w", err)
	}
	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode expenses: %w", err)
	}

	items := make([]core.Expense, 0, len(docs))
	for _, d := range docs {
		items = append(items, d.expense())
	}
	return items, nil
}

func (s *Store) Count(ctx context.Context, f core.Filter) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, filterDoc(f))
	if err != nil {
		return 0, fmt.Errorf("count expenses: %w", err)
	}
	return n, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (core.Expense, bool, error) {
	if !storage.ValidID(id) {
		return core.Expense{}, false, nil
	}
	return oneResult(s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}), "find expense")
}

// UpdateByID applies the change with an aggregation pipeline so that
// updatedAt can be derived from the stored value atomically. Values are
// wrapped in $literal so user text is never read as a field path.
func (s *Store) UpdateByID(ctx context.Context, id string, fields core.ExpenseFields) (core.Expense, bool, error) {
	if !storage.ValidID(id) {
		return core.Expense{}, false, nil
	}
	if err := fields.Check(); err != nil {
		return core.Expense{}, false, err
	}

	literal := func(v any) bson.D { return bson.D{{Key: "$literal", Value: v}} }
	set := bson.D{
		{Key: "title", Value: literal(fields.Title)},
		{Key: "amount", Value: literal(fields.Amount)},
	}
	if fields.Category != nil {
		set = append(set, bson.E{Key: "category", Value: literal(*fields.Category)})
	}
	if fields.Date != nil {
		set = append(set, bson.E{Key: "date", Value: literal(core.NormalizeTime(*fields.Date))})
	}
	if fields.Notes != nil {
		set = append(set, bson.E{Key: "notes", Value: literal(*fields.Notes)})
	}
	set = append(set, bson.E{Key: "updatedAt", Value: bson.D{{Key: "$max", Value: bson.A{
		core.NormalizeTime(s.now()),
		bson.D{{Key: "$add", Value: bson.A{"$updatedAt", 1}}},
	}}}})

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	res := s.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, mongo.Pipeline{{{Key: "$set", Value: set}}}, opts)
	return oneResult(res, "update expense")
}

func (s *Store) DeleteByID(ctx context.Context, id string) (core.Expense, bool, error) {
	if !storage.ValidID(id) {
		return core.Expense{}, false, nil
	}
	return oneResult(s.coll.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: id}}), "delete expense")
}

func oneResult(res *mongo.SingleResult, op string) (core.Expense, bool, error) {
	var d document
	err := res.Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.Expense{}, false, nil
	}
	if err != nil {
		return core.Expense{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return d.expense(), true, nil
}
