// Package mongostore persists transactions in a MongoDB collection using
// ObjectID identifiers.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ARIHANT218/Finance-Tracker/internal/transaction"
)

// document is the stored shape of a transaction.
type document struct {
	ID          primitive.ObjectID   `bson:"_id"`
	OwnerID     string               `bson:"userId"`
	Amount      primitive.Decimal128 `bson:"amount"`
	Description string               `bson:"description"`
	Date        time.Time            `bson:"date"`
	Type        string               `bson:"type"`
	Category    string               `bson:"category"`
	CreatedAt   time.Time            `bson:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt"`
}

type Store struct {
	coll *mongo.Collection
	now  func() time.Time
}

func New(coll *mongo.Collection) *Store {
	return &Store{coll: coll, now: time.Now}
}

// EnsureIndexes creates the indexes used by owner-scoped listing.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: -1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "type", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("creating indexes: %w", err)
	}

	return nil
}

func (s *Store) ValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}

// timestamp matches the millisecond precision BSON dates are stored with.
func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func (s *Store) toDocument(tx *transaction.Transaction) (document, error) {
	amount, err := primitive.ParseDecimal128(tx.Amount.StringFixed(2))
	if err != nil {
		return document{}, fmt.Errorf("encoding amount: %w", err)
	}

	now := s.timestamp()

	return document{
		ID:          primitive.NewObjectID(),
		OwnerID:     tx.OwnerID,
		Amount:      amount,
		Description: tx.Description,
		Date:        tx.Date.UTC().Truncate(time.Millisecond),
		Type:        string(tx.Type),
		Category:    tx.Category,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (d document) transaction() (*transaction.Transaction, error) {
	amount, err := decimal.NewFromString(d.Amount.String())
	if err != nil {
		return nil, fmt.Errorf("decoding amount: %w", err)
	}

	return &transaction.Transaction{
		ID:          d.ID.Hex(),
		OwnerID:     d.OwnerID,
		Amount:      amount,
		Description: d.Description,
		Date:        d.Date.UTC(),
		Type:        transaction.Type(d.Type),
		Category:    d.Category,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}, nil
}

// stamp copies the server-assigned fields back onto tx.
func stamp(tx *transaction.Transaction, doc document) {
	tx.ID = doc.ID.Hex()
	tx.Date = doc.Date
	tx.CreatedAt = doc.CreatedAt
	tx.UpdatedAt = doc.UpdatedAt
}

func (s *Store) CreateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	doc, err := s.toDocument(tx)
	if err != nil {
		return err
	}

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("creating transaction: %w", err)
	}

	stamp(tx, doc)

	return nil
}

// illegalOperation is the server code for transactions on a standalone mongod.
const illegalOperation = 20

// CreateTransactions inserts the batch in a session transaction. Standalone
// servers reject transactions; there the batch is inserted in order and any
// documents already written are removed if the insert fails.
func (s *Store) CreateTransactions(ctx context.Context, txs []*transaction.Transaction) error {
	docs := make([]any, len(txs))
	stored := make([]document, len(txs))

	for i, tx := range txs {
		doc, err := s.toDocument(tx)
		if err != nil {
			return err
		}

		docs[i] = doc
		stored[i] = doc
	}

	err := s.insertInTransaction(ctx, docs)
	if transactionsUnsupported(err) {
		slog.Debug("mongo transactions unavailable, inserting without one")
		err = s.insertCompensated(ctx, docs, stored)
	}

	if err != nil {
		return fmt.Errorf("creating transactions: %w", err)
	}

	for i, tx := range txs {
		stamp(tx, stored[i])
	}

	return nil
}

func (s *Store) insertInTransaction(ctx context.Context, docs []any) error {
	session, err := s.coll.Database().Client().StartSession()
	if err != nil {
		return fmt.Errorf("starting session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return s.coll.InsertMany(sc, docs)
	})

	return err
}

// insertCompensated writes docs with one ordered InsertMany and deletes the
// batch again when it fails part way.
func (s *Store) insertCompensated(ctx context.Context, docs []any, stored []document) error {
	_, err := s.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true))
	if err == nil {
		return nil
	}

	ids := make([]primitive.ObjectID, len(stored))
	for i, doc := range stored {
		ids[i] = doc.ID
	}

	// The request context may be what failed the insert.
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if _, derr := s.coll.DeleteMany(cleanupCtx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}}); derr != nil {
		return errors.Join(err, fmt.Errorf("removing partial batch: %w", derr))
	}

	return err
}

// transactionsUnsupported reports whether err says the deployment cannot run
// multi-document transactions.
func transactionsUnsupported(err error) bool {
	var se mongo.ServerError
	return errors.As(err, &se) && se.HasErrorCode(illegalOperation)
}

func ownedFilter(id, ownerID string) (bson.D, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, transaction.ErrNotFound
	}

	return bson.D{{Key: "_id", Value: oid}, {Key: "userId", Value: ownerID}}, nil
}

func (s *Store) ListTransactions(ctx context.Context, ownerID string, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
	query := bson.D{{Key: "userId", Value: ownerID}}

	if filter.Type != nil {
		query = append(query, bson.E{Key: "type", Value: string(*filter.Type)})
	}

	dateRange := bson.D{}

	if filter.StartDate != nil {
		dateRange = append(dateRange, bson.E{Key: "$gte", Value: *filter.StartDate})
	}

	if filter.EndDate != nil {
		dateRange = append(dateRange, bson.E{Key: "$lte", Value: *filter.EndDate})
	}

	if len(dateRange) > 0 {
		query = append(query, bson.E{Key: "date", Value: dateRange})
	}

	// ObjectIDs grow with insertion time, so _id breaks date ties in insertion order.
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: 1}})

	cursor, err := s.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding transactions: %w", err)
	}

	txs := make([]*transaction.Transaction, 0, len(docs))

	for _, d := range docs {
		tx, err := d.transaction()
		if err != nil {
			return nil, err
		}

		txs = append(txs, tx)
	}

	return txs, nil
}

func (s *Store) GetTransaction(ctx context.Context, id, ownerID string) (*transaction.Transaction, error) {
	filter, err := ownedFilter(id, ownerID)
	if err != nil {
		return nil, err
	}

	var doc document
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, transaction.ErrNotFound
		}

		return nil, fmt.Errorf("getting transaction: %w", err)
	}

	return doc.transaction()
}

func (s *Store) UpdateTransaction(ctx context.Context, id, ownerID string, patch transaction.Patch) (*transaction.Transaction, error) {
	filter, err := ownedFilter(id, ownerID)
	if err != nil {
		return nil, err
	}

	set := bson.D{{Key: "updatedAt", Value: s.timestamp()}}

	if patch.Amount != nil {
		amount, err := primitive.ParseDecimal128(patch.Amount.StringFixed(2))
		if err != nil {
			return nil, fmt.Errorf("encoding amount: %w", err)
		}

		set = append(set, bson.E{Key: "amount", Value: amount})
	}

	if patch.Description != nil {
		set = append(set, bson.E{Key: "description", Value: *patch.Description})
	}

	if patch.Date != nil {
		set = append(set, bson.E{Key: "date", Value: patch.Date.UTC().Truncate(time.Millisecond)})
	}

	if patch.Type != nil {
		set = append(set, bson.E{Key: "type", Value: string(*patch.Type)})
	}

	if patch.Category != nil {
		set = append(set, bson.E{Key: "category", Value: *patch.Category})
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc document

	err = s.coll.FindOneAndUpdate(ctx, filter, bson.D{{Key: "$set", Value: set}}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, transaction.ErrNotFound
		}

		return nil, fmt.Errorf("updating transaction: %w", err)
	}

	return doc.transaction()
}

func (s *Store) DeleteTransaction(ctx context.Context, id, ownerID string) (*transaction.Transaction, error) {
	filter, err := ownedFilter(id, ownerID)
	if err != nil {
		return nil, err
	}

	var doc document
	if err := s.coll.FindOneAndDelete(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, transaction.ErrNotFound
		}

		return nil, fmt.Errorf("deleting transaction: %w", err)
	}

	return doc.transaction()
}
