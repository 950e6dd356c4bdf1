package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"expense-ledger/internal/domain"
	"expense-ledger/internal/errors"
)

const transactionCollection = "expense"

// decimal128Zero is the neutral operand for $sum/$cond pipelines so
// aggregation results always decode as Decimal128.
var decimal128Zero = func() primitive.Decimal128 {
	d, err := primitive.ParseDecimal128("0")
	if err != nil {
		panic(err)
	}
	return d
}()

// MongoStore is the document-backed LedgerStore. Period predicates use
// $expr month/year extraction and the aggregates run server-side as
// $group pipelines. Amounts are stored as Decimal128 so sums stay
// exact.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	logger *slog.Logger
}

func NewMongoStore(ctx context.Context, uri, database string, logger *slog.Logger) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.NewAppError(errors.StoreUnavailable, "failed to connect to mongodb").WithDetails(err.Error())
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		client.Disconnect(ctx)
		return nil, errors.NewAppError(errors.StoreUnavailable, "mongodb is unreachable").WithDetails(err.Error())
	}

	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(transactionCollection),
		logger: logger,
	}, nil
}

var _ domain.LedgerStore = (*MongoStore)(nil)

type transactionDoc struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	Date        time.Time            `bson:"date"`
	Description string               `bson:"description"`
	Amount      primitive.Decimal128 `bson:"amount"`
	Kind        string               `bson:"kind"`
	CreatedAt   time.Time            `bson:"created_at"`
	UpdatedAt   time.Time            `bson:"updated_at"`
}

func (d transactionDoc) toDomain() (domain.Transaction, error) {
	amount, err := decimal.NewFromString(d.Amount.String())
	if err != nil {
		return domain.Transaction{}, errors.NewAppError(errors.InternalError, "failed to parse amount").WithDetails(err.Error())
	}
	return domain.Transaction{
		ID:          d.ID.Hex(),
		Date:        domain.NormalizeDate(d.Date),
		Description: d.Description,
		Amount:      amount,
		Kind:        domain.Kind(d.Kind),
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, errors.NewAppError(errors.InternalError, "failed to encode amount").WithDetails(err.Error())
	}
	return v, nil
}

// periodFilter builds the $expr predicate matching the date's month
// and/or year components. An empty period matches every document.
func periodFilter(p domain.Period) bson.M {
	parts := bson.A{}
	if p.Month != nil {
		parts = append(parts, bson.M{"$eq": bson.A{bson.M{"$month": "$date"}, *p.Month}})
	}
	if p.Year != nil {
		parts = append(parts, bson.M{"$eq": bson.A{bson.M{"$year": "$date"}, *p.Year}})
	}
	switch len(parts) {
	case 0:
		return bson.M{}
	case 1:
		return bson.M{"$expr": parts[0]}
	default:
		return bson.M{"$expr": bson.M{"$and": parts}}
	}
}

// kindSum is the $sum operand accumulating amount only for one kind.
func kindSum(kind domain.Kind) bson.M {
	return bson.M{"$sum": bson.M{"$cond": bson.A{
		bson.M{"$eq": bson.A{"$kind", string(kind)}},
		"$amount",
		decimal128Zero,
	}}}
}

func (s *MongoStore) Insert(ctx context.Context, tx *domain.Transaction) (string, error) {
	amount, err := toDecimal128(tx.Amount)
	if err != nil {
		return "", err
	}

	doc := transactionDoc{
		Date:        domain.NormalizeDate(tx.Date),
		Description: tx.Description,
		Amount:      amount,
		Kind:        string(tx.Kind),
		CreatedAt:   tx.CreatedAt,
		UpdatedAt:   tx.UpdatedAt,
	}

	res, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		s.logger.Error("Failed to insert transaction", "error", err)
		return "", errors.NewAppError(errors.InternalError, "failed to insert transaction").WithDetails(err.Error())
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", errors.NewAppError(errors.InternalError, "store returned an unexpected id type")
	}

	s.logger.Info("Transaction inserted", "transaction_id", oid.Hex())
	return oid.Hex(), nil
}

func (s *MongoStore) Find(ctx context.Context, p domain.Period) ([]domain.Transaction, error) {
	cursor, err := s.coll.Find(ctx, periodFilter(p))
	if err != nil {
		s.logger.Error("Failed to query transactions", "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to query transactions").WithDetails(err.Error())
	}

	var docs []transactionDoc
	if err := cursor.All(ctx, &docs); err != nil {
		s.logger.Error("Failed to decode transactions", "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to decode transactions").WithDetails(err.Error())
	}

	txs := make([]domain.Transaction, 0, len(docs))
	for _, doc := range docs {
		tx, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func (s *MongoStore) Update(ctx context.Context, id string, patch domain.Patch) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// An id the store could never have assigned matches nothing.
		return errors.ErrTransactionNotFound
	}

	set := bson.M{"updated_at": patch.UpdatedAt}
	if patch.Date != nil {
		set["date"] = domain.NormalizeDate(*patch.Date)
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Amount != nil {
		amount, err := toDecimal128(*patch.Amount)
		if err != nil {
			return err
		}
		set["amount"] = amount
	}
	if patch.Kind != nil {
		set["kind"] = string(*patch.Kind)
	}

	res, err := s.coll.UpdateByID(ctx, oid, bson.M{"$set": set})
	if err != nil {
		s.logger.Error("Failed to update transaction", "transaction_id", id, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to update transaction").WithDetails(err.Error())
	}
	if res.MatchedCount == 0 {
		s.logger.Warn("Transaction not found for update", "transaction_id", id)
		return errors.ErrTransactionNotFound
	}

	s.logger.Info("Transaction updated", "transaction_id", id)
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errors.ErrTransactionNotFound
	}

	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		s.logger.Error("Failed to delete transaction", "transaction_id", id, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to delete transaction").WithDetails(err.Error())
	}
	if res.DeletedCount == 0 {
		s.logger.Warn("Transaction not found for delete", "transaction_id", id)
		return errors.ErrTransactionNotFound
	}

	s.logger.Info("Transaction deleted", "transaction_id", id)
	return nil
}

func (s *MongoStore) Totals(ctx context.Context, p domain.Period) (domain.Totals, error) {
	pipeline := bson.A{}
	if filter := periodFilter(p); len(filter) > 0 {
		pipeline = append(pipeline, bson.M{"$match": filter})
	}
	pipeline = append(pipeline, bson.M{"$group": bson.M{
		"_id":          nil,
		"total_debit":  kindSum(domain.Debit),
		"total_credit": kindSum(domain.Credit),
	}})

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		s.logger.Error("Totals aggregation failed", "error", err)
		return domain.Totals{}, errors.NewAppError(errors.InternalError, "totals aggregation failed").WithDetails(err.Error())
	}

	var rows []struct {
		TotalDebit  primitive.Decimal128 `bson:"total_debit"`
		TotalCredit primitive.Decimal128 `bson:"total_credit"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return domain.Totals{}, errors.NewAppError(errors.InternalError, "failed to decode totals").WithDetails(err.Error())
	}
	if len(rows) == 0 {
		return domain.Totals{}, nil
	}

	debit, err := decimal.NewFromString(rows[0].TotalDebit.String())
	if err != nil {
		return domain.Totals{}, errors.NewAppError(errors.InternalError, "failed to parse total debit").WithDetails(err.Error())
	}
	credit, err := decimal.NewFromString(rows[0].TotalCredit.String())
	if err != nil {
		return domain.Totals{}, errors.NewAppError(errors.InternalError, "failed to parse total credit").WithDetails(err.Error())
	}
	return domain.Totals{Debit: debit, Credit: credit}, nil
}

func (s *MongoStore) MonthlyTotals(ctx context.Context, year int) ([]domain.MonthTotal, error) {
	pipeline := bson.A{
		bson.M{"$match": bson.M{"$expr": bson.M{"$eq": bson.A{bson.M{"$year": "$date"}, year}}}},
		bson.M{"$group": bson.M{
			"_id":    bson.M{"month": bson.M{"$month": "$date"}},
			"debit":  kindSum(domain.Debit),
			"credit": kindSum(domain.Credit),
		}},
		bson.M{"$project": bson.M{
			"_id":    0,
			"month":  "$_id.month",
			"debit":  1,
			"credit": 1,
		}},
		bson.M{"$sort": bson.M{"month": 1}},
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		s.logger.Error("Monthly aggregation failed", "year", year, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "monthly aggregation failed").WithDetails(err.Error())
	}

	var rows []struct {
		Month  int32                `bson:"month"`
		Debit  primitive.Decimal128 `bson:"debit"`
		Credit primitive.Decimal128 `bson:"credit"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to decode monthly totals").WithDetails(err.Error())
	}

	groups := make([]domain.MonthTotal, 0, len(rows))
	for _, row := range rows {
		debit, err := decimal.NewFromString(row.Debit.String())
		if err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to parse monthly debit").WithDetails(err.Error())
		}
		credit, err := decimal.NewFromString(row.Credit.String())
		if err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to parse monthly credit").WithDetails(err.Error())
		}
		groups = append(groups, domain.MonthTotal{Month: int(row.Month), Debit: debit, Credit: credit})
	}
	return groups, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
