package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/k2nservice/console/internal/domain/models"
)

// Repository defines the interface for snapshot storage.
type Repository interface {
	SaveDailySnapshot(ctx context.Context, snapshot models.DailySnapshot) error
	RecentSnapshots(ctx context.Context, limit int) ([]models.DailySnapshot, error)
}

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client:   client,
		dbName:   dbName,
		collName: "daily_snapshots",
	}, nil
}

// snapshotDocument is the stored form of a DailySnapshot. Amounts are kept
// as Decimal128 so they stay exact and sortable in the database.
type snapshotDocument struct {
	Day               string               `bson:"_id"`
	Date              time.Time            `bson:"date"`
	SalesTotal        primitive.Decimal128 `bson:"sales_total"`
	SalesPaid         primitive.Decimal128 `bson:"sales_paid"`
	SalesCount        int                  `bson:"sales_count"`
	AcquisitionsTotal primitive.Decimal128 `bson:"acquisitions_total"`
	AcquisitionsCount int                  `bson:"acquisitions_count"`
	FundsTotal        primitive.Decimal128 `bson:"funds_total"`
	StockValue        primitive.Decimal128 `bson:"stock_value"`
	LowStockCount     int                  `bson:"low_stock_count"`
	OutboundCount     int                  `bson:"outbound_count"`
	CreatedAt         time.Time            `bson:"created_at"`
}

func toDocument(s models.DailySnapshot) (snapshotDocument, error) {
	doc := snapshotDocument{
		Day:               s.Date.Format(models.DateLayout),
		Date:              s.Date,
		SalesCount:        s.SalesCount,
		AcquisitionsCount: s.AcquisitionsCount,
		LowStockCount:     s.LowStockCount,
		OutboundCount:     s.OutboundCount,
		CreatedAt:         s.CreatedAt,
	}
	amounts := []struct {
		src decimal.Decimal
		dst *primitive.Decimal128
	}{
		{s.SalesTotal, &doc.SalesTotal},
		{s.SalesPaid, &doc.SalesPaid},
		{s.AcquisitionsTotal, &doc.AcquisitionsTotal},
		{s.FundsTotal, &doc.FundsTotal},
		{s.StockValue, &doc.StockValue},
	}
	for _, a := range amounts {
		value, err := primitive.ParseDecimal128(a.src.String())
		if err != nil {
			return snapshotDocument{}, fmt.Errorf("encode amount %s: %w", a.src, err)
		}
		*a.dst = value
	}
	return doc, nil
}

func fromDocument(doc snapshotDocument) models.DailySnapshot {
	return models.DailySnapshot{
		Date:              doc.Date,
		SalesTotal:        fromDecimal128(doc.SalesTotal),
		SalesPaid:         fromDecimal128(doc.SalesPaid),
		SalesCount:        doc.SalesCount,
		AcquisitionsTotal: fromDecimal128(doc.AcquisitionsTotal),
		AcquisitionsCount: doc.AcquisitionsCount,
		FundsTotal:        fromDecimal128(doc.FundsTotal),
		StockValue:        fromDecimal128(doc.StockValue),
		LowStockCount:     doc.LowStockCount,
		OutboundCount:     doc.OutboundCount,
		CreatedAt:         doc.CreatedAt,
	}
}

func fromDecimal128(v primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

// SaveDailySnapshot stores the snapshot of its day, replacing an earlier
// snapshot of the same day.
func (r *MongoDBRepository) SaveDailySnapshot(ctx context.Context, snapshot models.DailySnapshot) error {
	doc, err := toDocument(snapshot)
	if err != nil {
		return err
	}

	collection := r.client.Database(r.dbName).Collection(r.collName)
	_, err = collection.ReplaceOne(ctx, bson.M{"_id": doc.Day}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert daily snapshot: %w", err)
	}
	return nil
}

// RecentSnapshots returns the latest snapshots, newest first.
func (r *MongoDBRepository) RecentSnapshots(ctx context.Context, limit int) ([]models.DailySnapshot, error) {
	if limit <= 0 {
		limit = 30
	}

	collection := r.client.Database(r.dbName).Collection(r.collName)
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}}).SetLimit(int64(limit))
	cursor, err := collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily snapshots: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []snapshotDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode daily snapshots: %w", err)
	}

	out := make([]models.DailySnapshot, 0, len(docs))
	for _, doc := range docs {
		out = append(out, fromDocument(doc))
	}
	return out, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
