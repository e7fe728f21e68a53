package source

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/alnah/go-pdfreport"
)

// Default MongoDB names.
const (
	DefaultDatabase = "shop"
	DefaultOrders   = "orders"
	DefaultProducts = "products"
)

// MongoConfig locates the orders and products collections. Orders carry
// product_id and date_time; products carry product_id, product_name and
// price.
type MongoConfig struct {
	URI      string
	Database string
	Orders   string
	Products string
}

// MongoSource joins orders to products with an aggregation pipeline.
type MongoSource struct {
	client *mongo.Client
	cfg    MongoConfig
	logger *zap.Logger
}

// mongoPurchase is one row of the aggregation output.
type mongoPurchase struct {
	ProductName string        `bson:"product_name"`
	DateTime    time.Time     `bson:"date_time"`
	Price       bson.RawValue `bson:"price"`
}

// NewMongoSource connects and pings the server.
func NewMongoSource(ctx context.Context, cfg MongoConfig, logger *zap.Logger) (*MongoSource, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("%w: mongo uri is empty", ErrConnect)
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.Orders == "" {
		cfg.Orders = DefaultOrders
	}
	if cfg.Products == "" {
		cfg.Products = DefaultProducts
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("%w: ping: %v", ErrConnect, err)
	}

	logger.Debug("connected to mongodb", zap.String("database", cfg.Database))
	return &MongoSource{client: client, cfg: cfg, logger: logger}, nil
}

// purchasesPipeline joins orders to products, newest first.
func purchasesPipeline(products string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: products},
			{Key: "localField", Value: "product_id"},
			{Key: "foreignField", Value: "product_id"},
			{Key: "as", Value: "product"},
		}}},
		{{Key: "$unwind", Value: "$product"}},
		{{Key: "$sort", Value: bson.D{{Key: "date_time", Value: -1}}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "product_name", Value: "$product.product_name"},
			{Key: "date_time", Value: 1},
			{Key: "price", Value: "$product.price"},
		}}},
	}
}

// Load implements Source.
func (s *MongoSource) Load(ctx context.Context) ([]pdfreport.PurchaseRecord, error) {
	coll := s.client.Database(s.cfg.Database).Collection(s.cfg.Orders)
	cur, err := coll.Aggregate(ctx, purchasesPipeline(s.cfg.Products))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	defer func() { _ = cur.Close(ctx) }()

	var records []pdfreport.PurchaseRecord
	for cur.Next(ctx) {
		var row mongoPurchase
		if err := cur.Decode(&row); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
		}
		price, err := decimalFromRaw(row.Price)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidRecord, row.ProductName, err)
		}
		rec, err := newRecord(row.ProductName, row.DateTime.In(time.Local), price)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}

	s.logger.Debug("purchases loaded", zap.Int("records", len(records)))
	SortNewestFirst(records)
	return records, nil
}

// Close disconnects the client.
func (s *MongoSource) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// decimalFromRaw converts the numeric BSON types a price may be stored as.
func decimalFromRaw(v bson.RawValue) (decimal.Decimal, error) {
	switch v.Type {
	case bson.TypeDecimal128:
		return decimal.NewFromString(v.Decimal128().String())
	case bson.TypeDouble:
		return decimal.NewFromFloat(v.Double()), nil
	case bson.TypeInt32:
		return decimal.NewFromInt32(v.Int32()), nil
	case bson.TypeInt64:
		return decimal.NewFromInt(v.Int64()), nil
	case bson.TypeString:
		return decimal.NewFromString(v.StringValue())
	default:
		return decimal.Decimal{}, fmt.Errorf("unsupported price type %s", v.Type)
	}
}
