package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Mythsoul/Eshop/internal/domain"
	pkgdto "github.com/Mythsoul/Eshop/pkg/dto"
	"github.com/Mythsoul/Eshop/pkg/errs"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

const (
	productsCollection     = "products"
	usersCollection        = "users"
	ordersCollection       = "orders"
	failedEventsCollection = "failed_events"
)

type MongoDBRepositoryImpl struct {
	db *mongo.Database
}

func CreateNewMongoDBRepository(db *mongo.Database) MongoDBRepository {
	return &MongoDBRepositoryImpl{db: db}
}

// freshProducts reads stock from the primary with majority read concern so that stock
// checks never see a stale secondary.
func (r *MongoDBRepositoryImpl) freshProducts() *mongo.Collection {
	opts := options.Collection().
		SetReadPreference(readpref.Primary()).
		SetReadConcern(readconcern.Majority())

	return r.db.Collection(productsCollection, opts)
}

func (r *MongoDBRepositoryImpl) HandleTrx(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := r.db.Client().StartSession()
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "HandleTrx").Msg("")
		return errs.ErrServiceUnavailable
	}

	// Defers ending the session after the transaction is committed or aborted
	defer session.EndSession(context.Background())

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		err := fn(sessCtx)
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Str("component", "HandleTrx").Msg("aborting transaction")
		}
		return nil, err
	}, txnOpts)

	return err
}

func (r *MongoDBRepositoryImpl) Ping(ctx context.Context) error {
	return r.db.Client().Ping(ctx, readpref.Primary())
}

func (r *MongoDBRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.db.Collection(productsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "date", Value: -1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "sellerId", Value: 1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}}},
	})
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "EnsureIndexes").Msg("")
		return err
	}

	_, err = r.db.Collection(ordersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: -1}}},
		{Keys: bson.D{{Key: "items.product", Value: 1}}},
	})
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "EnsureIndexes").Msg("")
		return err
	}

	return nil
}

func (r *MongoDBRepositoryImpl) GetProductsByIDs(ctx context.Context, ids []string) (data []domain.Product, err error) {
	objectIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		objectID, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			// not a catalog id, so it can only be reported as missing
			continue
		}
		objectIDs = append(objectIDs, objectID)
	}

	if len(objectIDs) == 0 {
		return []domain.Product{}, nil
	}

	filter := bson.M{"_id": bson.M{"$in": objectIDs}}

	cursor, err := r.freshProducts().Find(ctx, filter)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "GetProductsByIDs").Msg("")
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &data); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "GetProductsByIDs").Msg("")
		return nil, err
	}

	return data, nil
}

func (r *MongoDBRepositoryImpl) GetProducts(ctx context.Context, param pkgdto.Filter) (data []domain.Product, total int64, err error) {
	param = param.Normalize()

	filter := bson.D{}
	if param.Category != "" {
		filter = append(filter, bson.E{Key: "category", Value: param.Category})
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}}).
		SetSkip(int64((param.Page - 1) * param.Limit)).
		SetLimit(int64(param.Limit))

	cursor, err := r.db.Collection(productsCollection).Find(ctx, filter, opts)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "GetProducts").Msg("")
		return
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &data); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "GetProducts").Msg("")
		return
	}

	total, err = r.db.Collection(productsCollection).CountDocuments(ctx, filter)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "GetProducts").Msg("")
		return
	}

	return data, total, nil
}

func (r *MongoDBRepositoryImpl) GetProductByID(ctx context.Context, id string) (product domain.Product, err error) {
	productID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return product, errs.ErrProductNotFound
	}

	filter := bson.D{{Key: "_id", Value: productID}}

	err = r.freshProducts().FindOne(ctx, filter).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return product, errs.ErrProductNotFound
		}

		log.Ctx(ctx).Error().Err(err).Str("component", "GetProductByID").Msg("")
		return product, err
	}

	return product, nil
}

func (r *MongoDBRepositoryImpl) GetProductIDsBySeller(ctx context.Context, sellerID string) (ids []string, err error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"sellerId": sellerID},
		bson.M{"userId": sellerID},
	}}
	opts := options.Find().SetProjection(bson.M{"_id": 1})

	cursor, err := r.db.Collection(productsCollection).Find(ctx, filter, opts)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "GetProductIDsBySeller").Msg("")
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "GetProductIDsBySeller").Msg("")
		return nil, err
	}

	ids = make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID.Hex())
	}

	return ids, nil
}

// DecrementProductStock applies the decrement only while stock covers it, in a single
// server-side operation. Zero matches means the stock moved underneath the caller.
func (r *MongoDBRepositoryImpl) DecrementProductStock(ctx context.Context, id string, quantity int64) (err error) {
	productID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errs.ErrProductNotFound
	}

	filter := bson.D{
		{Key: "_id", Value: productID},
		{Key: "stock", Value: bson.D{{Key: "$gte", Value: quantity}}},
	}
	update := bson.D{{Key: "$inc", Value: bson.D{{Key: "stock", Value: -quantity}}}}

	result, err := r.db.Collection(productsCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "DecrementProductStock").Msg("")
		return err
	}

	if result.MatchedCount == 0 {
		log.Ctx(ctx).Warn().Str("component", "DecrementProductStock").Str("product_id", id).Int64("quantity", quantity).Msg("conditional decrement matched nothing")
		return errs.ErrStockConflict
	}

	return nil
}

func (r *MongoDBRepositoryImpl) GetUserByID(ctx context.Context, id string) (user domain.User, err error) {
	err = r.db.Collection(usersCollection).FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user, errs.ErrUserNotFound
		}

		log.Ctx(ctx).Error().Err(err).Str("component", "GetUserByID").Msg("")
		return user, err
	}

	return user, nil
}

func (r *MongoDBRepositoryImpl) ClearCart(ctx context.Context, userID string) (err error) {
	filter := bson.D{{Key: "_id", Value: userID}}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "cartItems", Value: bson.M{}}}}}

	result, err := r.db.Collection(usersCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "ClearCart").Msg("")
		return err
	}

	if result.MatchedCount == 0 {
		return errs.ErrUserNotFound
	}

	return nil
}

func (r *MongoDBRepositoryImpl) AddOrder(ctx context.Context, data domain.Order) (id primitive.ObjectID, err error) {
	result, err := r.db.Collection(ordersCollection).InsertOne(ctx, data)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "AddOrder").Msg("")
		return
	}

	return result.InsertedID.(primitive.ObjectID), nil
}

func (r *MongoDBRepositoryImpl) UpdateOrderStatus(ctx context.Context, id primitive.ObjectID, status domain.OrderStatus) (err error) {
	filter := bson.D{{Key: "_id", Value: id}}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "status", Value: status},
		{Key: "updatedAt", Value: time.Now().UTC()},
	}}}

	result, err := r.db.Collection(ordersCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "UpdateOrderStatus").Msg("")
		return
	}

	if result.MatchedCount == 0 {
		return errs.ErrOrderNotFound
	}

	return nil
}

func (r *MongoDBRepositoryImpl) GetOrderByID(ctx context.Context, id string) (order domain.Order, err error) {
	orderID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return order, errs.ErrOrderNotFound
	}

	err = r.db.Collection(ordersCollection).FindOne(ctx, bson.D{{Key: "_id", Value: orderID}}).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return order, errs.ErrOrderNotFound
		}

		log.Ctx(ctx).Error().Err(err).Str("component", "GetOrderByID").Msg("")
		return order, err
	}

	return order, nil
}

func (r *MongoDBRepositoryImpl) GetOrdersByUser(ctx context.Context, userID string) (data []domain.Order, err error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})

	cursor, err := r.db.Collection(ordersCollection).Find(ctx, bson.D{{Key: "userId", Value: userID}}, opts)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "GetOrdersByUser").Msg("")
		return nil, err
	}
	defer cursor.Close(ctx)

	data = []domain.Order{}
	if err = cursor.All(ctx, &data); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "GetOrdersByUser").Msg("")
		return nil, err
	}

	return data, nil
}

// GetOrdersByProducts returns orders with at least one line for productIDs, newest first.
func (r *MongoDBRepositoryImpl) GetOrdersByProducts(ctx context.Context, productIDs []string) (data []domain.Order, err error) {
	data = []domain.Order{}
	if len(productIDs) == 0 {
		return data, nil
	}

	filter := bson.D{{Key: "items.product", Value: bson.D{{Key: "$in", Value: productIDs}}}}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})

	cursor, err := r.db.Collection(ordersCollection).Find(ctx, filter, opts)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "GetOrdersByProducts").Msg("")
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &data); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "GetOrdersByProducts").Msg("")
		return nil, err
	}

	return data, nil
}

func (r *MongoDBRepositoryImpl) AddFailedEvent(ctx context.Context, data domain.FailedEvent) (err error) {
	_, err = r.db.Collection(failedEventsCollection).InsertOne(ctx, data)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "AddFailedEvent").Msg("")
	}

	return
}

func (r *MongoDBRepositoryImpl) GetFailedEvents(ctx context.Context, limit int64) (data []domain.FailedEvent, err error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}).SetLimit(limit)

	cursor, err := r.db.Collection(failedEventsCollection).Find(ctx, bson.D{}, opts)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "GetFailedEvents").Msg("")
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &data); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "GetFailedEvents").Msg("")
		return nil, err
	}

	return data, nil
}

func (r *MongoDBRepositoryImpl) MarkFailedEventAttempt(ctx context.Context, id string, lastError string) (err error) {
	update := bson.D{
		{Key: "$inc", Value: bson.D{{Key: "attempts", Value: 1}}},
		{Key: "$set", Value: bson.D{
			{Key: "lastError", Value: lastError},
			{Key: "updatedAt", Value: time.Now().UTC()},
		}},
	}

	_, err = r.db.Collection(failedEventsCollection).UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, update)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "MarkFailedEventAttempt").Msg("")
	}

	return
}

func (r *MongoDBRepositoryImpl) DeleteFailedEvent(ctx context.Context, id string) (err error) {
	_, err = r.db.Collection(failedEventsCollection).DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "DeleteFailedEvent").Msg("")
	}

	return
}
