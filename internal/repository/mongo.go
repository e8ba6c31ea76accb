package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/bigkaa/goartstore/share-module/internal/domain/model"
)

// fileDocument — представление FileRecord в коллекции MongoDB.
type fileDocument struct {
	ID          primitive.ObjectID `bson:"_id"`
	URL         string             `bson:"url"`
	PublicID    string             `bson:"public_id"`
	StorageKey  string             `bson:"storage_key"`
	Size        int64              `bson:"size"`
	Name        string             `bson:"name"`
	Description string             `bson:"description"`
	ContentType string             `bson:"contentType"`
	ExpiresAt   time.Time          `bson:"expiresAt"`
	CreateDate  string             `bson:"create_date"`
	CreateTime  string             `bson:"create_time"`
}

func toDocument(rec *model.FileRecord, id primitive.ObjectID) fileDocument {
	return fileDocument{
		ID:          id,
		URL:         rec.URL,
		PublicID:    rec.PublicID,
		StorageKey:  rec.StorageKey,
		Size:        rec.Size,
		Name:        rec.Name,
		Description: rec.Description,
		ContentType: rec.ContentType,
		ExpiresAt:   rec.ExpiresAt.UTC(),
		CreateDate:  rec.CreateDate,
		CreateTime:  rec.CreateTime,
	}
}

func (d *fileDocument) toModel() *model.FileRecord {
	return &model.FileRecord{
		ID:          d.ID.Hex(),
		URL:         d.URL,
		PublicID:    d.PublicID,
		StorageKey:  d.StorageKey,
		Size:        d.Size,
		Name:        d.Name,
		Description: d.Description,
		ContentType: d.ContentType,
		ExpiresAt:   d.ExpiresAt,
		CreateDate:  d.CreateDate,
		CreateTime:  d.CreateTime,
	}
}

// mongoFileRepo — реализация FileRepository поверх коллекции MongoDB.
type mongoFileRepo struct {
	coll *mongo.Collection
}

// NewMongoFileRepository создаёт репозиторий поверх коллекции.
func NewMongoFileRepository(coll *mongo.Collection) FileRepository {
	return &mongoFileRepo{coll: coll}
}

// EnsureIndexes создаёт индексы по public_id и expiresAt.
// Повторный вызов не меняет существующие индексы.
func EnsureIndexes(ctx context.Context, coll *mongo.Collection) error {
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "public_id", Value: 1}}},
		{Keys: bson.D{{Key: "expiresAt", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("ошибка создания индексов: %w", err)
	}
	return nil
}

// Insert сохраняет одну запись.
func (r *mongoFileRepo) Insert(ctx context.Context, rec *model.FileRecord) error {
	id := primitive.NewObjectID()
	if _, err := r.coll.InsertOne(ctx, toDocument(rec, id)); err != nil {
		return fmt.Errorf("ошибка вставки записи файла: %w", err)
	}
	rec.ID = id.Hex()
	return nil
}

// InsertMany сохраняет записи одной командой insertMany.
func (r *mongoFileRepo) InsertMany(ctx context.Context, recs []*model.FileRecord) error {
	if len(recs) == 0 {
		return nil
	}

	ids := make([]primitive.ObjectID, len(recs))
	docs := make([]any, len(recs))
	for i, rec := range recs {
		ids[i] = primitive.NewObjectID()
		docs[i] = toDocument(rec, ids[i])
	}

	if _, err := r.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("ошибка вставки записей файлов: %w", err)
	}

	for i, rec := range recs {
		rec.ID = ids[i].Hex()
	}
	return nil
}

// FindByPublicID возвращает записи в порядке вставки.
func (r *mongoFileRepo) FindByPublicID(ctx context.Context, publicID string) ([]*model.FileRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	return r.find(ctx, bson.D{{Key: "public_id", Value: publicID}}, opts)
}

// FindExpired возвращает записи с expiresAt < now.
func (r *mongoFileRepo) FindExpired(ctx context.Context, now time.Time) ([]*model.FileRecord, error) {
	filter := bson.D{{Key: "expiresAt", Value: bson.D{{Key: "$lt", Value: now.UTC()}}}}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "expiresAt", Value: 1}}))
}

// Delete удаляет документ по _id.
func (r *mongoFileRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return fmt.Errorf("ошибка удаления записи файла: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping проверяет соединение с primary.
func (r *mongoFileRepo) Ping(ctx context.Context) error {
	if err := r.coll.Database().Client().Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("MongoDB недоступна: %w", err)
	}
	return nil
}

// find выполняет запрос и декодирует все документы.
func (r *mongoFileRepo) find(ctx context.Context, filter bson.D, opts *options.FindOptions) ([]*model.FileRecord, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса записей файлов: %w", err)
	}

	var docs []fileDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("ошибка чтения записей файлов: %w", err)
	}

	result := make([]*model.FileRecord, 0, len(docs))
	for i := range docs {
		result = append(result, docs[i].toModel())
	}
	return result, nil
}
