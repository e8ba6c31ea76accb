package database

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/bigkaa/goartstore/share-module/internal/config"
)

// ConnectMongo подключается к MongoDB и возвращает клиент и коллекцию файлов.
// Клиент закрывается вызывающим через Disconnect.
func ConnectMongo(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*mongo.Client, *mongo.Collection, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.MetadataConnectTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.MongoURL).
		SetServerSelectionTimeout(cfg.MetadataConnectTimeout)

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка создания клиента MongoDB: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ошибка подключения к MongoDB: %w", err)
	}

	coll := client.Database(cfg.MongoDatabase).Collection(cfg.MongoCollection)

	logger.Info("Подключение к MongoDB установлено",
		slog.String("database", cfg.MongoDatabase),
		slog.String("collection", cfg.MongoCollection),
	)

	return client, coll, nil
}
