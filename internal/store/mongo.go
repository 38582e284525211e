// Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
//
// WSO2 LLC. licenses this file to you under the Apache License,
// Version 2.0 (the "License"); you may not use this file except
// in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied. See the License for the
// specific language governing permissions and limitations
// under the License.

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/freshvault/inventory-sync/pkg/config"
	"github.com/freshvault/inventory-sync/pkg/core"
)

// productDocument is a product as stored in mongodb, keyed by scan code.
type productDocument struct {
	Code      string       `bson:"_id"`
	Product   core.Product `bson:"product"`
	UpdatedAt time.Time    `bson:"updated_at"`
}

type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewMongoStore(ctx context.Context, cfg config.MongoConfig) (*MongoStore, error) {
	clientOptions := options.Client().ApplyURI(cfg.URI)
	clientOptions.SetMaxPoolSize(10)
	clientOptions.SetMaxConnIdleTime(30 * time.Second)
	clientOptions.SetTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &MongoStore{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

func (m *MongoStore) Get(ctx context.Context, code string) (core.Product, error) {
	var doc productDocument
	err := m.collection.FindOne(ctx, bson.M{"_id": code}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return core.Product{}, core.ErrNotFound
		}
		return core.Product{}, fmt.Errorf("failed to get product: %w", err)
	}
	return doc.Product, nil
}

func (m *MongoStore) Set(ctx context.Context, code string, product core.Product) error {
	doc := productDocument{Code: code, Product: product, UpdatedAt: time.Now().UTC()}
	_, err := m.collection.ReplaceOne(ctx, bson.M{"_id": code}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}
	return nil
}

func (m *MongoStore) Delete(ctx context.Context, code string) error {
	if _, err := m.collection.DeleteOne(ctx, bson.M{"_id": code}); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

func (m *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
