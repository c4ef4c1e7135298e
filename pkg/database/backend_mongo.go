package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/PancyStudios/PancyLedger/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ledgerCollection holds one Mongo document per ledger document
const ledgerCollection = "ledger_documents"

// Database manages the MongoDB connection used by MongoBackend
type Database struct {
	client      *mongo.Client
	db          *mongo.Database
	mu          sync.RWMutex
	collections map[string]*mongo.Collection
}

// NewDatabase creates a disconnected Database
func NewDatabase() *Database {
	return &Database{
		collections: make(map[string]*mongo.Collection),
	}
}

// Connect establishes a connection to MongoDB and verifies it with a ping
func (d *Database) Connect(ctx context.Context, mongoURL, dbName string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.client != nil {
		return nil
	}

	logger.System("Intentando conectar a la base de datos...", "DB")

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(mongoURL).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		logger.Critical("Fallo al conectar con la base de datos.", "DB")
		return err
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		logger.Critical("Fallo al verificar conexión con la base de datos.", "DB")
		_ = client.Disconnect(context.Background())
		return err
	}

	d.client = client
	d.db = client.Database(dbName)

	logger.Success("Conectado exitosamente a la base de datos.", "DB")
	return nil
}

// Disconnect closes the database connection
func (d *Database) Disconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.client.Disconnect(ctx); err != nil {
		return err
	}
	d.client = nil
	d.db = nil
	d.collections = make(map[string]*mongo.Collection)
	logger.Warn("La base de datos ha sido desconectada", "DB")
	return nil
}

// Connected reports whether Connect succeeded
func (d *Database) Connected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.client != nil
}

// Ping measures the database response time
func (d *Database) Ping(ctx context.Context) (time.Duration, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.client == nil {
		return 0, fmt.Errorf("not connected to database")
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := d.client.Ping(ctx, readpref.Primary())
	return time.Since(start), err
}

// GetCollection returns a MongoDB collection, nil when disconnected
func (d *Database) GetCollection(name string) *mongo.Collection {
	d.mu.RLock()
	if col, exists := d.collections[name]; exists {
		d.mu.RUnlock()
		return col
	}
	d.mu.RUnlock()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db == nil {
		return nil
	}

	col := d.db.Collection(name)
	d.collections[name] = col
	return col
}

// mongoDocument is the stored envelope. The ledger document is kept as its
// JSON text so the on-disk and in-Mongo shapes stay identical.
type mongoDocument struct {
	ID        string    `bson:"_id"`
	Payload   string    `bson:"payload"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoBackend stores a ledger document as a single Mongo document
type MongoBackend struct {
	db    *Database
	docID string
}

// NewMongoBackend creates a backend keyed by docID in the ledger collection
func NewMongoBackend(db *Database, docID string) *MongoBackend {
	return &MongoBackend{db: db, docID: docID}
}

// Name returns the backend name
func (b *MongoBackend) Name() string {
	return "mongo:" + ledgerCollection + "/" + b.docID
}

func (b *MongoBackend) collection() (*mongo.Collection, error) {
	col := b.db.GetCollection(ledgerCollection)
	if col == nil {
		return nil, fmt.Errorf("database not connected")
	}
	return col, nil
}

// Read returns the stored JSON payload
func (b *MongoBackend) Read(ctx context.Context) ([]byte, error) {
	col, err := b.collection()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var doc mongoDocument
	err = col.FindOne(ctx, bson.M{"_id": b.docID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrDocumentMissing
	}
	if err != nil {
		return nil, err
	}
	return []byte(doc.Payload), nil
}

// Write upserts the JSON payload
func (b *MongoBackend) Write(ctx context.Context, data []byte) error {
	col, err := b.collection()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Update().SetUpsert(true)
	_, err = col.UpdateOne(ctx,
		bson.M{"_id": b.docID},
		bson.M{"$set": bson.M{"payload": string(data), "updated_at": time.Now().UTC()}},
		opts,
	)
	return err
}
