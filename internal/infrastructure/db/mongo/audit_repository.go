package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/supplytrace/provenance/internal/core/ports"
)

const eventsCollection = "provenance_events"

// AuditRepository implements ports.AuditLog using MongoDB.
type AuditRepository struct {
	coll *mongo.Collection
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{coll: db.Collection(eventsCollection)}
}

type eventDoc struct {
	ID         string    `bson:"_id"`
	ProductID  string    `bson:"product_id"`
	Kind       string    `bson:"kind"`
	Actor      string    `bson:"actor"`
	Target     string    `bson:"target,omitempty"`
	TxHash     string    `bson:"tx_hash"`
	RecordedAt time.Time `bson:"recorded_at"`
}

// Record persists a provenance event to the audit collection.
func (r *AuditRepository) Record(ctx context.Context, event ports.ProvenanceEvent) error {
	doc := toEventDoc(event)
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// ListByProduct returns every event for productID, oldest first.
func (r *AuditRepository) ListByProduct(ctx context.Context, productID string) ([]ports.ProvenanceEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "recorded_at", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.M{"product_id": productID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find events: %w", err)
	}
	defer cur.Close(ctx)

	var docs []eventDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}

	events := make([]ports.ProvenanceEvent, 0, len(docs))
	for _, d := range docs {
		events = append(events, d.toPort())
	}
	return events, nil
}

func toEventDoc(e ports.ProvenanceEvent) eventDoc {
	id := e.ID
	if id == "" {
		id = uuid.NewString()
	}
	at := e.RecordedAt
	if at.IsZero() {
		at = time.Now()
	}
	return eventDoc{
		ID:         id,
		ProductID:  e.ProductID,
		Kind:       string(e.Kind),
		Actor:      e.Actor,
		Target:     e.Target,
		TxHash:     e.TxHash,
		RecordedAt: at.UTC(),
	}
}

func (d eventDoc) toPort() ports.ProvenanceEvent {
	return ports.ProvenanceEvent{
		ID:         d.ID,
		ProductID:  d.ProductID,
		Kind:       ports.EventKind(d.Kind),
		Actor:      d.Actor,
		Target:     d.Target,
		TxHash:     d.TxHash,
		RecordedAt: d.RecordedAt,
	}
}
