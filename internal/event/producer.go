package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/catalog-admin/internal/domain"
	pkgkafka "github.com/utafrali/catalog-admin/pkg/kafka"
	"github.com/utafrali/catalog-admin/pkg/logger"
	"github.com/utafrali/catalog-admin/pkg/middleware"
)

// Kafka topics for admin audit events.
var (
	TopicProductSubmitted = pkgkafka.Topic("admin", "product", "submitted")
	TopicCategorySaved    = pkgkafka.Topic("admin", "category", "saved")
	TopicCategoryDeleted  = pkgkafka.Topic("admin", "category", "deleted")
)

// Aggregate types.
const (
	AggregateTypeProduct  = "product"
	AggregateTypeCategory = "category"
)

// SourceCatalogAdmin identifies events emitted by this service.
const SourceCatalogAdmin = "catalog-admin"

// ProductSubmittedData is the payload for admin.product.submitted.
type ProductSubmittedData struct {
	ProductID  string   `json:"product_id"`
	Name       string   `json:"name"`
	Slug       string   `json:"slug"`
	CategoryID string   `json:"category_id"`
	Status     string   `json:"status"`
	Mode       string   `json:"mode"`
	SpecKeys   []string `json:"spec_keys"`
	ActorID    string   `json:"actor_id,omitempty"`
}

// CategorySavedData is the payload for admin.category.saved.
type CategorySavedData struct {
	CategoryID string   `json:"category_id"`
	Name       string   `json:"name"`
	Created    bool     `json:"created"`
	FieldKeys  []string `json:"field_keys"`
	ActorID    string   `json:"actor_id,omitempty"`
}

// CategoryDeletedData is the payload for admin.category.deleted.
type CategoryDeletedData struct {
	CategoryID string `json:"category_id"`
	ActorID    string `json:"actor_id,omitempty"`
}

// Publisher is satisfied by *pkgkafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes admin audit events. A Producer with a nil publisher
// drops events, which is how Kafka is disabled.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishProductSubmitted publishes an admin.product.submitted event.
func (p *Producer) PublishProductSubmitted(ctx context.Context, product *domain.Product, mode string) error {
	data := ProductSubmittedData{
		ProductID:  product.ID,
		Name:       product.Name,
		Slug:       product.Slug,
		CategoryID: product.CategoryID,
		Status:     product.Status,
		Mode:       mode,
		SpecKeys:   product.Specifications.Keys(),
		ActorID:    middleware.UserIDFromContext(ctx),
	}
	if data.SpecKeys == nil {
		data.SpecKeys = []string{}
	}
	return p.publish(ctx, TopicProductSubmitted, product.ID, AggregateTypeProduct, data)
}

// PublishCategorySaved publishes an admin.category.saved event.
func (p *Producer) PublishCategorySaved(ctx context.Context, category *domain.Category, created bool) error {
	keys := make([]string, 0, len(category.CustomFields))
	for _, f := range category.SortedFields() {
		keys = append(keys, f.Key)
	}
	data := CategorySavedData{
		CategoryID: category.ID,
		Name:       category.Name,
		Created:    created,
		FieldKeys:  keys,
		ActorID:    middleware.UserIDFromContext(ctx),
	}
	return p.publish(ctx, TopicCategorySaved, category.ID, AggregateTypeCategory, data)
}

// PublishCategoryDeleted publishes an admin.category.deleted event.
func (p *Producer) PublishCategoryDeleted(ctx context.Context, categoryID string) error {
	data := CategoryDeletedData{
		CategoryID: categoryID,
		ActorID:    middleware.UserIDFromContext(ctx),
	}
	return p.publish(ctx, TopicCategoryDeleted, categoryID, AggregateTypeCategory, data)
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	if p == nil || p.kafka == nil {
		return nil
	}

	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceCatalogAdmin, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published admin event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}
