package event

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/catalog-admin/internal/domain"
	pkgkafka "github.com/utafrali/catalog-admin/pkg/kafka"
	"github.com/utafrali/catalog-admin/pkg/logger"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, topic string, event *pkgkafka.Event) error {
	args := m.Called(ctx, topic, event)
	return args.Error(0)
}

func newTestProducer(pub Publisher) *Producer {
	return NewProducer(pub, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "ecommerce.admin.product.submitted", TopicProductSubmitted)
	assert.Equal(t, "ecommerce.admin.category.saved", TopicCategorySaved)
	assert.Equal(t, "ecommerce.admin.category.deleted", TopicCategoryDeleted)
}

func TestPublishProductSubmitted(t *testing.T) {
	pub := new(mockPublisher)
	var got *pkgkafka.Event
	pub.On("Publish", mock.Anything, TopicProductSubmitted, mock.AnythingOfType("*kafka.Event")).
		Run(func(args mock.Arguments) { got = args.Get(2).(*pkgkafka.Event) }).
		Return(nil)

	ctx := logger.WithCorrelationID(context.Background(), "corr-1")
	err := newTestProducer(pub).PublishProductSubmitted(ctx, &domain.Product{
		ID: "p1", Name: "ThinkPad", CategoryID: "c1", Status: domain.ProductStatusActive,
		Specifications: domain.Specifications{"ram": "16GB", "cpu": "i7"},
	}, "create")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "p1", got.AggregateID)
	assert.Equal(t, AggregateTypeProduct, got.AggregateType)
	assert.Equal(t, SourceCatalogAdmin, got.Source)
	assert.Equal(t, "corr-1", got.CorrelationID)

	var data ProductSubmittedData
	require.NoError(t, got.UnmarshalData(&data))
	assert.Equal(t, []string{"cpu", "ram"}, data.SpecKeys)
	assert.Equal(t, "create", data.Mode)
}

func TestPublishCategorySaved_FieldKeysInOrder(t *testing.T) {
	pub := new(mockPublisher)
	var got *pkgkafka.Event
	pub.On("Publish", mock.Anything, TopicCategorySaved, mock.Anything).
		Run(func(args mock.Arguments) { got = args.Get(2).(*pkgkafka.Event) }).
		Return(nil)

	err := newTestProducer(pub).PublishCategorySaved(context.Background(), &domain.Category{
		ID: "c1", Name: "Laptops",
		CustomFields: []domain.CustomFieldSchema{
			{Key: "ram", Order: 2}, {Key: "cpu", Order: 1},
		},
	}, true)
	require.NoError(t, err)

	var data CategorySavedData
	require.NoError(t, got.UnmarshalData(&data))
	assert.Equal(t, []string{"cpu", "ram"}, data.FieldKeys)
	assert.True(t, data.Created)
}

func TestPublishCategoryDeleted_Error(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, TopicCategoryDeleted, mock.Anything).Return(errors.New("broker down"))

	err := newTestProducer(pub).PublishCategoryDeleted(context.Background(), "c1")
	assert.ErrorContains(t, err, "broker down")
}

func TestProducer_DisabledDropsEvents(t *testing.T) {
	p := newTestProducer(nil)
	assert.NoError(t, p.PublishCategoryDeleted(context.Background(), "c1"))

	var nilProducer *Producer
	assert.NoError(t, nilProducer.PublishCategoryDeleted(context.Background(), "c1"))
}
