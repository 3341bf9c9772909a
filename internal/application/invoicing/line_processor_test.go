package invoicing

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockCatalogClient is a mock implementation of CatalogClient
type MockCatalogClient struct {
	mock.Mock
}

func (m *MockCatalogClient) FindOrCreateProduct(ctx context.Context, descriptor ProductDescriptor) (*ProductRef, error) {
	args := m.Called(ctx, descriptor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ProductRef), args.Error(1)
}

func TestLineProcessor_Process_ResolvesProducts(t *testing.T) {
	catalog := new(MockCatalogClient)
	processor := NewLineProcessor(catalog, zap.NewNop())
	enterpriseID := uuid.New()
	productID := uuid.New()

	catalog.On("FindOrCreateProduct", mock.Anything, mock.MatchedBy(func(d ProductDescriptor) bool {
		return d.Description == "Widget" && d.EnterpriseID == enterpriseID
	})).Return(&ProductRef{ID: productID}, nil)

	lines := processor.Process(context.Background(), enterpriseID, []ExtractedLine{
		{Description: "Widget", Quantity: decimal.NewFromInt(5)},
	})

	require.Len(t, lines, 1)
	require.NotNil(t, lines[0].MasterProductID)
	assert.Equal(t, productID, *lines[0].MasterProductID)
	assert.True(t, lines[0].Quantity.Equal(decimal.NewFromInt(5)))
}

func TestLineProcessor_Process_DropsLinesWithoutDescription(t *testing.T) {
	catalog := new(MockCatalogClient)
	processor := NewLineProcessor(catalog, zap.NewNop())

	lines := processor.Process(context.Background(), uuid.New(), []ExtractedLine{
		{Quantity: decimal.NewFromInt(3)},
		{Description: ""},
	})

	assert.Empty(t, lines)
	catalog.AssertNotCalled(t, "FindOrCreateProduct", mock.Anything, mock.Anything)
}

func TestLineProcessor_Process_DefaultsQuantityToOne(t *testing.T) {
	catalog := new(MockCatalogClient)
	processor := NewLineProcessor(catalog, zap.NewNop())

	catalog.On("FindOrCreateProduct", mock.Anything, mock.Anything).Return(&ProductRef{ID: uuid.New()}, nil)

	lines := processor.Process(context.Background(), uuid.New(), []ExtractedLine{
		{Description: "Widget"},
	})

	require.Len(t, lines, 1)
	assert.True(t, lines[0].Quantity.Equal(decimal.NewFromInt(1)))
}

func TestLineProcessor_Process_ResolutionFailureLeavesLineWithoutProduct(t *testing.T) {
	catalog := new(MockCatalogClient)
	processor := NewLineProcessor(catalog, zap.NewNop())

	catalog.On("FindOrCreateProduct", mock.Anything, mock.Anything).Return(nil, errors.New("request timeout"))

	lines := processor.Process(context.Background(), uuid.New(), []ExtractedLine{
		{Description: "Widget", Quantity: decimal.NewFromInt(2)},
	})

	require.Len(t, lines, 1)
	assert.Nil(t, lines[0].MasterProductID)
	assert.Equal(t, "Widget", lines[0].Description)
	assert.True(t, lines[0].Quantity.Equal(decimal.NewFromInt(2)))
}

func TestLineProcessor_Process_PreservesExtractionOrder(t *testing.T) {
	catalog := new(MockCatalogClient)
	processor := NewLineProcessor(catalog, zap.NewNop())
	enterpriseID := uuid.New()

	descriptions := []string{"Alpha", "Beta", "Gamma", "Delta", "Epsilon", "Zeta"}
	products := make(map[string]uuid.UUID, len(descriptions))
	for _, d := range descriptions {
		d := d
		products[d] = uuid.New()
		catalog.On("FindOrCreateProduct", mock.Anything, mock.MatchedBy(func(desc ProductDescriptor) bool {
			return desc.Description == d
		})).Return(&ProductRef{ID: products[d]}, nil)
	}

	extracted := make([]ExtractedLine, 0, len(descriptions))
	for _, d := range descriptions {
		extracted = append(extracted, ExtractedLine{Description: d, Quantity: decimal.NewFromInt(1)})
	}

	lines := processor.Process(context.Background(), enterpriseID, extracted)

	require.Len(t, lines, len(descriptions))
	for i, d := range descriptions {
		assert.Equal(t, d, lines[i].Description)
		require.NotNil(t, lines[i].MasterProductID)
		assert.Equal(t, products[d], *lines[i].MasterProductID)
	}
}

func TestLineProcessor_Process_MixedResolutionOutcomes(t *testing.T) {
	catalog := new(MockCatalogClient)
	processor := NewLineProcessor(catalog, zap.NewNop())
	productID := uuid.New()

	catalog.On("FindOrCreateProduct", mock.Anything, mock.MatchedBy(func(d ProductDescriptor) bool {
		return d.Description == "Known"
	})).Return(&ProductRef{ID: productID}, nil)
	catalog.On("FindOrCreateProduct", mock.Anything, mock.MatchedBy(func(d ProductDescriptor) bool {
		return d.Description == "Unknown"
	})).Return(nil, errors.New("catalog unavailable"))

	lines := processor.Process(context.Background(), uuid.New(), []ExtractedLine{
		{Description: "Known"},
		{Description: "Unknown"},
	})

	require.Len(t, lines, 2)
	require.NotNil(t, lines[0].MasterProductID)
	assert.Equal(t, productID, *lines[0].MasterProductID)
	assert.Nil(t, lines[1].MasterProductID)
}
