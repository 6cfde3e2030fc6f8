package database

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"buyerradar/server/internal/dataset"
	"buyerradar/server/internal/models"
	"buyerradar/server/internal/search"
	"buyerradar/server/internal/testutil"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { Close(db) })

	require.NoError(t, MigrateSchema(db))
	return db
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func fixtureDocument() *ImportDocument {
	return DocumentFromCollections(&dataset.Collections{
		Buyers:     testutil.Buyers(),
		Properties: testutil.Properties(),
		Events:     testutil.Events(),
	})
}

type MockGeocoder struct {
	mock.Mock
}

func (m *MockGeocoder) Geocode(ctx context.Context, query string) (models.GeoPoint, error) {
	args := m.Called(ctx, query)
	return args.Get(0).(models.GeoPoint), args.Error(1)
}

func TestMigrateSchema(t *testing.T) {
	db := setupTestDB(t)

	for _, table := range []string{"buyers", "properties", "purchase_events"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasIndex(&PropertyRecord{}, "idx_properties_coordinates"))

	// Migrating again is a no-op.
	assert.NoError(t, MigrateSchema(db))
}

func TestUpsertDocument_LoadRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	stats, err := UpsertDocument(ctx, db, fixtureDocument())
	require.NoError(t, err)
	assert.Equal(t, ImportStats{Buyers: 4, Properties: 7, Events: 9}, stats)

	c, err := NewSource(db, "test.db", testLogger()).Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, testutil.Buyers(), c.Buyers)
	assert.Equal(t, testutil.Properties(), c.Properties)
	assert.ElementsMatch(t, testutil.Events(), c.Events)
	assert.Equal(t, "e5", c.Events[0].ID, "events load newest first")
}

func TestUpsertDocument_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := UpsertDocument(ctx, db, fixtureDocument())
	require.NoError(t, err)

	doc := fixtureDocument()
	doc.Buyers[1].Name = "Mission Trail Rentals II LP"
	doc.Events[0].Price = 280000
	_, err = UpsertDocument(ctx, db, doc)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&EventRecord{}).Count(&count).Error)
	assert.Equal(t, int64(9), count)

	var buyer BuyerRecord
	require.NoError(t, db.First(&buyer, "id = ?", "b2").Error)
	assert.Equal(t, "Mission Trail Rentals II LP", buyer.Name)

	var event EventRecord
	require.NoError(t, db.First(&event, "id = ?", "e1").Error)
	assert.Equal(t, 280000.0, event.Price)
	assert.Equal(t, "2025-07-21", event.EventDate)
}

func TestUpsertDocument_KeepsKnownLocation(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := UpsertDocument(ctx, db, fixtureDocument())
	require.NoError(t, err)

	doc := &ImportDocument{Properties: []ImportProperty{
		{ID: "p1", Street: "210 E Houston St Ste 100", City: "San Antonio", State: "TX", PostalCode: "78205"},
	}}
	stats, err := UpsertDocument(ctx, db, doc)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Unlocated)

	var p PropertyRecord
	require.NoError(t, db.First(&p, "id = ?", "p1").Error)
	assert.Equal(t, "210 E Houston St Ste 100", p.Street)
	require.True(t, p.located())
	assert.Equal(t, 29.4270, *p.Latitude)
	assert.True(t, p.GeocodingAttempted)
}

func TestUpsertDocument_DanglingReference(t *testing.T) {
	db := setupTestDB(t)

	doc := fixtureDocument()
	doc.Events[2].BuyerID = "ghost"

	_, err := UpsertDocument(context.Background(), db, doc)
	assert.ErrorIs(t, err, search.ErrDataIntegrity)

	// The transaction rolled back everything.
	var count int64
	require.NoError(t, db.Model(&BuyerRecord{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestUpsertDocument_Validation(t *testing.T) {
	db := setupTestDB(t)

	tests := []struct {
		name     string
		mutate   func(doc *ImportDocument)
		expected error
	}{
		{
			name:     "Duplicate property",
			mutate:   func(doc *ImportDocument) { doc.Properties = append(doc.Properties, doc.Properties[0]) },
			expected: dataset.ErrDuplicateID,
		},
		{
			name:     "Out of range location",
			mutate:   func(doc *ImportDocument) { doc.Properties[0].Location = &models.GeoPoint{Latitude: -100} },
			expected: dataset.ErrInvalidRecord,
		},
		{
			name:     "Negative price",
			mutate:   func(doc *ImportDocument) { doc.Events[0].Price = -1 },
			expected: dataset.ErrInvalidRecord,
		},
		{
			name:     "Unknown category",
			mutate:   func(doc *ImportDocument) { doc.Buyers[0].Category = "investor" },
			expected: dataset.ErrInvalidRecord,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := fixtureDocument()
			tt.mutate(doc)

			_, err := UpsertDocument(context.Background(), db, doc)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestSource_SkipsUnlocatedProperties(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	doc := fixtureDocument()
	doc.Properties[3].Location = nil // p4, bought by b2 and sold by b1
	_, err := UpsertDocument(ctx, db, doc)
	require.NoError(t, err)

	source := NewSource(db, "test.db", testLogger())
	assert.Equal(t, "sqlite:test.db", source.Name())

	c, err := source.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, c.Properties, 6)
	assert.Len(t, c.Events, 7)

	snap, err := dataset.NewSnapshot(c)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.DanglingReferences())
}

func TestSource_FeedsSearch(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	_, err := UpsertDocument(ctx, db, fixtureDocument())
	require.NoError(t, err)

	store := dataset.NewStore()
	c, err := NewSource(db, "test.db", testLogger()).Load(ctx)
	require.NoError(t, err)
	_, err = store.Replace(c, "sqlite:test.db")
	require.NoError(t, err)

	results, err := search.NewService(store, nil, testLogger()).Query(ctx, search.Params{
		Center:      testutil.SanAntonio,
		RadiusMiles: 2,
		Months:      12,
		Category:    models.CategoryAll,
		Now:         testutil.ReferenceNow,
	})
	require.NoError(t, err)
	require.Len(t, results.Summaries, 3)
	assert.Equal(t, "b1", results.Summaries[0].BuyerID)
	assert.Equal(t, 260000.0, results.Summaries[0].MedianPrice)
}

func TestUpdateMissingCoordinates(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	doc := fixtureDocument()
	doc.Properties[0].Location = nil
	doc.Properties[1].Location = nil
	_, err := UpsertDocument(ctx, db, doc)
	require.NoError(t, err)

	geocoder := &MockGeocoder{}
	geocoder.On("Geocode", mock.Anything, "210 E Houston St, San Antonio, TX 78205").
		Return(models.GeoPoint{Latitude: 29.4270, Longitude: -98.4910}, nil).Once()
	geocoder.On("Geocode", mock.Anything, "515 S Alamo St, San Antonio, TX 78205").
		Return(models.GeoPoint{}, errors.New("no results found")).Once()

	stats, err := UpdateMissingCoordinates(ctx, db, geocoder, testLogger())
	require.NoError(t, err)
	assert.Equal(t, GeocodeStats{Total: 2, Processed: 1, Failed: 1}, stats)
	geocoder.AssertExpectations(t)

	var p1, p2 PropertyRecord
	require.NoError(t, db.First(&p1, "id = ?", "p1").Error)
	require.NoError(t, db.First(&p2, "id = ?", "p2").Error)
	assert.True(t, p1.located())
	assert.False(t, p2.located())
	assert.True(t, p2.GeocodingAttempted)

	// Nothing left to attempt.
	stats, err = UpdateMissingCoordinates(ctx, db, geocoder, testLogger())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
}

func TestUpdateMissingCoordinates_CancelLeavesBatchPending(t *testing.T) {
	db := setupTestDB(t)

	doc := fixtureDocument()
	doc.Properties[0].Location = nil
	doc.Properties[1].Location = nil
	_, err := UpsertDocument(context.Background(), db, doc)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	geocoder := &MockGeocoder{}
	geocoder.On("Geocode", mock.Anything, "210 E Houston St, San Antonio, TX 78205").
		Run(func(args mock.Arguments) { cancel() }).
		Return(models.GeoPoint{}, context.Canceled).Once()

	_, err = UpdateMissingCoordinates(ctx, db, geocoder, testLogger())
	assert.ErrorIs(t, err, context.Canceled)
	geocoder.AssertExpectations(t)

	var attempted int64
	require.NoError(t, db.Model(&PropertyRecord{}).Where("geocoding_attempted = ?", true).Count(&attempted).Error)
	assert.Equal(t, int64(0), attempted)
}

func TestReadImportFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "import.json")
	content := `{
		"buyers": [{"id": "b9", "name": "Hill Country Homes", "category": "flipper", "contacts": []}],
		"properties": [{"id": "p9", "street": "1 Main St", "city": "Boerne", "state": "TX", "postal_code": "78006"}],
		"events": [{"id": "e9", "buyer_id": "b9", "property_id": "p9", "event_type": "purchase", "event_date": "2025-04-01", "price": 410000, "source": "county"}]
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	doc, err := ReadImportFile(path)
	require.NoError(t, err)
	require.Len(t, doc.Properties, 1)
	assert.Nil(t, doc.Properties[0].Location)
	assert.NoError(t, doc.Validate())

	_, err = ReadImportFile(filepath.Join(dir, "missing.json"))
	assert.ErrorContains(t, err, "failed to read import file")

	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("{", 3)), 0644))
	_, err = ReadImportFile(path)
	assert.ErrorContains(t, err, "failed to parse import file")
}
