package search

import (
	"testing"

	"github.com/stretchr/testify/require"

	"buyerradar/server/internal/dataset"
	"buyerradar/server/internal/models"
	"buyerradar/server/internal/testutil"
)

func fixtureSnapshot(t *testing.T) *dataset.Snapshot {
	t.Helper()
	snap, err := dataset.NewSnapshot(&dataset.Collections{
		Buyers:     testutil.Buyers(),
		Properties: testutil.Properties(),
		Events:     testutil.Events(),
	})
	require.NoError(t, err)
	return snap
}

func snapshotWith(t *testing.T, mutate func(c *dataset.Collections)) *dataset.Snapshot {
	t.Helper()
	c := &dataset.Collections{
		Buyers:     testutil.Buyers(),
		Properties: testutil.Properties(),
		Events:     testutil.Events(),
	}
	mutate(c)
	snap, err := dataset.NewSnapshot(c)
	require.NoError(t, err)
	return snap
}

func defaultParams() Params {
	return Params{
		Center:      testutil.SanAntonio,
		RadiusMiles: 2,
		Months:      12,
		Category:    models.CategoryAll,
		Now:         testutil.ReferenceNow,
	}
}

func buyerIDs(summaries []models.BuyerSummary) []string {
	ids := make([]string, len(summaries))
	for i, s := range summaries {
		ids[i] = s.BuyerID
	}
	return ids
}

func eventIDs(events []models.PurchaseEvent) []string {
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	return ids
}
