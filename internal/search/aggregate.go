package search

import (
	"sort"

	"buyerradar/server/internal/models"
)

// BuyerLookup resolves buyer ids to buyer records.
type BuyerLookup interface {
	Buyer(id string) (models.Buyer, bool)
}

type buyerActivity struct {
	buyer      models.Buyer
	prices     []float64
	mostRecent models.Date
}

// Aggregate groups events by buyer and returns one summary per buyer, ranked by
// deal count (desc), most recent deal date (desc), then buyer id (asc).
func Aggregate(events []models.PurchaseEvent, buyers BuyerLookup) ([]models.BuyerSummary, error) {
	activity := make(map[string]*buyerActivity)
	order := make([]string, 0)

	for _, event := range events {
		acc, ok := activity[event.BuyerID]
		if !ok {
			buyer, found := buyers.Buyer(event.BuyerID)
			if !found {
				return nil, dataIntegrity("event %q references unknown buyer %q", event.ID, event.BuyerID)
			}
			acc = &buyerActivity{buyer: buyer}
			activity[event.BuyerID] = acc
			order = append(order, event.BuyerID)
		}

		acc.prices = append(acc.prices, event.Price)
		if event.EventDate.After(acc.mostRecent.Time) {
			acc.mostRecent = event.EventDate
		}
	}

	summaries := make([]models.BuyerSummary, 0, len(order))
	for _, id := range order {
		acc := activity[id]
		contacts := make([]models.Contact, len(acc.buyer.Contacts))
		copy(contacts, acc.buyer.Contacts)

		summaries = append(summaries, models.BuyerSummary{
			BuyerID:            acc.buyer.ID,
			Name:               acc.buyer.Name,
			Category:           acc.buyer.Category,
			Contacts:           contacts,
			DealCount:          len(acc.prices),
			MostRecentDealDate: acc.mostRecent,
			MedianPrice:        Median(acc.prices),
		})
	}

	Rank(summaries)
	return summaries, nil
}

// Rank sorts summaries in place into result order.
func Rank(summaries []models.BuyerSummary) {
	sort.SliceStable(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		if a.DealCount != b.DealCount {
			return a.DealCount > b.DealCount
		}
		if !a.MostRecentDealDate.Equal(b.MostRecentDealDate.Time) {
			return a.MostRecentDealDate.After(b.MostRecentDealDate.Time)
		}
		return a.BuyerID < b.BuyerID
	})
}

func sortNewestFirst(events []models.PurchaseEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].EventDate.After(events[j].EventDate.Time)
	})
}

// Median returns the middle value of prices, or the mean of the two middle
// values for an even count. An empty slice yields 0.
func Median(prices []float64) float64 {
	n := len(prices)
	if n == 0 {
		return 0
	}

	sorted := append([]float64(nil), prices...)
	sort.Float64s(sorted)

	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
