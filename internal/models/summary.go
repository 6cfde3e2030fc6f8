package models

// BuyerSummary is the per-buyer activity computed for one query.
type BuyerSummary struct {
	BuyerID            string    `json:"buyer_id"`
	Name               string    `json:"name"`
	Category           Category  `json:"category"`
	Contacts           []Contact `json:"contacts"`
	DealCount          int       `json:"deal_count"`
	MostRecentDealDate Date      `json:"most_recent_deal_date"`
	MedianPrice        float64   `json:"median_price"`
}
