package models

// CountShare is a count with its share of the total, in percent.
type CountShare struct {
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
	Trend      float64 `json:"trend"`
}

// AnalyticsSummary aggregates the complaint table.
type AnalyticsSummary struct {
	TotalComplaints int            `json:"totalComplaints"`
	ByCategory      []CountShare   `json:"byCategory"`
	ByLocation      []CountShare   `json:"byLocation"`
	ByStatus        map[string]int `json:"byStatus"`
	TrendingTopics  []string       `json:"trendingTopics"`
}

// TimelinePoint is the number of complaints created on one day.
type TimelinePoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// CategoryStat is a category with its complaint count.
type CategoryStat struct {
	Category
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}
