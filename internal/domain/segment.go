package domain

// Pareto segment labels.
const (
	SegmentTop  = "Top"
	SegmentCore = "Core"
	SegmentTail = "Tail"
)

// SkuSegment is the Pareto revenue segment of one SKU.
type SkuSegment struct {
	SkuID           string
	ProductName     string
	Category        string
	TotalRevenue    float64
	TotalUnits      int64
	AvgPrice        float64
	CumulativeShare float64 // cumulative revenue share in [0, 1] after this SKU
	Segment         string
}
