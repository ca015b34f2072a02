package usage

// TokenCounts holds input/output sums.
type TokenCounts struct {
	Input  int64 `json:"input"`
	Output int64 `json:"output"`
	Total  int64 `json:"total"`
}

func (tc *TokenCounts) Add(input, output int) {
	tc.Input += int64(input)
	tc.Output += int64(output)
	tc.Total += int64(input + output)
}

// Stats holds aggregate counters for the dashboard.
type Stats struct {
	Total       TokenCounts            `json:"total"`
	ByOperation map[string]TokenCounts `json:"by_operation"` // chat, vision
	Requests    int64                  `json:"requests"`
	Images      int64                  `json:"images"`
}

// DailyUsage is one day's point on the dashboard charts.
type DailyUsage struct {
	Day    string `json:"day"`
	Tokens int64  `json:"tokens"`
	Images int64  `json:"images"`
}
