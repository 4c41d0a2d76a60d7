package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/erazemk/paintstock/internal/model"
)

// Options tunes Summarize.
type Options struct {
	MinQuantity  int // global low-stock threshold
	StaleDays    int
	RecentDays   int
	TopLocations int
}

// DefaultOptions matches the dashboard defaults.
var DefaultOptions = Options{MinQuantity: 30, StaleDays: 30, RecentDays: 7, TopLocations: 5}

// Summary bundles the dashboard figures.
type Summary struct {
	GeneratedAt     time.Time       `json:"generatedAt"`
	TotalItems      int             `json:"totalItems"`
	TotalGallons    int             `json:"totalGallons"`
	TotalValue      decimal.Decimal `json:"totalValue"`
	LowStock        int             `json:"lowStock"`
	InStock         int             `json:"inStock"`
	OutOfStock      int             `json:"outOfStock"`
	RecentlyScanned int             `json:"recentlyScanned"`
	StaleItems      []model.Item    `json:"staleItems"`
	TopLocations    []LocationCount `json:"topLocations"`
	CountByType     map[string]int  `json:"countByType"`

	Week           Range      `json:"week"`
	Month          Range      `json:"month"`
	CheckedOutWeek int        `json:"checkedOutThisWeek"`
	CheckedInWeek  int        `json:"checkedInThisWeek"`
	MostUsedWeek   *ItemTotal `json:"mostUsedThisWeek"`
	MostUsedMonth  *ItemTotal `json:"mostUsedThisMonth"`
}

// Summarize computes the dashboard summary as of now.
func Summarize(items []model.Item, entries []model.Entry, now time.Time, opts Options) Summary {
	week, month := Week(now), Month(now)
	return Summary{
		GeneratedAt:     now,
		TotalItems:      len(items),
		TotalGallons:    TotalGallons(items),
		TotalValue:      TotalValue(items),
		LowStock:        len(LowStock(items, opts.MinQuantity)),
		InStock:         len(InStock(items, opts.MinQuantity)),
		OutOfStock:      len(OutOfStock(items)),
		RecentlyScanned: len(RecentlyScanned(items, now, opts.RecentDays)),
		StaleItems:      StaleItems(items, now, opts.StaleDays),
		TopLocations:    TopLocations(items, opts.TopLocations),
		CountByType:     CountByType(items),
		Week:            week,
		Month:           month,
		CheckedOutWeek:  GallonsMoved(entries, model.ActionCheckOut, week),
		CheckedInWeek:   GallonsMoved(entries, model.ActionCheckIn, week),
		MostUsedWeek:    MostActiveItem(entries, model.ActionCheckOut, week),
		MostUsedMonth:   MostActiveItem(entries, model.ActionCheckOut, month),
	}
}
