package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pricegate/pricegate_api/internal/metrics"
	"github.com/pricegate/pricegate_api/internal/models"
	"github.com/pricegate/pricegate_api/internal/repository"
	"github.com/pricegate/pricegate_api/internal/service"
)

// DealScanWorker periodically scans the most-listed product groups for
// smart deals at the notification threshold. Found deals are logged and
// counted; a future notification channel can hang off the same scan.
type DealScanWorker struct {
	groups      *repository.ProductGroupRepository
	provider    service.GroupLookup
	deals       *service.SmartDealService
	metrics     *metrics.Metrics
	userCountry string
	threshold   float64
	interval    time.Duration
}

// NewDealScanWorker constructs a DealScanWorker.
func NewDealScanWorker(
	groups *repository.ProductGroupRepository,
	provider service.GroupLookup,
	deals *service.SmartDealService,
	m *metrics.Metrics,
	userCountry string,
	threshold float64,
	interval time.Duration,
) *DealScanWorker {
	return &DealScanWorker{
		groups:      groups,
		provider:    provider,
		deals:       deals,
		metrics:     m,
		userCountry: userCountry,
		threshold:   threshold,
		interval:    interval,
	}
}

// Start begins the periodic scan loop and listens for context cancellation.
func (w *DealScanWorker) Start(ctx context.Context) {
	log.Info().
		Dur("interval", w.interval).
		Float64("threshold_pct", w.threshold).
		Msg("Starting deal scan worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Deal scan worker stopped")
			return
		}
	}
}

func (w *DealScanWorker) run(ctx context.Context) {
	scanCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	groups, err := w.groups.TopGroups(scanCtx, 50)
	if err != nil {
		log.Error().Err(err).Msg("deal scan: failed to load top groups")
		return
	}

	found := 0
	for _, group := range groups {
		listings, err := w.provider.ListingsInGroup(scanCtx, group.ID)
		if err != nil {
			log.Warn().Err(err).Str("group_id", group.ID).Msg("deal scan: group lookup failed")
			continue
		}

		local := bestLocal(listings)
		if local == nil {
			continue
		}

		deal, err := w.deals.Detect(scanCtx, local, w.userCountry, w.threshold)
		if err != nil {
			log.Warn().Err(err).Str("group_id", group.ID).Msg("deal scan: detection failed")
			continue
		}
		if !deal.Available {
			continue
		}

		found++
		w.metrics.IncSmartDeal("notify")
		log.Info().
			Str("group_id", group.ID).
			Str("product", group.Name).
			Float64("savings_percent", deal.Summary.SavingsPercent).
			Str("shop", deal.Summary.ShopName).
			Str("shop_country", deal.Summary.ShopCountry).
			Msg("deal scan: smart deal found")
	}

	log.Info().Int("groups", len(groups)).Int("deals", found).Msg("deal scan completed")
}

// bestLocal returns the cheapest in-stock local listing, or nil.
func bestLocal(listings []models.Listing) *models.Listing {
	var best *models.Listing
	for i := range listings {
		l := &listings[i]
		if l.Shop.Type != models.MarketLocal || !l.InStock() {
			continue
		}
		if best == nil || l.EffectivePrice() < best.EffectivePrice() {
			best = l
		}
	}
	return best
}
