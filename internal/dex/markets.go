package dex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"dex-markets/internal/domain"
	"dex-markets/internal/pricemath"
	"dex-markets/internal/storage"
)

// MarketsList returns every listed market: pairs traded against a reserve
// in the last 24 hours followed by the other reserve pairs, each with its
// price movement and market cap. The primary pair is first and pos is the
// 1-based rank.
func (s *Service) MarketsList(ctx context.Context) (markets []domain.Market, err error) {
	start := time.Now()
	defer func() { s.track("markets_list", start, err) }()

	recent, err := s.AllReservePairs(ctx, nil, s.opts.ListSize, s.yesterday())
	if err != nil {
		return nil, err
	}
	withVolume := make(map[string]bool, len(recent))
	exclude := make([]string, 0, len(recent))
	for _, p := range recent {
		withVolume[p.Key()] = true
		exclude = append(exclude, p.Key())
	}

	older, err := s.AllReservePairs(ctx, exclude, s.opts.ListSize, 0)
	if err != nil {
		return nil, err
	}
	pairs := append(recent, older...)

	assets := make([]string, 0, 2*len(pairs))
	for _, p := range pairs {
		assets = append(assets, p.Pair.Base, p.Pair.Quote)
	}
	supplies, err := s.AssetsSupply(ctx, assets)
	if err != nil {
		return nil, err
	}
	withImage, err := s.assetsWithImage(ctx, uniqueAssets(assets))
	if err != nil {
		return nil, err
	}

	primary := s.opts.Reserves.PrimaryPairKey()
	markets = make([]domain.Market, 0, len(pairs))
	for _, p := range pairs {
		mv, err := s.PriceMovement(ctx, p.Pair, supplies)
		if err != nil {
			return nil, err
		}
		sup, err := supplyOf(supplies, p.Pair.Base)
		if err != nil {
			return nil, err
		}

		m := domain.Market{
			BaseAsset:   p.Pair.Base,
			QuoteAsset:  p.Pair.Quote,
			Price:       pricemath.FixedFloat(mv.Price, pricemath.PricePlaces),
			Trend:       mv.Trend,
			Progression: pricemath.Fixed(mv.Progression, pricemath.PercentPlaces),
			Price24h:    pricemath.FixedFloat(mv.Price24h, pricemath.PricePlaces),
			Supply:      sup.Amount,
			Divisible:   sup.Divisible,
			WithImage:   withImage[p.Pair.Base],
		}
		if withVolume[p.Key()] {
			m.Volume = p.QuoteQuantity
		}
		m.MarketCap = s.math.MarketCap(m.Supply, m.Price)

		if p.Key() == primary {
			markets = append([]domain.Market{m}, markets...)
		} else {
			markets = append(markets, m)
		}
	}

	for i := range markets {
		markets[i].Pos = i + 1
	}
	s.logger.Debug("market list built", zap.Int("markets", len(markets)))
	return markets, nil
}

// MarketDetails returns the full view of the market formed by asset1 and
// asset2: price movement, public order book, last trades and the base asset
// metadata when a store is configured.
func (s *Service) MarketDetails(ctx context.Context, asset1, asset2 string) (detail *domain.MarketDetail, err error) {
	start := time.Now()
	defer func() { s.track("market_details", start, err) }()

	pair := s.opts.Reserves.AssetsToPair(asset1, asset2)
	supplies, err := s.AssetsSupply(ctx, []string{pair.Base, pair.Quote})
	if err != nil {
		return nil, err
	}
	base, err := supplyOf(supplies, pair.Base)
	if err != nil {
		return nil, err
	}
	quote, err := supplyOf(supplies, pair.Quote)
	if err != nil {
		return nil, err
	}

	mv, err := s.PriceMovement(ctx, pair, supplies)
	if err != nil {
		return nil, err
	}
	book, err := s.MarketOrders(ctx, pair.Base, pair.Quote, nil, supplies)
	if err != nil {
		return nil, err
	}
	buy, sell := SplitBook(book)

	trades, err := s.MarketTrades(ctx, pair.Base, pair.Quote, nil, s.opts.TradeLimit, supplies)
	if err != nil {
		return nil, err
	}

	infos, err := s.assetInfo(ctx, pair.Base)
	if err != nil {
		return nil, err
	}

	return &domain.MarketDetail{
		BaseAsset:           pair.Base,
		QuoteAsset:          pair.Quote,
		Price:               pricemath.FixedFloat(mv.Price, pricemath.PricePlaces),
		Trend:               mv.Trend,
		Progression:         pricemath.Fixed(mv.Progression, pricemath.PercentPlaces),
		Price24h:            pricemath.FixedFloat(mv.Price24h, pricemath.PricePlaces),
		Supply:              base.Amount,
		BaseAssetDivisible:  base.Divisible,
		QuoteAssetDivisible: quote.Divisible,
		BuyOrders:           buy,
		SellOrders:          sell,
		LastTrades:          trades,
		BaseAssetInfos:      infos,
	}, nil
}

// assetsWithImage returns the assets whose metadata carries a valid image.
func (s *Service) assetsWithImage(ctx context.Context, assets []string) (map[string]bool, error) {
	withImage := make(map[string]bool)
	if s.assets == nil || len(assets) == 0 {
		return withImage, nil
	}
	infos, err := s.assets.FindAssets(ctx, assets)
	if err != nil {
		return nil, fmt.Errorf("%w: asset metadata: %w", ErrDataSourceUnavailable, err)
	}
	for _, info := range infos {
		if info.HasValidImage() {
			withImage[info.Asset] = true
		}
	}
	return withImage, nil
}

// assetInfo returns the metadata blob of asset, or nil when no store is
// configured or the asset is unknown.
func (s *Service) assetInfo(ctx context.Context, asset string) (map[string]any, error) {
	if s.assets == nil {
		return nil, nil
	}
	info, err := s.assets.GetByAsset(ctx, asset)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: asset metadata: %w", ErrDataSourceUnavailable, err)
	}
	return info.InfoData, nil
}
