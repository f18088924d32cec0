package ingestion

import (
	"context"

	"sui-aptos-lab/internal/domain"
)

// ProtocolSource provides raw protocol rows for an ecosystem.
type ProtocolSource interface {
	// Protocols returns uncleaned protocol rows with TVL already
	// allocated to the requested chain.
	Protocols(ctx context.Context, eco domain.Ecosystem) ([]domain.RawProtocol, error)
}

// PriceSource provides daily price history for an ecosystem's native token.
type PriceSource interface {
	// History returns raw daily price points covering the trailing
	// number of days. Points may contain gaps or duplicate dates;
	// the cleaning stage enforces ordering and fills gaps.
	History(ctx context.Context, eco domain.Ecosystem, days int) ([]domain.PricePoint, error)
}

// SupplySource provides token supply and valuation data.
type SupplySource interface {
	Supply(ctx context.Context, eco domain.Ecosystem) (*domain.SupplyInfo, error)
}
