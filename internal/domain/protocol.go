package domain

// RawProtocol is one protocol row as exported by the collection stage,
// before cleaning. TVL is the chain-allocated amount in USD.
type RawProtocol struct {
	Name     string
	Slug     string
	Category string  // raw upstream category, may be empty or unrecognized
	TVL      float64 // allocated TVL in USD
	Change1d float64 // 1-day TVL change, percent
	Change7d float64 // 7-day TVL change, percent
	Change30 float64 // 30-day TVL change, percent
}

// ProtocolRecord is one DeFi protocol's cleaned snapshot.
// Immutable once produced by the cleaning stage.
// Corresponds to protocol_records table in PostgreSQL.
type ProtocolRecord struct {
	Slug        string    // stable identifier
	Name        string    // display name
	Ecosystem   Ecosystem // Sui | Aptos
	Category    Category  // normalized category
	TVL         float64   // USD, > 0 after cleaning
	Change1d    float64
	Change7d    float64
	Change30    float64
	GrowthScore float64 // 0.5*Change7d + 0.3*Change30 + 0.2*Change1d
	TVLRank     int     // dense rank by TVL desc within ecosystem, 1-based
	GrowthRank  int     // dense rank by GrowthScore desc within ecosystem, 1-based
	Outlier     bool    // TVL above the 99th percentile of the ecosystem
	RunDate     string  // YYYYMMDD snapshot key
}

// Category is a normalized protocol category.
type Category string

const (
	CategoryDEX           Category = "DEX"
	CategoryLending       Category = "Lending"
	CategoryDerivatives   Category = "Derivatives"
	CategoryYieldFarming  Category = "Yield Farming"
	CategoryLiquidStaking Category = "Liquid Staking"
	CategoryBridge        Category = "Bridge"
	CategoryLaunchpad     Category = "Launchpad"
	CategoryGaming        Category = "Gaming"
	CategoryNFT           Category = "NFT"
	CategoryInsurance     Category = "Insurance"
	CategoryRWA           Category = "RWA"
	CategoryOther         Category = "Other"
)

// categoryMapping maps raw upstream categories to normalized ones.
var categoryMapping = map[string]Category{
	"Dexes":          CategoryDEX,
	"Dexs":           CategoryDEX,
	"DEX":            CategoryDEX,
	"Lending":        CategoryLending,
	"Derivatives":    CategoryDerivatives,
	"Yield":          CategoryYieldFarming,
	"Yield Farming":  CategoryYieldFarming,
	"Liquid Staking": CategoryLiquidStaking,
	"Bridge":         CategoryBridge,
	"Launchpad":      CategoryLaunchpad,
	"Gaming":         CategoryGaming,
	"NFT":            CategoryNFT,
	"Insurance":      CategoryInsurance,
	"RWA":            CategoryRWA,
}

// NormalizeCategory maps a raw category string to a normalized Category.
// Unrecognized or empty categories map to CategoryOther so no record
// is ever dropped for lack of a category.
func NormalizeCategory(raw string) Category {
	if c, ok := categoryMapping[raw]; ok {
		return c
	}
	return CategoryOther
}
