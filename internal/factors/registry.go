package factors

import "RiskSentinel/internal/model"

// Meta describes a factor independent of its configuration.
type Meta struct {
	Key    string
	Label  string
	Pillar model.Pillar
}

// Catalog lists every factor in display order.
var Catalog = []Meta{
	{Key: "trend_valuation", Label: "Trend & Valuation", Pillar: model.PillarMomentum},
	{Key: "net_liquidity", Label: "Net Liquidity", Pillar: model.PillarLiquidity},
	{Key: "stablecoins", Label: "Stablecoin Supply", Pillar: model.PillarLiquidity},
	{Key: "etf_flows", Label: "ETF Flows", Pillar: model.PillarLiquidity},
	{Key: "term_leverage", Label: "Term Structure & Leverage", Pillar: model.PillarLeverage},
	{Key: "onchain", Label: "On-chain Activity", Pillar: model.PillarMomentum},
	{Key: "social_interest", Label: "Social Interest", Pillar: model.PillarSocial},
	{Key: "macro_overlay", Label: "Macro Overlay", Pillar: model.PillarMacro},
}

// Sources bundles the upstream readers factors depend on.
type Sources struct {
	Fred      SeriesSource
	Charts    ChartSource
	Funding   FundingSource
	ETFPage   PageSource
	Sentiment IndexSource
}

// New returns the factor implementation for key, or nil if key is unknown.
func New(key string, src Sources) Factor {
	switch key {
	case "trend_valuation":
		return Trend{}
	case "net_liquidity":
		return NetLiquidity{Source: src.Fred}
	case "stablecoins":
		return Stablecoins{Source: src.Charts}
	case "etf_flows":
		return ETFFlows{Source: src.ETFPage, Parser: DefaultFlowParser()}
	case "term_leverage":
		return TermLeverage{Source: src.Funding}
	case "onchain":
		return Onchain{Source: src.Charts}
	case "social_interest":
		return SocialInterest{Source: src.Sentiment}
	case "macro_overlay":
		return MacroOverlay{Source: src.Fred}
	}
	return nil
}
