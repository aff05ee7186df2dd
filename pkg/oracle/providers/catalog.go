package providers

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Doot-Foundation/doot-oracle/pkg/oracle/token"
)

// tickers are the exchange base tickers for every supported token. Most
// exchanges derive their pair symbol from these with a join pattern.
var tickers = map[token.Token]string{
	token.Mina:      "MINA",
	token.Bitcoin:   "BTC",
	token.Ethereum:  "ETH",
	token.Solana:    "SOL",
	token.Ripple:    "XRP",
	token.Cardano:   "ADA",
	token.Avalanche: "AVAX",
	token.Polygon:   "POL",
	token.Chainlink: "LINK",
	token.Dogecoin:  "DOGE",
}

// pairSymbols builds an exchange symbol table by joining the base ticker and
// quote with a separator, e.g. ("-", "USDT") -> "MINA-USDT".
func pairSymbols(sep, quote string) map[token.Token]string {
	out := make(map[token.Token]string, len(tickers))
	for t, base := range tickers {
		out[t] = base + sep + quote
	}
	return out
}

// lowerPairSymbols is pairSymbols with the whole symbol lowercased.
func lowerPairSymbols(sep, quote string) map[token.Token]string {
	out := pairSymbols(sep, quote)
	for t, s := range out {
		out[t] = strings.ToLower(s)
	}
	return out
}

// defaultCatalog returns the fixed provider set. URL templates and response
// paths follow each provider's public REST API.
func defaultCatalog() []Provider {
	return []Provider{
		{
			Name:        "binance",
			URLTemplate: "https://api.binance.com/api/v3/ticker/price?symbol={id}",
			PricePath:   "price",
			Symbols:     pairSymbols("", "USDT"),
		},
		{
			Name:        "coingecko",
			URLTemplate: "https://api.coingecko.com/api/v3/simple/price?ids={id}&vs_currencies=usd",
			PricePath:   "{id}.usd",
			Symbols: map[token.Token]string{
				token.Mina:      "mina-protocol",
				token.Bitcoin:   "bitcoin",
				token.Ethereum:  "ethereum",
				token.Solana:    "solana",
				token.Ripple:    "ripple",
				token.Cardano:   "cardano",
				token.Avalanche: "avalanche-2",
				token.Polygon:   "polygon-ecosystem-token",
				token.Chainlink: "chainlink",
				token.Dogecoin:  "dogecoin",
			},
		},
		{
			Name:        "cryptocompare",
			URLTemplate: "https://min-api.cryptocompare.com/data/price?fsym={id}&tsyms=USD",
			PricePath:   "USD",
			Auth:        Auth{Kind: AuthHeader, Header: "authorization"},
			Symbols:     pairSymbols("", ""),
		},
		{
			Name:        "coinapi",
			URLTemplate: "https://rest.coinapi.io/v1/exchangerate/{id}/USD",
			PricePath:   "rate",
			Auth:        Auth{Kind: AuthHeader, Header: "X-CoinAPI-Key"},
			Symbols:     pairSymbols("", ""),
		},
		{
			Name:        "coinpaprika",
			URLTemplate: "https://api.coinpaprika.com/v1/tickers/{id}",
			PricePath:   "quotes.USD.price",
			Symbols: map[token.Token]string{
				token.Mina:      "mina-mina-protocol",
				token.Bitcoin:   "btc-bitcoin",
				token.Ethereum:  "eth-ethereum",
				token.Solana:    "sol-solana",
				token.Ripple:    "xrp-xrp",
				token.Cardano:   "ada-cardano",
				token.Avalanche: "avax-avalanche",
				token.Polygon:   "pol-polygon-ecosystem-token",
				token.Chainlink: "link-chainlink",
				token.Dogecoin:  "doge-dogecoin",
			},
		},
		{
			Name:        "messari",
			URLTemplate: "https://data.messari.io/api/v1/assets/{id}/metrics/market-data",
			PricePath:   "data.market_data.price_usd",
			Auth:        Auth{Kind: AuthHeader, Header: "x-messari-api-key"},
			Symbols: map[token.Token]string{
				token.Mina:      "mina",
				token.Bitcoin:   "bitcoin",
				token.Ethereum:  "ethereum",
				token.Solana:    "solana",
				token.Ripple:    "xrp",
				token.Cardano:   "cardano",
				token.Avalanche: "avalanche",
				token.Polygon:   "polygon",
				token.Chainlink: "chainlink",
				token.Dogecoin:  "dogecoin",
			},
		},
		{
			Name:        "coincap",
			URLTemplate: "https://api.coincap.io/v2/assets/{id}",
			PricePath:   "data.priceUsd",
			Auth:        Auth{Kind: AuthBearer},
			Symbols: map[token.Token]string{
				token.Mina:      "mina",
				token.Bitcoin:   "bitcoin",
				token.Ethereum:  "ethereum",
				token.Solana:    "solana",
				token.Ripple:    "xrp",
				token.Cardano:   "cardano",
				token.Avalanche: "avalanche",
				token.Polygon:   "polygon",
				token.Chainlink: "chainlink",
				token.Dogecoin:  "dogecoin",
			},
		},
		{
			Name:        "coinlore",
			URLTemplate: "https://api.coinlore.net/api/ticker/?id={id}",
			PricePath:   "0.price_usd",
			Symbols: map[token.Token]string{
				token.Mina:      "62645",
				token.Bitcoin:   "90",
				token.Ethereum:  "80",
				token.Solana:    "48543",
				token.Ripple:    "58",
				token.Cardano:   "257",
				token.Avalanche: "44883",
				token.Polygon:   "33536",
				token.Chainlink: "2751",
				token.Dogecoin:  "2",
			},
		},
		{
			// CoinCodex reports prices pre-scaled by 1000; the divisor
			// normalizes them back to units at the registry boundary.
			Name:         "coincodex",
			URLTemplate:  "https://coincodex.com/api/coincodex/get_coin/{id}",
			PricePath:    "last_price_usd",
			ScaleDivisor: decimal.NewFromInt(1000),
			Symbols:      pairSymbols("", ""),
		},
		{
			Name:        "coinranking",
			URLTemplate: "https://api.coinranking.com/v2/coin/{id}/price",
			PricePath:   "data.price",
			Auth:        Auth{Kind: AuthHeader, Header: "x-access-token"},
			Symbols: map[token.Token]string{
				token.Mina:      "Cn1zUI3BE",
				token.Bitcoin:   "Qwsogvtv82FCd",
				token.Ethereum:  "razxDUgYGNAdQ",
				token.Solana:    "zNZHO_Sjf",
				token.Ripple:    "-l8Mn2pVlRs-p",
				token.Cardano:   "qzawljRjmhKe",
				token.Avalanche: "dvUj0CzDZ",
				token.Polygon:   "uW2tk-ILY0ii",
				token.Chainlink: "VLqpJwogdhHNb",
				token.Dogecoin:  "a91GCGd_u96cF",
			},
		},
		{
			Name:        "coinmarketcap",
			URLTemplate: "https://pro-api.coinmarketcap.com/v2/cryptocurrency/quotes/latest?id={id}",
			PricePath:   "data.{id}.quote.USD.price",
			Auth:        Auth{Kind: AuthHeader, Header: "X-CMC_PRO_API_KEY"},
			Symbols: map[token.Token]string{
				token.Mina:      "8646",
				token.Bitcoin:   "1",
				token.Ethereum:  "1027",
				token.Solana:    "5426",
				token.Ripple:    "52",
				token.Cardano:   "2010",
				token.Avalanche: "5805",
				token.Polygon:   "28321",
				token.Chainlink: "1975",
				token.Dogecoin:  "74",
			},
		},
		{
			Name:        "kucoin",
			URLTemplate: "https://api.kucoin.com/api/v1/market/orderbook/level1?symbol={id}",
			PricePath:   "data.price",
			Symbols:     pairSymbols("-", "USDT"),
		},
		{
			Name:        "huobi",
			URLTemplate: "https://api.huobi.pro/market/trade?symbol={id}",
			PricePath:   "tick.data.0.price",
			Symbols:     lowerPairSymbols("", "usdt"),
		},
		{
			Name:        "bybit",
			URLTemplate: "https://api.bybit.com/v5/market/tickers?category=spot&symbol={id}",
			PricePath:   "result.list.0.lastPrice",
			Symbols:     pairSymbols("", "USDT"),
		},
		{
			Name:        "okx",
			URLTemplate: "https://www.okx.com/api/v5/market/ticker?instId={id}",
			PricePath:   "data.0.last",
			Symbols:     pairSymbols("-", "USDT"),
		},
		{
			Name:        "gateio",
			URLTemplate: "https://api.gateio.ws/api/v4/spot/tickers?currency_pair={id}",
			PricePath:   "0.last",
			Symbols:     pairSymbols("_", "USDT"),
		},
		{
			Name:        "poloniex",
			URLTemplate: "https://api.poloniex.com/markets/{id}/price",
			PricePath:   "price",
			Symbols:     pairSymbols("_", "USDT"),
		},
		{
			Name:        "mexc",
			URLTemplate: "https://api.mexc.com/api/v3/ticker/price?symbol={id}",
			PricePath:   "price",
			Symbols:     pairSymbols("", "USDT"),
		},
		{
			Name:        "btse",
			URLTemplate: "https://api.btse.com/spot/api/v3.2/price?symbol={id}",
			PricePath:   "0.lastPrice",
			Symbols:     pairSymbols("-", "USDT"),
		},
	}
}
