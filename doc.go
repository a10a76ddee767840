// Package tracker provides the core engine of a personal investment tracker.
// It is designed to be local-first and auditable: every mutation of the
// portfolio is validated first and recorded in an append-only transaction
// log per symbol.
//
// The core functionalities include:
//   - Tabular Import: Parsing holdings pasted from arbitrary broker or
//     spreadsheet exports, with separator and column auto-detection and
//     tolerant numeric parsing (US and European conventions).
//   - Identifier Resolution: Mapping ISINs and unresolved codes to tradable
//     ticker symbols through a tiered fallback chain (local registry, market
//     data providers, and an AI-assisted batch lookup), with explicit
//     disambiguation when several listings match.
//   - Price Fetching: Retrieving current quotes through a tiered provider
//     chain with rate-limit-aware sequential orchestration and an
//     alternative-symbol search for instruments listed under regional
//     suffixes or conventional tickers.
//   - Position Ledger: Maintaining positions with weighted-average cost
//     basis, realized gain/loss on sales, and an immutable transaction
//     history per symbol.
//   - Snapshots: Deriving immutable point-in-time portfolio totals and
//     reconciling snapshot series from multiple storage backends.
//
// This package serves as the foundational logic for the `ait` command-line
// tool, ensuring that all operations are consistent and based on a single
// source of truth.
package tracker
