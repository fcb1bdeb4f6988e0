// Package datapoint keeps the catalog of named datapoints the service
// decodes: each maps a stable name to an address token, and KNX datapoints
// also to the group address their telegrams arrive on.
//
// # Architecture
//
//	┌──────────────┐     ┌──────────────────┐     ┌──────────────┐
//	│   Registry   │────▶│ SQLiteRepository │────▶│   SQLite     │
//	│ cache, index │     │  datapoints table│     │  (migrated)  │
//	└──────────────┘     └──────────────────┘     └──────────────┘
//	       ▲
//	       │ Seed / Import
//	┌──────┴───────────────────────┐
//	│ YAML seed file │ ETS export  │
//	└──────────────────────────────┘
//
// Tokens are validated through plc.Resolve before they are stored, so every
// catalog entry is known to resolve to a codec descriptor.
//
// # Thread Safety
//
// Registry methods are safe for concurrent use. Returned Datapoint values
// are copies.
package datapoint
