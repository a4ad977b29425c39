package redisx

import "time"

const (
	// Shared catalog cache: skips:catalog:{postcode}:{area} -> {"fetched_at": "...", "skips": [...]}
	KeyCatalog = "skips:catalog:%s:%s"

	// Persisted selection slot: selection:{namespace} -> {"version":0,"selected_skip":{...}}
	KeySelection = "selection:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLDedup = 48 * time.Hour
	// selection survives reloads; refreshed on every write
	TTLSelection = 30 * 24 * time.Hour
)
