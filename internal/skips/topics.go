package skips

const (
	TopicSelectionConfirmed = "skips.selection.confirmed"
	TopicCatalogInvalidated = "skips.catalog.invalidated"
)

// Partition key = session id (confirmations) atau query key (invalidations).
func PartitionKey(id string) []byte { return []byte(id) }
