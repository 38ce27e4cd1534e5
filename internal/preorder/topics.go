package preorder

const (
	TopicMenuChanged  = "preorder.menu.changed"
	TopicCartChanged  = "preorder.cart.changed"
	TopicOrderChanged = "preorder.order.changed"
)

// Partition key = row identity, so every change to one row keeps its order.
func PartitionKey(id string) []byte { return []byte(id) }
