package redisx

import "time"

const (
	// Menu list cache: menu:list -> JSON array of menu items
	KeyMenuList = "menu:list"

	// Menu item cache: menu:item:{id} -> JSON menu item
	KeyMenuItem = "menu:item:%s"

	// Dedup relayed change events: dedup:{service}:{id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLMenuCache = 5 * time.Minute
	TTLDedup     = 48 * time.Hour
)
