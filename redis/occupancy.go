package redis

import (
	"encoding/json"
	"fmt"
	"time"
)

// The occupied-slot sets handed out with availability listings are cached
// briefly per window. The durable store stays authoritative: reservation
// creation always re-derives occupancy inside its transaction, so a stale
// cache entry can at worst show a slot that will 409 on booking.

const occupancyTTL = 2 * time.Minute

func occupancyKey(availabilityID uint) string {
	return fmt.Sprintf("availability:%d:occupied", availabilityID)
}

// GetOccupiedSlots returns the cached occupied set for a window, if present.
func GetOccupiedSlots(availabilityID uint) ([]time.Time, bool) {
	if Client == nil {
		return nil, false
	}
	raw, err := Client.Get(Ctx, occupancyKey(availabilityID)).Bytes()
	if err != nil {
		return nil, false
	}
	var slots []time.Time
	if err := json.Unmarshal(raw, &slots); err != nil {
		return nil, false
	}
	return slots, true
}

// SetOccupiedSlots caches the occupied set for a window.
func SetOccupiedSlots(availabilityID uint, slots []time.Time) {
	if Client == nil {
		return
	}
	raw, err := json.Marshal(slots)
	if err != nil {
		return
	}
	Client.Set(Ctx, occupancyKey(availabilityID), raw, occupancyTTL)
}

// InvalidateOccupiedSlots drops the cached set after any reservation state
// change touching the window.
func InvalidateOccupiedSlots(availabilityID uint) {
	if Client == nil {
		return
	}
	Client.Del(Ctx, occupancyKey(availabilityID))
}
