package store

import "github.com/MisterBo-ops/Gestionfil/internal/models"

// cancel is reserved in the data model; no endpoint drives it yet.
var transitionMap = map[string][]string{
	"call":     {models.StatusWaiting},
	"complete": {models.StatusInService},
	"cancel":   {models.StatusWaiting},
}

func ValidTransition(action, fromStatus string) bool {
	allowed, ok := transitionMap[action]
	if !ok {
		return false
	}
	for _, status := range allowed {
		if status == fromStatus {
			return true
		}
	}
	return false
}
