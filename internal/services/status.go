package services

import (
	"strings"

	"github.com/jewelpalace/storefront/internal/models"
)

// Statuses lists the order lifecycle in display order
var Statuses = []models.OrderStatus{
	models.StatusPending,
	models.StatusPacked,
	models.StatusShipped,
	models.StatusOutForDelivery,
	models.StatusDelivered,
	models.StatusCancelled,
}

var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.StatusPending:        {models.StatusPacked, models.StatusCancelled},
	models.StatusPacked:         {models.StatusShipped, models.StatusCancelled},
	models.StatusShipped:        {models.StatusOutForDelivery, models.StatusCancelled},
	models.StatusOutForDelivery: {models.StatusDelivered, models.StatusCancelled},
	models.StatusDelivered:      nil,
	models.StatusCancelled:      nil,
}

// ParseStatus matches a label case-insensitively against the known statuses
func ParseStatus(label string) (models.OrderStatus, bool) {
	label = strings.TrimSpace(label)
	for _, s := range Statuses {
		if strings.EqualFold(string(s), label) {
			return s, true
		}
	}
	return "", false
}

// IsTerminal reports whether no further moves are allowed from s
func IsTerminal(s models.OrderStatus) bool {
	next, known := transitions[s]
	return known && len(next) == 0
}

// CanTransition reports whether an order may move from one status to another.
// Keeping the current status is always allowed so tracking can be amended.
// Orders holding a label outside the lifecycle may move to any status.
func CanTransition(from, to models.OrderStatus) bool {
	if from == to {
		return true
	}
	next, known := transitions[from]
	if !known {
		return true
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}
