package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PulsesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "celia",
		Name:      "pulses_total",
		Help:      "Energy pulses processed, by resulting connection status.",
	}, []string{"status"})

	ConnectionsActivated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "celia",
		Name:      "connections_activated_total",
		Help:      "Connections that became mutual.",
	})

	InvitationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "celia",
		Name:      "invitations_created_total",
		Help:      "Event invitations written by bulk invites.",
	})

	InvitationsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "celia",
		Name:      "invitations_skipped_total",
		Help:      "Bulk invite targets skipped because they were already invited.",
	})

	EngagementPoints = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "celia",
		Name:      "engagement_points_total",
		Help:      "Engagement points awarded, by action.",
	}, []string{"action"})

	NotificationsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "celia",
		Name:      "notifications_dropped_total",
		Help:      "Notifications dropped because the dispatch queue was full.",
	})

	NotificationDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "celia",
		Name:      "notification_deliveries_total",
		Help:      "Notification delivery attempts, by channel and outcome.",
	}, []string{"channel", "outcome"})

	PendingPulsesSwept = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "celia",
		Name:      "pending_pulses_swept_total",
		Help:      "Expired pending connection rows removed by the sweeper.",
	})
)
