package entity

// All returns every persisted model, in migration order.
func All() []any {
	return []any{
		&User{},
		&Event{},
		&EventAttendee{},
		&Connection{},
		&EventInvitation{},
		&InviteeHistory{},
		&EngagementLog{},
		&Notification{},
		&PushSubscription{},
	}
}
