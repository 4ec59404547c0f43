package types

// lifecycleTransitions applies to tenants and organizations.
var lifecycleTransitions = map[Status][]Status{
	StatusActive:   {StatusInactive, StatusDeleted},
	StatusInactive: {StatusActive, StatusDeleted},
}

// userTransitions additionally allows suspending active users.
var userTransitions = map[Status][]Status{
	StatusActive:    {StatusInactive, StatusSuspended, StatusDeleted},
	StatusInactive:  {StatusActive, StatusDeleted},
	StatusSuspended: {StatusActive, StatusDeleted},
}

// subscriptionTransitions applies to tenant service subscriptions, which are
// never deleted.
var subscriptionTransitions = map[Status][]Status{
	StatusActive:    {StatusInactive, StatusSuspended},
	StatusInactive:  {StatusActive},
	StatusSuspended: {StatusActive, StatusInactive},
}

// CanTransition reports whether a tenant or organization may move from s to next.
func (s Status) CanTransition(next Status) bool {
	return allowed(lifecycleTransitions, s, next)
}

// CanUserTransition reports whether a user may move from s to next.
func (s Status) CanUserTransition(next Status) bool {
	return allowed(userTransitions, s, next)
}

// CanSubscriptionTransition reports whether a subscription may move from s to next.
func (s Status) CanSubscriptionTransition(next Status) bool {
	return allowed(subscriptionTransitions, s, next)
}

func allowed(table map[Status][]Status, from, to Status) bool {
	for _, s := range table[from] {
		if s == to {
			return true
		}
	}
	return false
}
