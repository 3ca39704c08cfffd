package domain

// Limits holds the numeric quotas applied to an account tier.
type Limits struct {
	MaxParticipants  int `json:"max_participants"`
	MaxRegistrations int `json:"max_registrations"`
	MaxFavorites     int `json:"max_favorites"`
	MaxActiveEvents  int `json:"max_active_events"`
}

// LimitsPolicy maps an account role to its quotas. It is plain injected
// configuration with no side effects; callers never branch on the role
// themselves.
type LimitsPolicy struct {
	Free    Limits
	Premium Limits
}

// DefaultLimitsPolicy returns the stock quota table.
func DefaultLimitsPolicy() LimitsPolicy {
	return LimitsPolicy{
		Free: Limits{
			MaxParticipants:  20,
			MaxRegistrations: 10,
			MaxFavorites:     10,
			MaxActiveEvents:  3,
		},
		Premium: Limits{
			MaxParticipants:  100,
			MaxRegistrations: 50,
			MaxFavorites:     100,
			MaxActiveEvents:  20,
		},
	}
}

// ForRole returns the quotas for the given role. Admins get the premium
// quotas.
func (p LimitsPolicy) ForRole(role Role) Limits {
	switch role {
	case RolePremium, RoleAdmin:
		return p.Premium
	default:
		return p.Free
	}
}
