package enums

// OutboxEventType names the domain events written to outbox_events.
type OutboxEventType string

const (
	EventReferralCodeIssued OutboxEventType = "referral_code_issued"
	EventReferralRecorded   OutboxEventType = "referral_recorded"
)

// String implements fmt.Stringer.
func (e OutboxEventType) String() string {
	return string(e)
}

// IsValid reports whether the value is a known OutboxEventType.
func (e OutboxEventType) IsValid() bool {
	switch e {
	case EventReferralCodeIssued, EventReferralRecorded:
		return true
	default:
		return false
	}
}

// OutboxAggregateType identifies the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateReferralCode OutboxAggregateType = "referral_code"
	AggregateReferral     OutboxAggregateType = "referral"
)

// String implements fmt.Stringer.
func (a OutboxAggregateType) String() string {
	return string(a)
}

// IsValid reports whether the value is a known OutboxAggregateType.
func (a OutboxAggregateType) IsValid() bool {
	switch a {
	case AggregateReferralCode, AggregateReferral:
		return true
	default:
		return false
	}
}
