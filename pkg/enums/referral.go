package enums

import "fmt"

// ReferralStatus tracks where a referral sits in the reward workflow.
type ReferralStatus string

const (
	ReferralStatusPending   ReferralStatus = "pending"
	ReferralStatusQualified ReferralStatus = "qualified"
	ReferralStatusRewarded  ReferralStatus = "rewarded"
)

var validReferralStatuses = []ReferralStatus{
	ReferralStatusPending,
	ReferralStatusQualified,
	ReferralStatusRewarded,
}

// String implements fmt.Stringer.
func (s ReferralStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ReferralStatus.
func (s ReferralStatus) IsValid() bool {
	for _, candidate := range validReferralStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseReferralStatus converts raw input into a ReferralStatus.
func ParseReferralStatus(value string) (ReferralStatus, error) {
	for _, candidate := range validReferralStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid referral status %q", value)
}

// QualificationType classifies the action that produced a referral.
type QualificationType string

const (
	QualificationTypeSignup QualificationType = "signup"
)

// String implements fmt.Stringer.
func (q QualificationType) String() string {
	return string(q)
}

// IsValid reports whether the value is a known QualificationType.
func (q QualificationType) IsValid() bool {
	return q == QualificationTypeSignup
}
