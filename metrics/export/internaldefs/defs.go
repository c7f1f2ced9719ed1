package internaldefs

import (
	goAccount "github.com/MrEthical07/goAccount"
)

// CounterDef names one engine counter.
type CounterDef struct {
	ID   goAccount.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram.
type HistogramDef struct {
	ID   goAccount.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in output order.
var CounterDefs = []CounterDef{
	{ID: goAccount.MetricLoginSuccess, Name: "goaccount_login_success_total", Help: "Successful logins."},
	{ID: goAccount.MetricLoginFailure, Name: "goaccount_login_failure_total", Help: "Logins rejected for bad credentials."},
	{ID: goAccount.MetricLoginUnconfirmed, Name: "goaccount_login_unconfirmed_total", Help: "Logins rejected because the account is not confirmed or has no password."},
	{ID: goAccount.MetricRegistrationStarted, Name: "goaccount_registration_started_total", Help: "New pending accounts created by registration."},
	{ID: goAccount.MetricRegistrationResent, Name: "goaccount_registration_resent_total", Help: "Confirmation tokens reissued to pending accounts."},
	{ID: goAccount.MetricRegistrationDuplicate, Name: "goaccount_registration_duplicate_total", Help: "Registrations rejected because the email is taken."},
	{ID: goAccount.MetricRegistrationConfirmed, Name: "goaccount_registration_confirmed_total", Help: "Accounts activated by confirmation."},
	{ID: goAccount.MetricRegistrationConfirmFailure, Name: "goaccount_registration_confirm_failure_total", Help: "Rejected confirmation attempts."},
	{ID: goAccount.MetricPasswordResetRequest, Name: "goaccount_password_reset_request_total", Help: "Forgot-password requests."},
	{ID: goAccount.MetricPasswordResetIssued, Name: "goaccount_password_reset_issued_total", Help: "Reset tokens issued."},
	{ID: goAccount.MetricPasswordResetSuccess, Name: "goaccount_password_reset_success_total", Help: "Completed password resets."},
	{ID: goAccount.MetricPasswordResetFailure, Name: "goaccount_password_reset_failure_total", Help: "Rejected password reset attempts."},
	{ID: goAccount.MetricAccountCreated, Name: "goaccount_account_created_total", Help: "Accounts created by administrators."},
	{ID: goAccount.MetricRoleAssigned, Name: "goaccount_role_assigned_total", Help: "Roles added to accounts."},
	{ID: goAccount.MetricTokenIssueConflict, Name: "goaccount_token_issue_conflict_total", Help: "Token writes that lost a version race and were retried."},
	{ID: goAccount.MetricNotificationFailure, Name: "goaccount_notification_failure_total", Help: "Notifier calls that returned an error."},
	{ID: goAccount.MetricPasswordUpgraded, Name: "goaccount_password_upgraded_total", Help: "Stored password digests rehashed on login."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goAccount.MetricHashLatency, Name: "goaccount_hash_latency_seconds", Help: "Password hash and verify latency."},
}

// AuditDroppedName is the counter for audit events lost to backpressure.
const (
	AuditDroppedName = "goaccount_audit_dropped_total"
	AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
)

// BucketCount is the number of histogram buckets including +Inf.
const BucketCount = len(goAccount.HashLatencyBounds) + 1

// HistogramBounds are the upper bounds in seconds, without +Inf.
func HistogramBounds() []float64 {
	out := make([]float64, len(goAccount.HashLatencyBounds))
	for i, d := range goAccount.HashLatencyBounds {
		out[i] = d.Seconds()
	}
	return out
}

// HistogramBoundSuffix names each bucket for exporters without native
// histogram support.
var HistogramBoundSuffix = [BucketCount]string{
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"1",
	"inf",
}

// NormalizeBuckets pads or truncates raw to BucketCount entries.
func NormalizeBuckets(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	copy(out[:], raw)
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [BucketCount]uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
