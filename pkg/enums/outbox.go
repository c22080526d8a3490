package enums

// OutboxAggregateType is outbox_events.aggregate_type.
type OutboxAggregateType string

const (
	AggregateBooking         OutboxAggregateType = "booking"
	AggregateBillingSnapshot OutboxAggregateType = "billing_snapshot"
)

var aggregateTypes = set[OutboxAggregateType]{AggregateBooking, AggregateBillingSnapshot}

func (a OutboxAggregateType) IsValid() bool { return aggregateTypes.has(a) }

func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	return aggregateTypes.parse("aggregate type", value)
}

// OutboxEventType is outbox_events.event_type and the event_type message
// attribute.
type OutboxEventType string

const (
	EventBookingFinalized           OutboxEventType = "booking_finalized"
	EventBillingPlanSuperseded      OutboxEventType = "billing_plan_superseded"
	EventAgreementRetryRequested    OutboxEventType = "agreement_retry_requested"
	EventNotificationRetryRequested OutboxEventType = "notification_retry_requested"
)

var eventTypes = set[OutboxEventType]{
	EventBookingFinalized,
	EventBillingPlanSuperseded,
	EventAgreementRetryRequested,
	EventNotificationRetryRequested,
}

func (e OutboxEventType) IsValid() bool { return eventTypes.has(e) }

func ParseOutboxEventType(value string) (OutboxEventType, error) {
	return eventTypes.parse("event type", value)
}

// OutboxDLQErrorReason explains why a row was dead-lettered.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
	OutboxDLQReasonDecode       OutboxDLQErrorReason = "decode_failed"
)

var dlqReasons = set[OutboxDLQErrorReason]{OutboxDLQReasonMaxAttempts, OutboxDLQReasonNonRetryable, OutboxDLQReasonDecode}

func (r OutboxDLQErrorReason) IsValid() bool { return dlqReasons.has(r) }
