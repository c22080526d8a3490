package enums

// BookingStatus tracks a booking from checkout to a finalized contract.
type BookingStatus string

const (
	BookingStatusPendingPayment BookingStatus = "pending_payment"
	BookingStatusFinalized      BookingStatus = "finalized"
)

var bookingStatuses = set[BookingStatus]{BookingStatusPendingPayment, BookingStatusFinalized}

func (b BookingStatus) String() string { return string(b) }
func (b BookingStatus) IsValid() bool  { return bookingStatuses.has(b) }

func ParseBookingStatus(value string) (BookingStatus, error) {
	return bookingStatuses.parse("booking status", value)
}

// FinalizationState is the lifecycle of one finalization run.
type FinalizationState string

const (
	FinalizationStateNotStarted FinalizationState = "not_started"
	FinalizationStateRunning    FinalizationState = "running"
	FinalizationStateFinalized  FinalizationState = "finalized"
)

var finalizationStates = set[FinalizationState]{
	FinalizationStateNotStarted,
	FinalizationStateRunning,
	FinalizationStateFinalized,
}

func (f FinalizationState) String() string { return string(f) }
func (f FinalizationState) IsValid() bool  { return finalizationStates.has(f) }

func ParseFinalizationState(value string) (FinalizationState, error) {
	return finalizationStates.parse("finalization state", value)
}

// FinalizationStep names a collaborator call made once the plan is built.
type FinalizationStep string

const (
	FinalizationStepAgreement    FinalizationStep = "agreement"
	FinalizationStepPersistence  FinalizationStep = "persistence"
	FinalizationStepNotification FinalizationStep = "notification"
)

var finalizationSteps = set[FinalizationStep]{
	FinalizationStepAgreement,
	FinalizationStepPersistence,
	FinalizationStepNotification,
}

func (f FinalizationStep) String() string { return string(f) }
func (f FinalizationStep) IsValid() bool  { return finalizationSteps.has(f) }

func ParseFinalizationStep(value string) (FinalizationStep, error) {
	return finalizationSteps.parse("finalization step", value)
}
