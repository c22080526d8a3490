package enums

// PaymentStrategy is either one full charge or a deposit followed by monthly
// installments.
type PaymentStrategy string

const (
	PaymentStrategyPayInFull          PaymentStrategy = "pay_in_full"
	PaymentStrategyDepositThenMonthly PaymentStrategy = "deposit_then_monthly"
)

var paymentStrategies = set[PaymentStrategy]{PaymentStrategyPayInFull, PaymentStrategyDepositThenMonthly}

func (p PaymentStrategy) String() string { return string(p) }
func (p PaymentStrategy) IsValid() bool  { return paymentStrategies.has(p) }

func ParsePaymentStrategy(value string) (PaymentStrategy, error) {
	return paymentStrategies.parse("payment strategy", value)
}

// PlanStatus says whether installments remain to be collected.
type PlanStatus string

const (
	PlanStatusComplete PlanStatus = "complete"
	PlanStatusActive   PlanStatus = "active"
)

var planStatuses = set[PlanStatus]{PlanStatusComplete, PlanStatusActive}

func (p PlanStatus) String() string { return string(p) }
func (p PlanStatus) IsValid() bool  { return planStatuses.has(p) }

func ParsePlanStatus(value string) (PlanStatus, error) {
	return planStatuses.parse("plan status", value)
}

// SnapshotStatus marks the one snapshot per booking the executor follows.
type SnapshotStatus string

const (
	SnapshotStatusCurrent    SnapshotStatus = "current"
	SnapshotStatusSuperseded SnapshotStatus = "superseded"
)

var snapshotStatuses = set[SnapshotStatus]{SnapshotStatusCurrent, SnapshotStatusSuperseded}

func (s SnapshotStatus) String() string { return string(s) }
func (s SnapshotStatus) IsValid() bool  { return snapshotStatuses.has(s) }

func ParseSnapshotStatus(value string) (SnapshotStatus, error) {
	return snapshotStatuses.parse("snapshot status", value)
}

// PaymentMethodType is the instrument used at checkout.
type PaymentMethodType string

const (
	PaymentMethodCard          PaymentMethodType = "card"
	PaymentMethodUSBankAccount PaymentMethodType = "us_bank_account"
	PaymentMethodLink          PaymentMethodType = "link"
)

var paymentMethodTypes = set[PaymentMethodType]{PaymentMethodCard, PaymentMethodUSBankAccount, PaymentMethodLink}

func (p PaymentMethodType) String() string { return string(p) }
func (p PaymentMethodType) IsValid() bool  { return paymentMethodTypes.has(p) }

func ParsePaymentMethodType(value string) (PaymentMethodType, error) {
	return paymentMethodTypes.parse("payment method type", value)
}

// ProductCategory groups bookable products for ledger reporting.
type ProductCategory string

const (
	ProductCategoryVenue    ProductCategory = "venue"
	ProductCategoryCatering ProductCategory = "catering"
	ProductCategoryDessert  ProductCategory = "dessert"
)

var productCategories = set[ProductCategory]{ProductCategoryVenue, ProductCategoryCatering, ProductCategoryDessert}

func (p ProductCategory) String() string { return string(p) }
func (p ProductCategory) IsValid() bool  { return productCategories.has(p) }

func ParseProductCategory(value string) (ProductCategory, error) {
	return productCategories.parse("product category", value)
}
