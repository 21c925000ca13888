package cycle

// OrderType is the declared intent of an order, used only as a classification
// fallback when no pre-order snapshot is available.
type OrderType string

const (
	OrderTypeNewPurchase OrderType = "new_purchase"
	OrderTypeRenewal     OrderType = "renewal"
	OrderTypeUpgrade     OrderType = "upgrade"
)

// OrderPeriod is the purchased duration of an order.
type OrderPeriod string

const (
	PeriodMonthly     OrderPeriod = "monthly"
	PeriodQuarterly   OrderPeriod = "quarterly"
	PeriodHalfYearly  OrderPeriod = "half_yearly"
	PeriodYearly      OrderPeriod = "yearly"
	PeriodTwoYearly   OrderPeriod = "two_yearly"
	PeriodThreeYearly OrderPeriod = "three_yearly"
)

var periodMultipliers = map[OrderPeriod]int{
	PeriodMonthly:     1,
	PeriodQuarterly:   3,
	PeriodHalfYearly:  6,
	PeriodYearly:      12,
	PeriodTwoYearly:   24,
	PeriodThreeYearly: 36,
}

// Multiplier returns the cycle count the period buys. The second return value
// is false for an unknown period, in which case callers default to 1 and log
// a warning rather than aborting the order event.
func (p OrderPeriod) Multiplier() (int, bool) {
	m, ok := periodMultipliers[p]
	if !ok {
		return 1, false
	}
	return m, true
}

// Order is the engine's view of an activated order. Payment, pricing and
// validation happened upstream.
type Order struct {
	ID           uint
	Type         OrderType
	Period       OrderPeriod
	SubscriberID uint
	PlanID       uint
}
