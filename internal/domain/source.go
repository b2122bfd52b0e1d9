package domain

// PaymentSourceType identifies the kind of funding instrument.
type PaymentSourceType string

const (
	SourceGiftCertificate PaymentSourceType = "GIFT_CERTIFICATE"
	SourceStoredCredit    PaymentSourceType = "STORED_CREDIT"
	SourceTokenizedCard   PaymentSourceType = "TOKENIZED_CARD"
)

// PaymentSource describes one funding instrument and the maximum amount it
// can cover. Sources are consumed in slice order; the storefront places
// gift certificates and stored credit before the card to minimize card
// exposure.
type PaymentSource struct {
	ID       string
	Type     PaymentSourceType
	Capacity Money
}

// PaymentPlanStep is a planned, not yet executed, forward transaction.
type PaymentPlanStep struct {
	PaymentSourceID string
	SourceType      PaymentSourceType
	Type            TransactionType
	Amount          Money
}
