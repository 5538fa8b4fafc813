package models

// PaymentMethod classifies how a document is settled.
// Credit documents count their full total as owed immediately;
// cash documents only count the unpaid remainder.
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodCredit PaymentMethod = "credit"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCash || m == PaymentMethodCredit
}

// PaymentStatus is derived from amount paid vs total, never set directly.
type PaymentStatus string

const (
	PaymentStatusUnpaid        PaymentStatus = "unpaid"
	PaymentStatusPartiallyPaid PaymentStatus = "partially_paid"
	PaymentStatusPaid          PaymentStatus = "paid"
)

// PaymentMode is the settlement instrument recorded on a payment row.
type PaymentMode string

const (
	PaymentModeCash         PaymentMode = "cash"
	PaymentModeBankTransfer PaymentMode = "bank_transfer"
	PaymentModeCheck        PaymentMode = "check"
)

func (m PaymentMode) Valid() bool {
	return m == PaymentModeCash || m == PaymentModeBankTransfer || m == PaymentModeCheck
}

// MovementType classifies a stock movement journal entry.
type MovementType string

const (
	MovementTypeIn         MovementType = "in"
	MovementTypeOut        MovementType = "out"
	MovementTypeReturnIn   MovementType = "return_in"
	MovementTypeReturnOut  MovementType = "return_out"
	MovementTypeAdjustment MovementType = "adjustment"
)

// IsIncoming reports whether the movement increases on-hand quantity.
func (m MovementType) IsIncoming() bool {
	return m == MovementTypeIn || m == MovementTypeReturnIn
}

// IsOutgoing reports whether the movement decreases on-hand quantity.
func (m MovementType) IsOutgoing() bool {
	return m == MovementTypeOut || m == MovementTypeReturnOut
}

// DocumentType tags the document a stock movement belongs to.
type DocumentType string

const (
	DocumentTypePurchase       DocumentType = "purchase"
	DocumentTypePurchaseReturn DocumentType = "purchase_return"
	DocumentTypeSale           DocumentType = "sale"
	DocumentTypeSaleReturn     DocumentType = "sale_return"
	DocumentTypeAdjustment     DocumentType = "adjustment"
	DocumentTypeOther          DocumentType = "other"
)

// ReturnStatus is the lifecycle state of a purchase/sale return.
// Confirmed and cancelled are terminal.
type ReturnStatus string

const (
	ReturnStatusDraft     ReturnStatus = "draft"
	ReturnStatusConfirmed ReturnStatus = "confirmed"
	ReturnStatusCancelled ReturnStatus = "cancelled"
)

// AccountTransactionType classifies money account journal entries.
type AccountTransactionType string

const (
	AccountTransactionTypeDeposit    AccountTransactionType = "deposit"
	AccountTransactionTypeWithdrawal AccountTransactionType = "withdrawal"
)

// UserRole is used for coarse endpoint authorization.
type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleStaff UserRole = "staff"
)
