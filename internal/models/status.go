package models

import "strings"

type Status string

const (
	StatusNew       Status = "new"
	StatusInRepair  Status = "in_repair"
	StatusDelivered Status = "delivered"
)

var Statuses = []Status{StatusNew, StatusInRepair, StatusDelivered}

var statusAliases = map[string]Status{
	"جديد":        StatusNew,
	"تحت الإصلاح": StatusInRepair,
	"تم التسليم":  StatusDelivered,
}

// ParseStatus accepts a status code or the Arabic label the shop uses.
func ParseStatus(raw string) (Status, bool) {
	raw = strings.TrimSpace(raw)
	if status, ok := statusAliases[raw]; ok {
		return status, true
	}
	candidate := Status(strings.ReplaceAll(strings.ToLower(raw), " ", "_"))
	for _, status := range Statuses {
		if status == candidate {
			return status, true
		}
	}
	return "", false
}

// NormalizeStatus maps legacy labels to codes and keeps unknown values as is.
func NormalizeStatus(status Status) Status {
	if parsed, ok := ParseStatus(string(status)); ok {
		return parsed
	}
	return status
}

// Spellings lists every stored form of the status: its code and any label
// older records were saved with.
func (s Status) Spellings() []string {
	out := []string{string(s)}
	for label, status := range statusAliases {
		if status == s {
			out = append(out, label)
		}
	}
	return out
}

type PaymentStatus string

const (
	PaymentCash     PaymentStatus = "cash"
	PaymentTransfer PaymentStatus = "transfer"
	PaymentNotPaid  PaymentStatus = "not_paid"
)

var PaymentStatuses = []PaymentStatus{PaymentCash, PaymentTransfer, PaymentNotPaid}

var paymentAliases = map[string]PaymentStatus{
	"كاش":    PaymentCash,
	"نقدي":   PaymentCash,
	"تحويل":  PaymentTransfer,
	"لم يدفع": PaymentNotPaid,
}

// ParsePaymentStatus treats the empty string as "not recorded".
func ParsePaymentStatus(raw string) (PaymentStatus, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", true
	}
	if status, ok := paymentAliases[raw]; ok {
		return status, true
	}
	candidate := PaymentStatus(strings.ReplaceAll(strings.ToLower(raw), " ", "_"))
	for _, status := range PaymentStatuses {
		if status == candidate {
			return status, true
		}
	}
	return "", false
}
