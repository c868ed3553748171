package models

// PaymentOrder описывает заказ, созданный у платёжного провайдера для одной попытки оплаты.
// Не хранится в базе: итог оплаты фиксируется в Account.
type PaymentOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"` // в минимальных единицах валюты (пайсы)
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status,omitempty"`
	Mock     bool   `json:"mock,omitempty"`
}

// PaymentCallback содержит данные, которые клиент получает от провайдера после оплаты.
type PaymentCallback struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

// AccountUpgradedEvent публикуется после первого успешного перехода на pro.
type AccountUpgradedEvent struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	PaymentID string `json:"payment_id"`
	OrderID   string `json:"order_id,omitempty"`
	Mock      bool   `json:"mock,omitempty"`
}
