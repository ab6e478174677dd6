package domain

import "time"

type Invoice struct {
	ID              int64     `json:"id"`
	SID             int64     `json:"sid"`
	PaymentDate     time.Time `json:"paymentDate"`
	CycleStart      time.Time `json:"cycleStart"`
	CycleEnd        time.Time `json:"cycleEnd"`
	AmountPaid      int64     `json:"amountPaid"`
	ExtraAmountPaid int64     `json:"extraAmountPaid"`
	RemainingDue    int64     `json:"remainingDue"` // 小于 0 表示多付
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
	Version         int32     `json:"-"`
}
