package domain

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

const (
	MailTypeCreateAdmin   = "create_admin"
	MailTypeResetPassword = "reset_password"
	MailTypeAdmission     = "admission"
	MailTypeInvoice       = "invoice"
	MailTypeFeeReminder   = "fee_reminder"
)

type CreateAdminMailData struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ResetPasswordMailData struct {
	FullName   string `json:"fullName"`
	OTP        string `json:"otp"`
	Expiration int    `json:"expiration"`
}

type AdmissionMailData struct {
	Name          string `json:"name"`
	SID           int64  `json:"sid"`
	Shift         string `json:"shift"`
	Time          string `json:"time"`
	SeatNumber    string `json:"seatNumber"`
	PaymentAmount int64  `json:"paymentAmount"`
	NextPayment   string `json:"nextPayment"`
}

type InvoiceMailData struct {
	Name            string `json:"name"`
	SID             int64  `json:"sid"`
	InvoiceID       int64  `json:"invoiceID"`
	CycleStart      string `json:"cycleStart"`
	CycleEnd        string `json:"cycleEnd"`
	AmountPaid      int64  `json:"amountPaid"`
	ExtraAmountPaid int64  `json:"extraAmountPaid"`
	RemainingDue    int64  `json:"remainingDue"`
}

type FeeReminderMailData struct {
	Name        string `json:"name"`
	SID         int64  `json:"sid"`
	TotalDue    int64  `json:"totalDue"`
	LastPayment string `json:"lastPayment"`
}
