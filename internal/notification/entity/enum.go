package entity

// Kind is the email a consumer sends.
type Kind int16

const (
	KindUnknown        Kind = 0
	KindWelcome        Kind = 1
	KindOrderConfirmed Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindWelcome:
		return "welcome"
	case KindOrderConfirmed:
		return "order_confirmed"
	default:
		return "unknown"
	}
}

// Subject is the email subject line of k.
func (k Kind) Subject() string {
	switch k {
	case KindWelcome:
		return "Welcome aboard"
	case KindOrderConfirmed:
		return "Your order is confirmed"
	default:
		return ""
	}
}
