package account

// Demo figures attached to every account at login. The product is a demo:
// the financial snapshot is canned, only the identity fields are real.
const (
	demoCreditLimit     int64 = 150000
	demoAvailableCredit int64 = 87000
	demoBillAmount      int64 = 12500
	demoBillMonth             = "February 2025"
)

// DemoSnapshot builds the canned financial snapshot for the given identity.
func DemoSnapshot(name, phone, email, cardLast4 string) *Account {
	return &Account{
		Name:            name,
		Phone:           phone,
		Email:           email,
		CardLast4:       cardLast4,
		CreditLimit:     demoCreditLimit,
		AvailableCredit: demoAvailableCredit,
		Bill: Bill{
			Amount: demoBillAmount,
			Month:  demoBillMonth,
		},
		Transactions: []Transaction{
			{Date: "15 Feb", Merchant: "Amazon", Amount: 2499, Category: "Shopping"},
			{Date: "14 Feb", Merchant: "Swiggy", Amount: 480, Category: "Food"},
			{Date: "13 Feb", Merchant: "Myntra", Amount: 1699, Category: "Shopping"},
			{Date: "10 Feb", Merchant: "Fuel Pump", Amount: 2400, Category: "Fuel"},
		},
	}
}
