package copperx

// User describes the account owner returned by the authenticate endpoint.
type User struct {
	ID             string  `json:"id"`
	Email          string  `json:"email"`
	FirstName      *string `json:"firstName,omitempty"`
	LastName       *string `json:"lastName,omitempty"`
	Role           *string `json:"role,omitempty"`
	OrganizationID string  `json:"organizationId,omitempty"`
}

// AuthResult carries the access token and user profile after OTP verification.
type AuthResult struct {
	Token string
	User  User
}

// OTPRequest correlates an OTP request with its later verification.
// SID must be passed back verbatim to AuthenticateWithOTP.
type OTPRequest struct {
	Email string `json:"email"`
	SID   string `json:"sid"`
}

// Wallet is a custodial wallet belonging to the account.
type Wallet struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	Network   string `json:"network"`
	IsDefault bool   `json:"isDefault"`
}

// Balance reports the funds held by a single wallet.
type Balance struct {
	WalletID string `json:"walletId"`
	Balance  string `json:"balance"`
	Currency string `json:"currency"`
}

// Transfer is one row of the account's transfer history.
type Transfer struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Amount    string `json:"amount"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}

// TransferResult reports the outcome of a committed send or withdrawal.
type TransferResult struct {
	TransferID string
	Status     string
}

// KycStatus is a single KYC record for the account.
type KycStatus struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Type   string `json:"type"`
}

// PusherAuth holds the signed authorization payload for a private channel
// subscription. The raw body is forwarded to Pusher untouched.
type PusherAuth struct {
	Auth        string `json:"auth"`
	ChannelData string `json:"channel_data,omitempty"`
}
