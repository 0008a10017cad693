package donation

// AmountForm is the first step of the donation form. The amount is in major units.
type AmountForm struct {
	Amount string `form:"amount" validate:"required,max=12"`
}

type LoginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

// SessionRequestDTO is the body of the payment session API. Amount is in minor units.
type SessionRequestDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type SessionResponseDTO struct {
	ClientSecret   string `json:"clientSecret"`
	Locale         string `json:"locale"`
	PublishableKey string `json:"publishableKey"`
}
