package model

import "time"

// ContactLookup is the result of searching a code on the CRM. Empty fields mean the value
// was not found.
type ContactLookup struct {
	FoundCode string
	Phone     string
}

// CRMSelectors are the XPath selectors used to drive the CRM web UI.
type CRMSelectors struct {
	LoginUser       string
	LoginPassword   string
	LoginSubmit     string
	ContactSearch   string
	ResultCode      string
	ResultPhone     string
	DialerButton    string
	PhoneInput      string
	DialAction      string
	InCallIndicator string
}

// CRMTimeouts are the bounded waits used while driving the CRM.
type CRMTimeouts struct {
	Element time.Duration
	Landing time.Duration
	Search  time.Duration
	Call    time.Duration
}

// CRMConfig is the CRM automation configuration.
type CRMConfig struct {
	Selectors CRMSelectors
	Timeouts  CRMTimeouts
	// ScaleFactor is the browser device scale factor.
	ScaleFactor float64
}

// DefaultCRMConfig returns the configuration that matches the Weon CRM UI.
func DefaultCRMConfig() CRMConfig {
	return CRMConfig{
		Selectors: CRMSelectors{
			LoginUser:       `//input[@name="login"]`,
			LoginPassword:   `//input[@id="password"]`,
			LoginSubmit:     `//button[contains(., 'Acessar')]`,
			ContactSearch:   `//input[@aria-label="Buscar contato"]`,
			ResultCode:      `//div[contains(@class, 'v-dialog--active')]//tbody/tr/td[1]`,
			ResultPhone:     `//div[contains(@class, 'v-dialog--active')]//tbody/tr/td[3]`,
			DialerButton:    `//button[.//i[contains(@class, 'mdi-rocket-launch')]]`,
			PhoneInput:      `//input[@type='text' and @placeholder='Telefone']`,
			DialAction:      `//span[contains(@class, 'white--text') and text()='Acionar']`,
			InCallIndicator: `//button[@class='v-btn v-btn--block theme--dark green accent-5']`,
		},
		Timeouts: CRMTimeouts{
			Element: 10 * time.Second,
			Landing: 30 * time.Second,
			Search:  15 * time.Second,
			Call:    30 * time.Second,
		},
		ScaleFactor: 0.7,
	}
}
