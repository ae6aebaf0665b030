package crm

import "errors"

// Order is the parsed form-webhook note for one deal: the customer fields
// the coin design flow needs, plus up to two attached file URLs.
type Order struct {
	ID            string `json:"id"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Organization  string `json:"organization"`
	Notes         string `json:"notes"`
	FirstFileURL  string `json:"first_file_url,omitempty"`
	SecondFileURL string `json:"second_file_url,omitempty"`
}

// ErrOrderNotFound is returned when the CRM has no usable note for the
// requested order id.
var ErrOrderNotFound = errors.New("order not found")

// note is one CRM note as returned by the Notes endpoint.
type note struct {
	Title   string `json:"Note_Title"`
	Content string `json:"Note_Content"`
}

type notesResponse struct {
	Data []note `json:"data"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	Error       string `json:"error,omitempty"`
}
