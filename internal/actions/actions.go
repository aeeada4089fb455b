// Package actions defines the wire types of the Solana Actions protocol
// (Blinks): the GET descriptor a wallet renders, the POST request/response
// carrying the unsigned transaction, and the actions.json routing manifest.
//
// The protocol requires permissive CORS on every action endpoint, including
// the manifest, so the headers are centralized here and applied by the
// HTTP layer to action routes only; the rest of the API keeps its own
// CORS posture.
package actions

// Protocol CORS headers required on all action endpoints. Wallets and Blink
// clients are browser contexts on arbitrary origins.
var CORSHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Methods": "GET,POST,PUT,OPTIONS",
	"Access-Control-Allow-Headers": "Content-Type, Authorization, Content-Encoding, Accept-Encoding",
	"Content-Type":                 "application/json",
}

// Parameter describes one user-supplied input of a linked action. The client
// substitutes the value into the action href template ({name}).
type Parameter struct {
	Name     string `json:"name"`
	Label    string `json:"label,omitempty"`
	Required bool   `json:"required,omitempty"`
}

// LinkedAction is a button (optionally with input fields) rendered under an
// action descriptor.
type LinkedAction struct {
	Label      string      `json:"label"`
	Href       string      `json:"href"`
	Parameters []Parameter `json:"parameters,omitempty"`
}

// GetResponse is the action descriptor returned by GET on an action endpoint.
type GetResponse struct {
	Title       string `json:"title"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
	Label       string `json:"label"`
	Disabled    bool   `json:"disabled,omitempty"`
	Links       *Links `json:"links,omitempty"`
	Error       *Error `json:"error,omitempty"`
}

// Links groups the linked actions of a descriptor.
type Links struct {
	Actions []LinkedAction `json:"actions"`
}

// Error is the protocol-level error object embedded in a descriptor.
type Error struct {
	Message string `json:"message"`
}

// PostRequest is the body of a POST to an action endpoint: the account that
// will sign and pay for the returned transaction.
type PostRequest struct {
	Account string `json:"account"`
}

// PostResponse carries the unsigned, base64-encoded transaction back to the
// client, with an optional message shown after signing.
type PostResponse struct {
	Transaction string `json:"transaction"`
	Message     string `json:"message,omitempty"`
}

// Rule maps a public path pattern to the API path serving it.
type Rule struct {
	PathPattern string `json:"pathPattern"`
	APIPath     string `json:"apiPath"`
}

// Manifest is the actions.json payload served at the site root.
type Manifest struct {
	Rules []Rule `json:"rules"`
}
