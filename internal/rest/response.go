package rest

type ResponseError struct {
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}
