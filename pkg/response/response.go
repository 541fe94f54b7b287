package response

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorBody struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// Error builds the error envelope returned by middleware.
func Error(code, message string, details any) ErrorBody {
	return ErrorBody{
		Success: false,
		Error:   ErrorDetail{Code: code, Message: message, Details: details},
	}
}
