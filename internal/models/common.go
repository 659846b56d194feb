package models

// ErrorResponse is a standardized error response for API
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// DataResponse wraps every successful API payload.
type DataResponse struct {
	Data interface{} `json:"data"`
}
