package response

// Response is the JSON envelope returned by every endpoint
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// ErrorInfo describes a failed request
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Meta carries pagination details
type Meta struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// Error codes
const (
	CodeBadRequest           = "BAD_REQUEST"
	CodeValidation           = "VALIDATION_ERROR"
	CodeNotFound             = "NOT_FOUND"
	CodeConflict             = "CONFLICT"
	CodeInsufficientCapacity = "INSUFFICIENT_CAPACITY"
	CodeInternal             = "INTERNAL_ERROR"
)

// Success wraps data in a successful envelope
func Success(data interface{}) *Response {
	return &Response{Success: true, Data: data}
}

// Paginated wraps a page of data with pagination meta
func Paginated(data interface{}, page, perPage int, total int64) *Response {
	totalPages := 0
	if perPage > 0 {
		totalPages = int((total + int64(perPage) - 1) / int64(perPage))
	}
	return &Response{
		Success: true,
		Data:    data,
		Meta: &Meta{
			Page:       page,
			PerPage:    perPage,
			Total:      total,
			TotalPages: totalPages,
		},
	}
}

// Error builds a failed envelope
func Error(code, message string) *Response {
	return &Response{Success: false, Error: &ErrorInfo{Code: code, Message: message}}
}

func BadRequest(message string) *Response {
	return Error(CodeBadRequest, message)
}

func ValidationError(message string) *Response {
	return Error(CodeValidation, message)
}

func NotFound(message string) *Response {
	return Error(CodeNotFound, message)
}

func Conflict(message string) *Response {
	return Error(CodeConflict, message)
}

func InternalError(message string) *Response {
	return Error(CodeInternal, message)
}
