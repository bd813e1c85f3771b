package sendmail

import "net/http"

// Result messages returned to the caller.
const (
	MsgSent             = "Mail sent successfully"
	MsgDeliveryFailed   = "Failed to send mail"
	MsgInternalError    = "Internal Server Error"
	MsgInvalidBody      = "Invalid request body"
	msgMethodNotAllowed = "[%s] is not allowed"
)

// MailResult is the outcome of one request. Status doubles as the HTTP
// status code.
type MailResult struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// OK reports whether the mail was sent.
func (r MailResult) OK() bool {
	return r.Status == http.StatusOK
}

func sent() MailResult {
	return MailResult{Status: http.StatusOK, Message: MsgSent}
}

func rejected(v Violations) MailResult {
	return MailResult{Status: http.StatusUnprocessableEntity, Message: v.First()}
}

func internalError() MailResult {
	return MailResult{Status: http.StatusInternalServerError, Message: MsgInternalError}
}

func deliveryFailed() MailResult {
	return MailResult{Status: http.StatusInternalServerError, Message: MsgDeliveryFailed}
}
