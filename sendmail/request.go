package sendmail

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Violation messages, in the order the fields are checked.
const (
	MsgEmailRequired   = "Email required"
	MsgEmailInvalid    = "Invalid mail:to email"
	MsgNameRequired    = "Name required"
	MsgSubjectRequired = "Subject required"
	MsgHTMLRequired    = "Html required"
)

// MailRequest is one send request as submitted by the editor.
type MailRequest struct {
	ToEmail     string `json:"toEmail"`
	DisplayName string `json:"name"`
	Subject     string `json:"subject"`
	HTMLBody    string `json:"html"`
}

// Violation is a single field-level validation failure.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Violations lists every failed rule of a request in field order.
type Violations []Violation

func (v Violations) Error() string {
	msgs := make([]string, len(v))
	for i, violation := range v {
		msgs[i] = violation.Message
	}
	return strings.Join(msgs, "; ")
}

// First returns the message of the first violation, or "" when there is none.
func (v Violations) First() string {
	if len(v) == 0 {
		return ""
	}
	return v[0].Message
}

// Validate checks every field of req and returns all violations. A nil result
// means the request may be dispatched.
func Validate(req MailRequest) Violations {
	var out Violations

	switch {
	case req.ToEmail == "":
		out = append(out, Violation{Field: "toEmail", Message: MsgEmailRequired})
	case !IsEmail(req.ToEmail):
		out = append(out, Violation{Field: "toEmail", Message: MsgEmailInvalid})
	}

	if req.DisplayName == "" {
		out = append(out, Violation{Field: "name", Message: MsgNameRequired})
	}
	if req.Subject == "" {
		out = append(out, Violation{Field: "subject", Message: MsgSubjectRequired})
	}
	if req.HTMLBody == "" {
		out = append(out, Violation{Field: "html", Message: MsgHTMLRequired})
	}

	return out
}

// IsEmail reports whether s is a syntactically valid email address.
func IsEmail(s string) bool {
	return validate.Var(s, "required,email") == nil
}
