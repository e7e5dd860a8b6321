package form

import (
	"strings"

	"github.com/germanmitharsh/formgate/internal/models"
)

// Fields is the normalized field set of one form post. It is what gets
// persisted as the submission payload, so the JSON tags are part of the
// stored shape.
type Fields struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Subject   string `json:"subject,omitempty"`
	Level     string `json:"level,omitempty"`
	Message   string `json:"message"`
	StartDate string `json:"startDate,omitempty"`
	Coupon    string `json:"coupon,omitempty"`
	Honeypot  string `json:"-"`
}

// Normalize sanitizes every known field of the extracted payload. Missing
// fields come out as "". Email and level are lower-cased; subject and start
// date only exist for one of the two forms but unknown extras are simply
// dropped.
func Normalize(payload map[string]any, formType models.FormType) Fields {
	get := func(key string) string {
		return Sanitize(stringValue(payload[key]))
	}

	f := Fields{
		Name:     get("name"),
		Email:    strings.ToLower(get("email")),
		Phone:    get("phone"),
		Message:  get("message"),
		Honeypot: get("honeypot"),
	}

	switch formType {
	case models.FormContact:
		f.Subject = get("subject")
	case models.FormEnroll:
		f.Level = strings.ToLower(get("level"))
		f.StartDate = get("startDate")
		f.Coupon = get("coupon")
	}
	return f
}
