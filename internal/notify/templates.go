package notify

import (
	"bytes"
	"html/template"
	"time"

	"github.com/germanmitharsh/formgate/internal/form"
)

// emailData feeds the three HTML templates. html/template escapes every
// interpolated field on top of the form-level sanitization.
type emailData struct {
	SiteName     string
	SupportEmail string
	WhatsApp     string
	SubmissionID string
	SubmittedAt  string
	Fields       form.Fields
}

var berlin = func() *time.Location {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		return time.UTC
	}
	return loc
}()

func newEmailData(cfg Config, submissionID string, f form.Fields) emailData {
	id := submissionID
	if id == "" {
		id = "n/a"
	}
	return emailData{
		SiteName:     cfg.SiteName,
		SupportEmail: cfg.SupportEmail,
		WhatsApp:     cfg.WhatsApp,
		SubmissionID: id,
		SubmittedAt:  time.Now().In(berlin).Format("Jan 2, 2006 15:04 MST"),
		Fields:       f,
	}
}

const contactOwnerTmpl = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>New Contact Form Submission</title></head>
<body style="margin:0;padding:0;font-family:-apple-system,'Segoe UI',Roboto,Arial,sans-serif;background-color:#f5f5f5;">
  <table role="presentation" style="width:600px;max-width:100%;margin:40px auto;background-color:#ffffff;border-radius:8px;">
    <tr>
      <td style="padding:32px 40px;background:linear-gradient(135deg,#667eea 0%,#764ba2 100%);border-radius:8px 8px 0 0;">
        <h1 style="margin:0;color:#ffffff;font-size:24px;">New Contact Form Submission</h1>
      </td>
    </tr>
    <tr>
      <td style="padding:40px;">
        <p style="margin:0 0 24px;color:#666;">You have received a new contact form submission from your website.</p>
        <table style="width:100%;border-collapse:collapse;margin-bottom:24px;">
          <tr>
            <td style="padding:12px;background-color:#f8f9fa;border:1px solid #e9ecef;font-weight:600;width:30%;">Name</td>
            <td style="padding:12px;border:1px solid #e9ecef;color:#666;">{{.Fields.Name}}</td>
          </tr>
          <tr>
            <td style="padding:12px;background-color:#f8f9fa;border:1px solid #e9ecef;font-weight:600;">Email</td>
            <td style="padding:12px;border:1px solid #e9ecef;"><a href="mailto:{{.Fields.Email}}" style="color:#667eea;">{{.Fields.Email}}</a></td>
          </tr>
          {{if .Fields.Phone}}<tr>
            <td style="padding:12px;background-color:#f8f9fa;border:1px solid #e9ecef;font-weight:600;">Phone</td>
            <td style="padding:12px;border:1px solid #e9ecef;color:#666;">{{.Fields.Phone}}</td>
          </tr>{{end}}
          {{if .Fields.Subject}}<tr>
            <td style="padding:12px;background-color:#f8f9fa;border:1px solid #e9ecef;font-weight:600;">Subject</td>
            <td style="padding:12px;border:1px solid #e9ecef;color:#666;">{{.Fields.Subject}}</td>
          </tr>{{end}}
        </table>
        <h3 style="margin:0 0 12px;font-size:16px;">Message:</h3>
        <div style="padding:16px;background-color:#f8f9fa;border-left:4px solid #667eea;border-radius:4px;color:#666;white-space:pre-wrap;">{{.Fields.Message}}</div>
        <div style="margin-top:24px;padding:16px;background-color:#f8f9fa;border-radius:4px;font-size:12px;color:#999;">
          <p style="margin:0 0 4px;"><strong>Submission ID:</strong> {{.SubmissionID}}</p>
          <p style="margin:0;"><strong>Submitted:</strong> {{.SubmittedAt}} (Berlin Time)</p>
        </div>
      </td>
    </tr>
    <tr>
      <td style="padding:24px 40px;background-color:#f8f9fa;border-radius:0 0 8px 8px;text-align:center;">
        <p style="margin:0;color:#999;font-size:12px;">This email was automatically generated from your website contact form.</p>
      </td>
    </tr>
  </table>
</body>
</html>
`

const enrollOwnerTmpl = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>New Enrollment Request</title></head>
<body style="margin:0;padding:0;font-family:-apple-system,'Segoe UI',Roboto,Arial,sans-serif;background-color:#f5f5f5;">
  <table role="presentation" style="width:600px;max-width:100%;margin:40px auto;background-color:#ffffff;border-radius:8px;">
    <tr>
      <td style="padding:32px 40px;background:linear-gradient(135deg,#f59e0b 0%,#d97706 100%);border-radius:8px 8px 0 0;">
        <h1 style="margin:0;color:#ffffff;font-size:24px;">New Enrollment Request</h1>
      </td>
    </tr>
    <tr>
      <td style="padding:40px;">
        <div style="background-color:#fef3c7;border-left:4px solid #f59e0b;padding:16px;margin-bottom:24px;border-radius:4px;">
          <p style="margin:0;color:#92400e;font-weight:600;">Course Level: {{.Fields.Level}}</p>
        </div>
        <table style="width:100%;border-collapse:collapse;margin-bottom:24px;">
          <tr>
            <td style="padding:12px;background-color:#f8f9fa;border:1px solid #e9ecef;font-weight:600;width:30%;">Name</td>
            <td style="padding:12px;border:1px solid #e9ecef;color:#666;">{{.Fields.Name}}</td>
          </tr>
          <tr>
            <td style="padding:12px;background-color:#f8f9fa;border:1px solid #e9ecef;font-weight:600;">Email</td>
            <td style="padding:12px;border:1px solid #e9ecef;"><a href="mailto:{{.Fields.Email}}" style="color:#f59e0b;">{{.Fields.Email}}</a></td>
          </tr>
          <tr>
            <td style="padding:12px;background-color:#f8f9fa;border:1px solid #e9ecef;font-weight:600;">Phone</td>
            <td style="padding:12px;border:1px solid #e9ecef;color:#666;">{{.Fields.Phone}}</td>
          </tr>
          {{if .Fields.StartDate}}<tr>
            <td style="padding:12px;background-color:#f8f9fa;border:1px solid #e9ecef;font-weight:600;">Preferred Start</td>
            <td style="padding:12px;border:1px solid #e9ecef;color:#666;">{{.Fields.StartDate}}</td>
          </tr>{{end}}
          {{if .Fields.Coupon}}<tr>
            <td style="padding:12px;background-color:#f8f9fa;border:1px solid #e9ecef;font-weight:600;">Coupon Code</td>
            <td style="padding:12px;border:1px solid #e9ecef;color:#666;">{{.Fields.Coupon}}</td>
          </tr>{{end}}
        </table>
        {{if .Fields.Message}}
        <h3 style="margin:0 0 12px;font-size:16px;">Additional Notes:</h3>
        <div style="padding:16px;background-color:#f8f9fa;border-left:4px solid #f59e0b;border-radius:4px;color:#666;white-space:pre-wrap;">{{.Fields.Message}}</div>
        {{end}}
        <div style="text-align:center;margin:32px 0;">
          <a href="mailto:{{.Fields.Email}}" style="display:inline-block;background-color:#f59e0b;color:#ffffff;padding:14px 32px;text-decoration:none;border-radius:6px;font-weight:600;">Reply to Student</a>
        </div>
        <div style="padding:16px;background-color:#f8f9fa;border-radius:4px;font-size:12px;color:#999;">
          <p style="margin:0 0 4px;"><strong>Submission ID:</strong> {{.SubmissionID}}</p>
          <p style="margin:0;"><strong>Submitted:</strong> {{.SubmittedAt}} (Berlin Time)</p>
        </div>
      </td>
    </tr>
    <tr>
      <td style="padding:24px 40px;background-color:#f8f9fa;border-radius:0 0 8px 8px;text-align:center;">
        <p style="margin:0;color:#999;font-size:12px;">This email was automatically generated from your website enrollment form.</p>
      </td>
    </tr>
  </table>
</body>
</html>
`

const studentConfirmTmpl = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Enrollment Confirmation</title></head>
<body style="margin:0;padding:0;font-family:-apple-system,'Segoe UI',Roboto,Arial,sans-serif;background-color:#f5f5f5;">
  <table role="presentation" style="width:600px;max-width:100%;margin:40px auto;background-color:#ffffff;border-radius:8px;">
    <tr>
      <td style="padding:32px 40px;background:linear-gradient(135deg,#667eea 0%,#764ba2 100%);border-radius:8px 8px 0 0;text-align:center;">
        <h1 style="margin:0 0 12px;color:#ffffff;font-size:28px;">Thanks for Enrolling!</h1>
        <p style="margin:0;color:#e5e7eb;">We're excited to be part of your German learning journey</p>
      </td>
    </tr>
    <tr>
      <td style="padding:40px;">
        <p style="margin:0 0 24px;color:#666;line-height:1.6;">Hello {{.Fields.Name}},</p>
        <p style="margin:0 0 24px;color:#666;line-height:1.6;">
          Thank you for choosing <strong>{{.SiteName}}</strong> to master the German language!
          We've received your enrollment request for <strong>{{.Fields.Level}}</strong> and will get back to you shortly.
        </p>
        <div style="background-color:#f8f9fa;border-radius:8px;padding:24px;margin-bottom:24px;">
          <h3 style="margin:0 0 16px;font-size:18px;">Your Enrollment Summary</h3>
          <table style="width:100%;">
            <tr><td style="padding:8px 0;color:#666;font-size:14px;"><strong>Course Level:</strong></td><td style="padding:8px 0;text-align:right;font-size:14px;">{{.Fields.Level}}</td></tr>
            <tr><td style="padding:8px 0;color:#666;font-size:14px;"><strong>Name:</strong></td><td style="padding:8px 0;text-align:right;font-size:14px;">{{.Fields.Name}}</td></tr>
            <tr><td style="padding:8px 0;color:#666;font-size:14px;"><strong>Email:</strong></td><td style="padding:8px 0;text-align:right;font-size:14px;">{{.Fields.Email}}</td></tr>
            <tr><td style="padding:8px 0;color:#666;font-size:14px;"><strong>Phone:</strong></td><td style="padding:8px 0;text-align:right;font-size:14px;">{{.Fields.Phone}}</td></tr>
          </table>
        </div>
        <h3 style="margin:0 0 16px;font-size:18px;">What Happens Next?</h3>
        <ul style="margin:0 0 32px;padding-left:20px;color:#666;line-height:1.8;">
          <li>We'll review your enrollment within the next 24 hours</li>
          <li>You'll receive a call or email to schedule your free consultation</li>
          <li>During the consultation, we'll discuss your goals and create a personalized learning plan</li>
          <li>Once confirmed, you'll receive course materials and class schedule</li>
        </ul>
        <div style="background-color:#fef3c7;border-left:4px solid #f59e0b;padding:16px;margin-bottom:32px;border-radius:4px;">
          <p style="margin:0 0 12px;color:#92400e;font-weight:600;">Questions or need to reach us sooner?</p>
          <p style="margin:0;color:#92400e;font-size:14px;">
            Email: <a href="mailto:{{.SupportEmail}}" style="color:#d97706;">{{.SupportEmail}}</a><br>
            WhatsApp: <a href="{{.WhatsApp}}" style="color:#d97706;">{{.WhatsApp}}</a>
          </p>
        </div>
        <p style="margin:0;color:#666;font-size:14px;text-align:center;">We're looking forward to helping you achieve fluency in German!</p>
      </td>
    </tr>
    <tr>
      <td style="padding:24px 40px;background-color:#f8f9fa;border-radius:0 0 8px 8px;text-align:center;">
        <p style="margin:0 0 8px;color:#999;font-size:12px;">{{.SiteName}} - Master Conversational German</p>
        <p style="margin:0;color:#999;font-size:12px;">If you didn't request this enrollment, please ignore this email or <a href="mailto:{{.SupportEmail}}" style="color:#667eea;">contact us</a>.</p>
      </td>
    </tr>
  </table>
</body>
</html>
`

var (
	contactOwnerTemplate   = template.Must(template.New("contact_owner").Parse(contactOwnerTmpl))
	enrollOwnerTemplate    = template.Must(template.New("enroll_owner").Parse(enrollOwnerTmpl))
	studentConfirmTemplate = template.Must(template.New("student_confirm").Parse(studentConfirmTmpl))
)

func render(t *template.Template, data emailData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
