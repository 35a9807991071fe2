package email

import (
	"fmt"
	"html"
	"time"
)

// VerificationCode renders the registration code email.
func VerificationCode(code string, ttl time.Duration) (subject, body string) {
	subject = "Blood Bank - Email Verification OTP"
	body = fmt.Sprintf(`<h2>Email Verification</h2>
<p>Your OTP for email verification is: <strong>%s</strong></p>
<p>This OTP will expire in %d minutes.</p>
<p>If you didn't request this, please ignore this email.</p>`, code, int(ttl.Minutes()))
	return subject, body
}

// PasswordResetCode renders the forgot-password code email.
func PasswordResetCode(code string, ttl time.Duration) (subject, body string) {
	subject = "Blood Bank - Password Reset OTP"
	body = fmt.Sprintf(`<h2>Password Reset</h2>
<p>Your OTP for resetting your password is: <strong>%s</strong></p>
<p>This OTP will expire in %d minutes.</p>
<p>If you didn't request a reset, you can ignore this email; your password is unchanged.</p>`, code, int(ttl.Minutes()))
	return subject, body
}

// Welcome renders the email sent once an account is verified.
func Welcome(name string) (subject, body string) {
	subject = "Welcome to Blood Bank Management System"
	body = fmt.Sprintf(`<h2>Welcome %s!</h2>
<p>Your email has been verified successfully.</p>
<p>Thank you for registering with our Blood Bank Management System.</p>
<p>You can now donate blood and help save lives!</p>`, html.EscapeString(name))
	return subject, body
}
