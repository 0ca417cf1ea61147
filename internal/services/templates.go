package services

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	TemplateVerification  = "verification"
	TemplatePasswordReset = "password_reset"
)

type email struct {
	template string
	to       string
	subject  string
	body     string
}

func expiryMinutes(ttl time.Duration) int {
	return int(ttl / time.Minute)
}

func verificationEmail(baseURL, to, name, token string, ttl time.Duration) email {
	link := strings.TrimRight(baseURL, "/") + "/verify-account?token=" + url.QueryEscape(token)

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", greetingName(name))
	b.WriteString("Thanks for signing up. Confirm your email address with the link below.\n\n")
	fmt.Fprintf(&b, "%s\n\n", link)
	fmt.Fprintf(&b, "Verification token: %s\n", token)
	fmt.Fprintf(&b, "This link will expire in %d minutes.\n", expiryMinutes(ttl))

	return email{template: TemplateVerification, to: to, subject: "Verify Account", body: b.String()}
}

func resetCodeEmail(to, name, code string, ttl time.Duration) email {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", greetingName(name))
	b.WriteString("We received a request to reset your password.\n\n")
	fmt.Fprintf(&b, "Verification Code: %s\n", code)
	fmt.Fprintf(&b, "This code will expire in %d minutes.\n\n", expiryMinutes(ttl))
	b.WriteString("If you did not ask for this, you can ignore this message.\n")

	return email{template: TemplatePasswordReset, to: to, subject: "Verify Password Reset", body: b.String()}
}

func greetingName(name string) string {
	if name == "" {
		return "there"
	}
	return name
}
