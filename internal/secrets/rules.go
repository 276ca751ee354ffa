package secrets

// DocumentRules returns rules for values that commonly leak through
// contracts, reports and exported configuration documents.
func DocumentRules() []Rule {
	return []Rule{
		{
			ID:          "private-key",
			Description: "PEM private key header",
			Pattern:     `-----BEGIN (?:RSA |DSA |EC |OPENSSH |PGP |ENCRYPTED )?PRIVATE KEY(?:[- ]BLOCK)?-----`,
			Severity:    "high",
		},
		{
			ID:          "aws-access-key-id",
			Description: "AWS access key ID",
			Pattern:     `\b(?:A3T[A-Z0-9]|AKIA|ASIA|AGPA|AIDA|AROA)[A-Z0-9]{16}\b`,
			Severity:    "high",
		},
		{
			ID:          "password-assignment",
			Description: "Password or secret written as key: value",
			Pattern:     `(?i)\b(?:password|passwd|pwd|secret|api[_-]?key)\s*[:=]\s*['"]?[^\s'"]{6,}['"]?`,
			Keywords:    []string{"password", "passwd", "pwd", "secret", "key"},
			Severity:    "high",
		},
		{
			ID:          "bearer-token",
			Description: "HTTP bearer token",
			Pattern:     `(?i)\bbearer\s+[A-Za-z0-9_\-\.=]{20,}`,
			Keywords:    []string{"bearer"},
			Severity:    "high",
		},
		{
			ID:          "jwt",
			Description: "JSON web token",
			Pattern:     `\beyJ[A-Za-z0-9_-]+\.eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+`,
			Severity:    "medium",
		},
		{
			ID:          "connection-string",
			Description: "Database URL with embedded credentials",
			Pattern:     `(?i)\b(?:postgres(?:ql)?|mysql|mongodb(?:\+srv)?|redis|amqp)://[^:\s/]+:[^@\s]+@\S+`,
			Severity:    "high",
		},
		{
			ID:          "payment-card",
			Description: "Payment card number",
			Pattern:     `\b(?:\d[ -]?){12,18}\d\b`,
			Keywords:    []string{"card", "visa", "mastercard", "amex", "credit"},
			Severity:    "medium",
		},
		{
			ID:          "us-ssn",
			Description: "US social security number",
			Pattern:     `\b\d{3}-\d{2}-\d{4}\b`,
			Keywords:    []string{"ssn", "social security"},
			Severity:    "medium",
		},
		{
			ID:          "iban",
			Description: "International bank account number",
			Pattern:     `\b[A-Z]{2}\d{2}(?: ?[A-Z0-9]{4}){3,7}(?: ?[A-Z0-9]{1,3})?\b`,
			Keywords:    []string{"iban", "account"},
			Severity:    "medium",
		},
	}
}
