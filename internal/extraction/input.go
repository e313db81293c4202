package extraction

import (
	"regexp"
	"strings"
)

// Input is the raw material a story submission provides. Email submissions
// carry text/HTML bodies plus headers; CLI submissions may set URL directly.
type Input struct {
	Text     string
	HTML     string
	Subject  string
	From     string
	URL      string
	Password string
}

// Result is the extracted story: clean narrative text plus presentation
// metadata and the name of the strategy that produced it.
type Result struct {
	Text     string
	Title    string
	Author   string
	Strategy string
}

var (
	urlPattern        = regexp.MustCompile(`https?://[^\s<>"]+`)
	subjectPrefix     = regexp.MustCompile(`(?i)^(Re:|Fwd:|Fw:)\s*`)
	displayNameFormat = regexp.MustCompile(`^([^<]+)<`)
	mailboxFormat     = regexp.MustCompile(`^([^@]+)@`)
	trailingPunct     = regexp.MustCompile(`[.,;!?]+$`)
)

// passwordPatterns match the common ways senders annotate a post password,
// either on the same line as the label or on the following line.
var passwordPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?im)password[:\s]+["']?([^\s"'<>\n]+)["']?`),
	regexp.MustCompile(`(?im)pass[:\s]+["']?([^\s"'<>\n]+)["']?`),
	regexp.MustCompile(`(?im)code[:\s]+["']?([^\s"'<>\n]+)["']?`),
	regexp.MustCompile(`(?im)pw[:\s]+["']?([^\s"'<>\n]+)["']?`),
	regexp.MustCompile(`(?im)password:\s*\n\s*([^\s\n]+)`),
	regexp.MustCompile(`(?im)pass:\s*\n\s*([^\s\n]+)`),
}

// nonPasswords are words the label patterns tend to capture by mistake.
var nonPasswords = map[string]struct{}{
	"the": {},
	"is":  {},
	"a":   {},
	"for": {},
}

// FindURL returns the first URL in the input, preferring an explicitly
// supplied one over URLs embedded in the body.
func (in Input) FindURL() string {
	if url := strings.TrimSpace(in.URL); url != "" {
		return url
	}
	return urlPattern.FindString(in.Text + in.HTML)
}

// FindPassword returns the post password, preferring an explicitly supplied
// one over passwords annotated in the body.
func (in Input) FindPassword() string {
	if pw := strings.TrimSpace(in.Password); pw != "" {
		return pw
	}
	body := in.Text + in.HTML
	for _, pattern := range passwordPatterns {
		match := pattern.FindStringSubmatch(body)
		if match == nil {
			continue
		}
		password := trailingPunct.ReplaceAllString(strings.TrimSpace(match[1]), "")
		if password == "" || strings.HasPrefix(password, "http") {
			continue
		}
		if _, ok := nonPasswords[strings.ToLower(password)]; ok {
			continue
		}
		return password
	}
	return ""
}

// CleanSubject strips reply/forward prefixes from an email subject.
func CleanSubject(subject string) string {
	return strings.TrimSpace(subjectPrefix.ReplaceAllString(subject, ""))
}

// AuthorFromAddress derives an author name from a From header. A display name
// wins over the mailbox local part.
func AuthorFromAddress(from string) string {
	if match := displayNameFormat.FindStringSubmatch(from); match != nil {
		if name := strings.TrimSpace(match[1]); name != "" {
			return name
		}
	}
	if match := mailboxFormat.FindStringSubmatch(from); match != nil {
		if name := strings.TrimSpace(match[1]); name != "" {
			return name
		}
	}
	return "Unknown Author"
}

func titleFor(in Input) string {
	title := CleanSubject(in.Subject)
	if title == "" {
		title = "Unknown Title"
	}
	return title
}
