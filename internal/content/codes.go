package content

import (
	"regexp"
	"strconv"

	"github.com/nhle/ghostmail/internal/model"
)

var codeRe = regexp.MustCompile(`\b\d{4,8}\b`)

// ExtractCodes returns the distinct 4 to 8 digit runs in text, in order of
// appearance. Four-digit runs that look like a year are skipped.
func ExtractCodes(text string) []string {
	var codes []string
	seen := make(map[string]bool)

	for _, m := range codeRe.FindAllString(text, -1) {
		if isYear(m) || seen[m] {
			continue
		}
		seen[m] = true
		codes = append(codes, m)
	}
	return codes
}

// CodesFromMessages scans the subject and snippet of each message.
func CodesFromMessages(msgs []model.MailMessage) []model.ExtractedCode {
	var out []model.ExtractedCode
	seen := make(map[string]bool)

	for _, m := range msgs {
		for _, code := range ExtractCodes(m.Subject + " " + m.Intro) {
			if seen[code] {
				continue
			}
			seen[code] = true
			out = append(out, model.ExtractedCode{Code: code, Source: m.Sender()})
		}
	}
	return out
}

func isYear(s string) bool {
	if len(s) != 4 {
		return false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return false
	}
	return n >= 1900 && n <= 2099
}
