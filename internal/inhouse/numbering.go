package inhouse

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	reqNoPrefix   = "Req-No-"
	issueNoPrefix = "IH-ISS-"
)

var (
	reqNoPattern   = regexp.MustCompile(`Req-No-(\d+)`)
	issueNoPattern = regexp.MustCompile(`IH-ISS-(\d+)`)
)

// nextNumber returns prefix followed by one more than the highest serial found
// in values, at least two digits wide.
func nextNumber(prefix string, pattern *regexp.Regexp, values []string) string {
	highest := 0
	for _, v := range values {
		m := pattern.FindStringSubmatch(v)
		if m == nil {
			continue
		}
		serial, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if serial > highest {
			highest = serial
		}
	}
	return fmt.Sprintf("%s%02d", prefix, highest+1)
}

func nextNumbers(issues []Issue) NextNumbers {
	reqNos := make([]string, 0, len(issues))
	issueNos := make([]string, 0, len(issues))
	for _, is := range issues {
		reqNos = append(reqNos, string(is.ReqNo))
		issueNos = append(issueNos, string(is.IssueNo))
	}
	return NextNumbers{
		ReqNo:   nextNumber(reqNoPrefix, reqNoPattern, reqNos),
		IssueNo: nextNumber(issueNoPrefix, issueNoPattern, issueNos),
	}
}

var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04"}

// receivedAt parses a received date. Unparsable dates return the zero time so
// they sort ahead of dated items.
func receivedAt(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// sortedSet returns the distinct non-blank values in ascending order.
func sortedSet(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
