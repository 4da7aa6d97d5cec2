package generator

import (
	"regexp"
	"strings"
)

var titleRe = regexp.MustCompile(`(?m)^#\s+(.+)$`)

// Summarize 提取（可能不完整的）文档的标题和摘要。
func Summarize(md string) Summary {
	md = strings.TrimSpace(md)
	if md == "" {
		return Summary{}
	}
	digest := extractDigest(md)
	if digest == "" {
		digest = defaultDigest(md, 120)
	}
	return Summary{
		Title:  extractTitle(md),
		Digest: digest,
	}
}

func extractTitle(md string) string {
	m := titleRe.FindStringSubmatch(md)
	if len(m) >= 2 {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// 摘要取首段（去掉标题行）。
func extractDigest(md string) string {
	for _, line := range strings.Split(md, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return line
	}
	return ""
}

func defaultDigest(md string, limit int) string {
	joined := strings.Join(strings.Fields(md), " ")
	r := []rune(joined)
	if len(r) <= limit {
		return joined
	}
	return string(r[:limit])
}
