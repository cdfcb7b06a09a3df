package render

import (
	"regexp"
	"strings"
	"sync"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
)

var (
	mdOnce      sync.Once
	mdConverter *md.Converter

	excessiveLinesRe = regexp.MustCompile(`\n{3,}`)
)

func converter() *md.Converter {
	mdOnce.Do(func() {
		mdConverter = md.NewConverter("", true, nil)
		mdConverter.Use(plugin.GitHubFlavored())
	})
	return mdConverter
}

// PlainText converts an EMAIL body to markdown-flavoured text for previews and
// for transports that want a text/plain alternative. If conversion fails the
// editable excerpt tokenizer is used to strip the markup instead.
func PlainText(body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	out, err := converter().ConvertString(body)
	if err != nil {
		var parts []string
		for _, b := range blocks(body) {
			if t := blockText(body[b.innerStart:b.innerEnd]); t != "" {
				parts = append(parts, t)
			}
		}
		return strings.Join(parts, blockSeparator)
	}
	return strings.TrimSpace(excessiveLinesRe.ReplaceAllString(out, "\n\n"))
}
