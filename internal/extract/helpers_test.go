package extract

import (
	"fmt"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const testHost = "video.xx.fbcdn.net"

// testToken returns a 42-character opaque token whose first 30 characters
// differ for every n.
func testToken(n int) string {
	return fmt.Sprintf("%02dAbCdEfGhIjKlMnOpQrStUvWxYz0123456789xyz", n)
}

// cdnURL builds a URL that passes every validator condition, padded to at
// least length characters.
func cdnURL(code, token string, length int) string {
	u := "https://" + testHost + "/o1/v/t2/f2/" + code + "/" + token + ".mp4" +
		"?_nc_cat=108&_nc_ht=video.xx&_nc_ohc=Qx7bLm9&oh=00_AfBc12&oe=67A1B2C3"
	if pad := length - len(u) - len("&pad="); pad > 0 {
		u += "&pad=" + strings.Repeat("a", pad)
	}
	return u
}

func htmlPage(body string) string {
	return "<!DOCTYPE html><html><head><title>post</title></head><body>" + body + "</body></html>"
}

func videoTag(u string) string {
	return `<video src="` + u + `"></video>`
}

func parseHTML(t *testing.T, page string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		t.Fatalf("parsing HTML: %v", err)
	}
	return doc
}
