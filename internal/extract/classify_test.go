package extract

import (
	"strings"
	"testing"

	"clipharvest/internal/media"
)

func TestClassify(t *testing.T) {
	c := NewClassifier(DefaultTables())
	token := testToken(3)

	tests := []struct {
		name           string
		url            string
		wantQuality    string
		wantResolution string
		wantScore      int
		wantVideo      bool
		wantAudio      bool
		wantSize       string
	}{
		{
			name:           "m412 full HD",
			url:            cdnURL("m412", token, 300),
			wantQuality:    QualityHD,
			wantResolution: "1080p",
			wantScore:      100,
			wantVideo:      true,
			wantAudio:      true,
			wantSize:       "~150 MB",
		},
		{
			name:           "m265 video only",
			url:            cdnURL("m265", token, 300),
			wantQuality:    QualityLow,
			wantResolution: "360p",
			wantScore:      25,
			wantVideo:      true,
			wantSize:       "~25 MB",
		},
		{
			name:           "m524 audio only",
			url:            cdnURL("m524", token, 300),
			wantQuality:    QualityLow,
			wantResolution: "Audio",
			wantScore:      20,
			wantAudio:      true,
			wantSize:       "~25 MB",
		},
		{
			name:           "m69 fixed to carry audio",
			url:            cdnURL("m69", token, 300),
			wantQuality:    QualityHD,
			wantResolution: "Auto",
			wantScore:      75,
			wantVideo:      true,
			wantAudio:      true,
			wantSize:       "~150 MB",
		},
		{
			name:           "unknown code with keyword",
			url:            strings.Replace(cdnURL("m412", token, 300), "/m412/", "/sd/", 1),
			wantQuality:    QualitySD,
			wantResolution: "Auto",
			wantScore:      50,
			wantVideo:      true,
			wantAudio:      true,
			wantSize:       "~60 MB",
		},
		{
			name:           "no code and no keyword",
			url:            strings.Replace(cdnURL("m412", token, 300), "/m412/", "/", 1),
			wantQuality:    QualityUnknown,
			wantResolution: "Auto",
			wantScore:      40,
			wantVideo:      true,
			wantAudio:      true,
			wantSize:       "Unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := c.Classify(media.Candidate{URL: tt.url, RuleID: "json-url"})
			if a.Quality != tt.wantQuality {
				t.Errorf("Quality = %q, want %q", a.Quality, tt.wantQuality)
			}
			if a.Resolution != tt.wantResolution {
				t.Errorf("Resolution = %q, want %q", a.Resolution, tt.wantResolution)
			}
			if a.QualityScore != tt.wantScore {
				t.Errorf("QualityScore = %d, want %d", a.QualityScore, tt.wantScore)
			}
			if a.ContentType.HasVideo != tt.wantVideo || a.ContentType.HasAudio != tt.wantAudio {
				t.Errorf("ContentType = %+v, want video=%v audio=%v", a.ContentType, tt.wantVideo, tt.wantAudio)
			}
			if a.EstimatedSize != tt.wantSize {
				t.Errorf("EstimatedSize = %q, want %q", a.EstimatedSize, tt.wantSize)
			}
			if a.Format != "mp4" {
				t.Errorf("Format = %q, want mp4", a.Format)
			}
			if a.RuleID != "json-url" {
				t.Errorf("RuleID = %q, want json-url", a.RuleID)
			}
		})
	}
}

func TestClassifyDescriptions(t *testing.T) {
	c := NewClassifier(DefaultTables())
	token := testToken(4)

	tests := map[string]string{
		"m412": descVideoAudio,
		"m264": descVideoOnly,
		"m524": descAudioOnly,
	}
	for code, want := range tests {
		a := c.Classify(media.Candidate{URL: cdnURL(code, token, 250)})
		if a.ContentType.Description != want {
			t.Errorf("%s: Description = %q, want %q", code, a.ContentType.Description, want)
		}
		if a.FormatCode != code {
			t.Errorf("%s: FormatCode = %q", code, a.FormatCode)
		}
	}
}

func TestBaseIdentity(t *testing.T) {
	c := NewClassifier(DefaultTables())

	tests := []struct {
		name string
		url  string
		want string
	}{
		{
			name: "opaque token prefix",
			url:  cdnURL("m412", testToken(5), 250),
			want: testToken(5)[:baseIdentityLength],
		},
		{
			name: "numeric path id",
			url:  "https://video.xx.fbcdn.net/v/t42.1790-2/123456789_short.mp4?oh=1",
			want: "id:123456789",
		},
		{
			name: "bare path",
			url:  "https://cdn.example.com/media/clip.mp4",
			want: "path:cdn.example.com/media/clip.mp4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.baseIdentity(tt.url); got != tt.want {
				t.Errorf("baseIdentity() = %q, want %q", got, tt.want)
			}
		})
	}

	// Encodings of the same asset share the identity.
	a := c.baseIdentity(cdnURL("m412", testToken(6), 250))
	b := c.baseIdentity(cdnURL("m265", testToken(6), 300))
	if a != b {
		t.Errorf("identities differ across encodings: %q vs %q", a, b)
	}
}

func TestQualityLabelNeedsDelimiters(t *testing.T) {
	tests := map[string]string{
		"https://x.fbcdn.net/v/720p/a.mp4":       QualityHD,
		"https://x.fbcdn.net/v/clip_4k.mp4":      Quality4K,
		"https://x.fbcdn.net/v/shdw/a.mp4":       QualityUnknown,
		"https://x.fbcdn.net/v/a.mp4?q=low":      QualityLow,
		"https://x.fbcdn.net/v/below/a.mp4":      QualityUnknown,
		"https://x.fbcdn.net/v/480/a.mp4?sd=1":   QualitySD,
	}
	for u, want := range tests {
		if got := qualityLabel(u); got != want {
			t.Errorf("qualityLabel(%q) = %q, want %q", u, got, want)
		}
	}
}
