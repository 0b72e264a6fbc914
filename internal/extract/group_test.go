package extract

import (
	"testing"

	"clipharvest/internal/media"
)

func testAsset(url, identity string, score int, video, audio bool) media.Asset {
	return media.Asset{
		URL:          url,
		BaseIdentity: identity,
		QualityScore: score,
		ContentType:  media.ContentType{HasVideo: video, HasAudio: audio},
	}
}

func urls(assets []media.Asset) []string {
	out := make([]string, len(assets))
	for i, a := range assets {
		out[i] = a.URL
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestGroupAssets(t *testing.T) {
	tests := []struct {
		name   string
		assets []media.Asset
		want   []string
	}{
		{
			name: "keeps complete high quality encoding",
			assets: []media.Asset{
				testAsset("low", "a", 25, true, false),
				testAsset("high", "a", 100, true, true),
			},
			want: []string{"high"},
		},
		{
			name: "drops group without complete member",
			assets: []media.Asset{
				testAsset("video-only", "a", 25, true, false),
				testAsset("audio-only", "a", 20, false, true),
				testAsset("other", "b", 60, true, true),
			},
			want: []string{"other"},
		},
		{
			name: "tie goes to earliest",
			assets: []media.Asset{
				testAsset("first", "a", 80, true, true),
				testAsset("second", "a", 80, true, true),
			},
			want: []string{"first"},
		},
		{
			name: "keeps discovery order across groups",
			assets: []media.Asset{
				testAsset("b1", "b", 10, true, true),
				testAsset("a1", "a", 50, true, true),
				testAsset("b2", "b", 90, true, true),
				testAsset("c1", "c", 70, true, true),
			},
			want: []string{"a1", "b2", "c1"},
		},
		{
			name:   "empty",
			assets: nil,
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := urls(groupAssets(tt.assets))
			if !equalStrings(got, tt.want) {
				t.Errorf("groupAssets() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSeenSet(t *testing.T) {
	s := newSeenSet()
	if !s.add("a") {
		t.Error("first add should report new")
	}
	if s.add("a") {
		t.Error("second add should report duplicate")
	}
	if len(s) != 1 {
		t.Errorf("len = %d, want 1", len(s))
	}
}
