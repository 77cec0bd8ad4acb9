package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"New MRI Wing Opens", "new-mri-wing-opens"},
		{"  Flu Season: What To Know  ", "flu-season-what-to-know"},
		{"COVID-19 Update!!", "covid-19-update"},
		{"---", ""},
		{"Already-A-Slug", "already-a-slug"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Slugify(tc.in), "input %q", tc.in)
	}
}

func TestKindIsValid(t *testing.T) {
	assert.True(t, KindNews.IsValid())
	assert.True(t, KindDisease.IsValid())
	assert.True(t, KindInvention.IsValid())
	assert.False(t, Kind("gossip").IsValid())
}
