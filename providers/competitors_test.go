package providers

import (
	"reflect"
	"testing"

	"geoscan/matcher"
)

func TestLinePatternExtractor(t *testing.T) {
	variants := matcher.BuildVariants("Acme Clinic", "https://acme-clinic.nl", "")
	extractor := LinePatternExtractor{}

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "numbered_list",
			text: "Here are some options:\n1. Tandarts Visser - a practice in Utrecht\n2. Kliniek Noord - modern equipment\n",
			want: []string{"Tandarts Visser", "Kliniek Noord"},
		},
		{
			name: "bullet_list_with_bold",
			text: "• **Mondzorg West** - affordable care\n• Praktijk Zuid: open on weekends",
			want: []string{"Mondzorg West", "Praktijk Zuid"},
		},
		{
			name: "brand_excluded",
			text: "1. Acme Clinic - the market leader\n2. Tandarts Visser - a solid alternative",
			want: []string{"Tandarts Visser"},
		},
		{
			name: "plain_prose_yields_nothing",
			text: "There are many good clinics in the area, each with its own strengths.",
			want: nil,
		},
		{
			name: "duplicates_collapsed",
			text: "1. Tandarts Visser - great\n2. Tandarts Visser - still great",
			want: []string{"Tandarts Visser"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractor.Extract(tt.text, variants)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDomainExtractor(t *testing.T) {
	variants := matcher.BuildVariants("Acme Clinic", "https://acme-clinic.nl", "")
	extractor := DomainExtractor{}

	got := extractor.Extract(
		"Compare acme-clinic.nl with tandartsvisser.nl and https://www.kliniek-noord.nl. "+
			"Background on en.wikipedia.org.", variants)

	want := []string{"tandartsvisser.nl", "kliniek-noord.nl"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract() = %v, want %v", got, want)
	}
}

func TestCleanCompetitorTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"dash_separator", "Tandarts Visser - Tandarts in Utrecht", "Tandarts Visser"},
		{"pipe_separator", "Kliniek Noord | Afspraak maken", "Kliniek Noord"},
		{"no_separator", "Mondzorg West", "Mondzorg West"},
		{"too_short", "A", ""},
		{"en_dash", "Praktijk Zuid – Home", "Praktijk Zuid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanCompetitorTitle(tt.title); got != tt.want {
				t.Errorf("CleanCompetitorTitle(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}
