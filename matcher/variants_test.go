package matcher

import (
	"testing"
)

func TestBuildVariants(t *testing.T) {
	tests := []struct {
		name       string
		brandName  string
		websiteURL string
		siteLabel  string
		want       []string
		wantAbsent []string
	}{
		{
			name:       "brand_with_hyphenated_domain",
			brandName:  "Acme Clinic",
			websiteURL: "https://www.acme-clinic.nl/contact",
			want:       []string{"acme clinic", "www.acme-clinic.nl", "acme-clinic.nl", "acme-clinic"},
			wantAbsent: []string{"www", "nl", "com"},
		},
		{
			name:       "cdn_prefix_stripped",
			brandName:  "",
			websiteURL: "cdn.voorbeeld.com",
			want:       []string{"cdn.voorbeeld.com", "voorbeeld.com", "voorbeeld"},
			wantAbsent: []string{"cdn", "com"},
		},
		{
			name:       "site_label_included",
			brandName:  "Bakkerij Jansen",
			websiteURL: "",
			siteLabel:  "Jansen Brood",
			want:       []string{"bakkerij jansen", "jansen brood"},
		},
		{
			name:       "single_char_brand_dropped",
			brandName:  "X",
			websiteURL: "",
			want:       nil,
			wantAbsent: []string{"x"},
		},
		{
			name:       "spaced_form_of_separated_domain",
			brandName:  "",
			websiteURL: "https://tand-arts-praktijk.nl",
			want:       []string{"tand-arts-praktijk", "tand arts praktijk"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vs := BuildVariants(tt.brandName, tt.websiteURL, tt.siteLabel)
			for _, want := range tt.want {
				if !vs.Contains(want) {
					t.Errorf("BuildVariants() missing variant %q, got %v", want, vs.Variants())
				}
			}
			for _, absent := range tt.wantAbsent {
				if vs.Contains(absent) {
					t.Errorf("BuildVariants() should not contain %q, got %v", absent, vs.Variants())
				}
			}
		})
	}
}

func TestBuildVariantsEmpty(t *testing.T) {
	vs := BuildVariants("", "", "")
	if !vs.Empty() {
		t.Errorf("expected empty variant set, got %v", vs.Variants())
	}
}

func TestBuildVariantsDeduplicates(t *testing.T) {
	vs := BuildVariants("acme", "acme.nl", "acme")
	counts := make(map[string]int)
	for _, v := range vs.Variants() {
		counts[v]++
	}
	for v, n := range counts {
		if n > 1 {
			t.Errorf("variant %q appears %d times", v, n)
		}
	}
}

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"full_url", "https://www.acme-clinic.nl/contact?utm=1", "www.acme-clinic.nl"},
		{"bare_host", "acme.nl", "acme.nl"},
		{"http_scheme", "http://Voorbeeld.COM", "voorbeeld.com"},
		{"empty", "", ""},
		{"trailing_dot", "acme.nl.", "acme.nl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractDomain(tt.url); got != tt.want {
				t.Errorf("ExtractDomain(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}
