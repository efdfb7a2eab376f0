package service

import (
	"strings"

	"github.com/symptom-diagnosis-mcp-server/internal/domain"
)

// AffinityMarkers are the lowercase substrings that tie a disease's name
// or description to an age band or sex.
type AffinityMarkers struct {
	Pediatric []string
	Geriatric []string
	Male      []string
	Female    []string
}

// DefaultAffinityMarkers returns the built-in vocabulary. Male markers
// avoid "male" and "men", which are substrings of "female" and "women".
func DefaultAffinityMarkers() AffinityMarkers {
	return AffinityMarkers{
		Pediatric: []string{"儿童", "小儿", "婴儿", "幼儿", "child", "pediatric", "paediatric", "infant", "juvenile"},
		Geriatric: []string{"老年", "退行性", "elderly", "geriatric", "senile", "degenerative", "age-related"},
		Male:      []string{"前列腺", "男性", "睾丸", "prostate", "testicular", "erectile"},
		Female:    []string{"乳腺", "卵巢", "女性", "子宫", "妊娠", "breast", "ovarian", "ovary", "uterine", "pregnan", "menstrua", "women's health"},
	}
}

// AffinityMarkersFromConfig overlays configured lists on the defaults.
// An empty configured list keeps the default for that band.
func AffinityMarkersFromConfig(cfg domain.AffinityMarkersConfig) AffinityMarkers {
	markers := DefaultAffinityMarkers()
	if len(cfg.Pediatric) > 0 {
		markers.Pediatric = normalizeMarkers(cfg.Pediatric)
	}
	if len(cfg.Geriatric) > 0 {
		markers.Geriatric = normalizeMarkers(cfg.Geriatric)
	}
	if len(cfg.Male) > 0 {
		markers.Male = normalizeMarkers(cfg.Male)
	}
	if len(cfg.Female) > 0 {
		markers.Female = normalizeMarkers(cfg.Female)
	}
	return markers
}

func normalizeMarkers(in []string) []string {
	out := make([]string, 0, len(in))
	for _, m := range in {
		m = strings.ToLower(strings.TrimSpace(m))
		if m != "" {
			out = append(out, m)
		}
	}
	return out
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if m != "" && strings.Contains(text, m) {
			return true
		}
	}
	return false
}
