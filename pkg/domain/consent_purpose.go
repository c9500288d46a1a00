package domain

import dErrors "custodia/pkg/domain-errors"

// ConsentPurpose identifies why a user's data is processed. The vocabulary
// is closed: retention and erasure reasoning depends on purposes being
// enumerable, so free-form purposes are rejected at the boundary.
type ConsentPurpose string

const (
	ConsentPurposeAITraining ConsentPurpose = "ai_training"
	ConsentPurposeAnalytics  ConsentPurpose = "analytics"
	ConsentPurposeMarketing  ConsentPurpose = "marketing"
	ConsentPurposeProfiling  ConsentPurpose = "profiling"
)

var validConsentPurposes = map[ConsentPurpose]bool{
	ConsentPurposeAITraining: true,
	ConsentPurposeAnalytics:  true,
	ConsentPurposeMarketing:  true,
	ConsentPurposeProfiling:  true,
}

// ParseConsentPurpose constructs a ConsentPurpose from external input.
// Direct casting bypasses validation; call this at trust boundaries.
func ParseConsentPurpose(s string) (ConsentPurpose, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "purpose cannot be empty")
	}
	p := ConsentPurpose(s)
	if !p.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unsupported purpose %q", s)
	}
	return p, nil
}

// IsValid reports whether the purpose is part of the supported vocabulary.
func (p ConsentPurpose) IsValid() bool {
	return validConsentPurposes[p]
}

func (p ConsentPurpose) String() string {
	return string(p)
}
