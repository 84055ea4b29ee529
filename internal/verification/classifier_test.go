package verification

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openwitness/witness-backend/internal/domain/valueobject"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name           string
		corroborations int
		reputation     int
		want           valueobject.VerificationStatus
	}{
		{"corroborations dominate reputation", 2, 10, valueobject.VerificationVerified},
		{"reputation alone gives trusted", 0, 80, valueobject.VerificationTrusted},
		{"threshold reputation", 1, 75, valueobject.VerificationTrusted},
		{"low reputation stays new", 0, 40, valueobject.VerificationNew},
		{"one corroboration is not enough", 1, 0, valueobject.VerificationNew},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.corroborations, tc.reputation))
		})
	}
}

func TestClassify_DowngradeOnReevaluation(t *testing.T) {
	status := Classify(3, 90)
	assert.Equal(t, valueobject.VerificationVerified, status)

	// подтверждения отозваны, репутация просела
	status = Classify(1, 80)
	assert.Equal(t, valueobject.VerificationTrusted, status)

	status = Classify(0, 20)
	assert.Equal(t, valueobject.VerificationNew, status)
}
