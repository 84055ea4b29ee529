package verification

import "github.com/openwitness/witness-backend/internal/domain/valueobject"

const (
	MinCorroborationsVerified = 2
	MinReputationTrusted      = 75
)

// Classify выводит статус заново из текущих данных. Статус может понижаться.
func Classify(corroborations, reputation int) valueobject.VerificationStatus {
	switch {
	case corroborations >= MinCorroborationsVerified:
		return valueobject.VerificationVerified
	case reputation >= MinReputationTrusted:
		return valueobject.VerificationTrusted
	default:
		return valueobject.VerificationNew
	}
}
