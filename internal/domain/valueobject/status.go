package valueobject

import "github.com/openwitness/witness-backend/internal/pkg/apperror"

// VerificationStatus — производное состояние проверки свидетельства.
// Статус не храповик: он пересчитывается из текущих входных данных и может понижаться.
type VerificationStatus string

const (
	VerificationNew      VerificationStatus = "new"
	VerificationTrusted  VerificationStatus = "trusted"
	VerificationVerified VerificationStatus = "verified"
)

func (s VerificationStatus) IsValid() bool {
	switch s {
	case VerificationNew, VerificationTrusted, VerificationVerified:
		return true
	}
	return false
}

func (s VerificationStatus) String() string {
	return string(s)
}

func NewVerificationStatus(status string) (VerificationStatus, error) {
	s := VerificationStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус проверки")
	}
	return s, nil
}
