package enums

import "fmt"

// PixKeyType classifies the payout alias users register for cashouts.
type PixKeyType string

const (
	PixKeyTypeCPFCNPJ PixKeyType = "CPF_CNPJ"
	PixKeyTypeEmail   PixKeyType = "EMAIL"
	PixKeyTypePhone   PixKeyType = "CELULAR"
	PixKeyTypeRandom  PixKeyType = "ALEATORIA"
)

var validPixKeyTypes = []PixKeyType{
	PixKeyTypeCPFCNPJ,
	PixKeyTypeEmail,
	PixKeyTypePhone,
	PixKeyTypeRandom,
}

// IsValid reports whether the value is a known PixKeyType.
func (t PixKeyType) IsValid() bool {
	for _, candidate := range validPixKeyTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParsePixKeyType converts raw input into a PixKeyType.
func ParsePixKeyType(value string) (PixKeyType, error) {
	for _, candidate := range validPixKeyTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pix key type %q", value)
}
