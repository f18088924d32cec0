package domain

import "fmt"

// Ecosystem identifies one of the two compared L1 platforms.
type Ecosystem string

const (
	EcosystemSui   Ecosystem = "Sui"
	EcosystemAptos Ecosystem = "Aptos"
)

// Ecosystems lists both ecosystems in canonical order.
func Ecosystems() []Ecosystem {
	return []Ecosystem{EcosystemSui, EcosystemAptos}
}

// Token returns the native token symbol for the ecosystem.
func (e Ecosystem) Token() string {
	switch e {
	case EcosystemSui:
		return "SUI"
	case EcosystemAptos:
		return "APT"
	default:
		return string(e)
	}
}

// Other returns the opposite ecosystem.
func (e Ecosystem) Other() Ecosystem {
	if e == EcosystemSui {
		return EcosystemAptos
	}
	return EcosystemSui
}

// ParseEcosystem converts a raw chain name into an Ecosystem.
func ParseEcosystem(s string) (Ecosystem, error) {
	switch s {
	case "Sui", "sui", "SUI":
		return EcosystemSui, nil
	case "Aptos", "aptos", "APT", "APTOS":
		return EcosystemAptos, nil
	default:
		return "", fmt.Errorf("unknown ecosystem %q", s)
	}
}
