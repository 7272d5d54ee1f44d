// Package cep proxies Brazilian postal-code (CEP) lookups to the upstream
// ViaCEP service and caches successful answers in Redis. The storefront uses
// it to autofill street, district, city, and state on the address form.
package cep

import "encoding/json"

// Address is the normalized lookup result returned to clients.
type Address struct {
	CEP      string `json:"cep"`
	Street   string `json:"street"`
	District string `json:"district"`
	City     string `json:"city"`
	State    string `json:"state"`
}

// viaCEPResponse mirrors the upstream ViaCEP JSON payload. The erro field
// has shipped both as a bool and as the string "true", so it is kept raw and
// treated as "present means unknown CEP".
type viaCEPResponse struct {
	CEP        string          `json:"cep"`
	Logradouro string          `json:"logradouro"`
	Bairro     string          `json:"bairro"`
	Localidade string          `json:"localidade"`
	UF         string          `json:"uf"`
	Erro       json.RawMessage `json:"erro,omitempty"`
}

func (r viaCEPResponse) toAddress() Address {
	return Address{
		CEP:      r.CEP,
		Street:   r.Logradouro,
		District: r.Bairro,
		City:     r.Localidade,
		State:    r.UF,
	}
}
