// Package fiscal reúne utilitários de documentos fiscais brasileiros (CNPJ/CPF).
package fiscal

import (
	"fmt"
	"unicode"
)

// OnlyDigits remove tudo que não é dígito de um documento ("12.345.678/0001-90" -> "12345678000190").
func OnlyDigits(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.IsDigit(r) {
			out = append(out, r)
		}
	}
	return string(out)
}

// IsValidLength verifica se o documento normalizado tem 11 dígitos (CPF) ou 14 (CNPJ).
func IsValidLength(doc string) bool {
	n := len(OnlyDigits(doc))
	return n == 11 || n == 14
}

// Format aplica a máscara padrão de CNPJ (XX.XXX.XXX/XXXX-XX) ou CPF (XXX.XXX.XXX-XX).
// Documentos com comprimento inesperado são devolvidos como estão.
func Format(doc string) string {
	d := OnlyDigits(doc)
	switch len(d) {
	case 14:
		return fmt.Sprintf("%s.%s.%s/%s-%s", d[:2], d[2:5], d[5:8], d[8:12], d[12:])
	case 11:
		return fmt.Sprintf("%s.%s.%s-%s", d[:3], d[3:6], d[6:9], d[9:])
	default:
		return doc
	}
}
