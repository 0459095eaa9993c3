package model

import (
	"errors"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestProtocoloValidate(t *testing.T) {
	tests := []struct {
		name    string
		p       Protocolo
		wantErr bool
	}{
		{
			name: "финалистический PF с валидным CPF",
			p:    Protocolo{Numero: "2026/000123", Tipo: TipoFinalisticoPF, CPFCNPJ: strPtr("064.245.931-10")},
		},
		{
			name: "финалистический PJ с валидным CNPJ",
			p:    Protocolo{Numero: "2026/000124", Tipo: TipoFinalisticoPJ, CPFCNPJ: strPtr("12.345.678/0001-95")},
		},
		{
			name: "административный без CPF/CNPJ",
			p:    Protocolo{Numero: "2026/000125", Tipo: TipoAdministrativo},
		},
		{
			name:    "PF без CPF",
			p:       Protocolo{Numero: "2026/000126", Tipo: TipoFinalisticoPF},
			wantErr: true,
		},
		{
			name:    "PF с CPF неверной длины",
			p:       Protocolo{Numero: "2026/000127", Tipo: TipoFinalisticoPF, CPFCNPJ: strPtr("123456")},
			wantErr: true,
		},
		{
			name:    "PJ с CPF вместо CNPJ",
			p:       Protocolo{Numero: "2026/000128", Tipo: TipoFinalisticoPJ, CPFCNPJ: strPtr("06424593110")},
			wantErr: true,
		},
		{
			name:    "административный с CPF",
			p:       Protocolo{Numero: "2026/000129", Tipo: TipoAdministrativo, CPFCNPJ: strPtr("06424593110")},
			wantErr: true,
		},
		{
			name:    "пустой номер",
			p:       Protocolo{Tipo: TipoAdministrativo},
			wantErr: true,
		},
		{
			name:    "недопустимый тип",
			p:       Protocolo{Numero: "2026/000130", Tipo: "outro"},
			wantErr: true,
		},
		{
			name:    "armario с буквами",
			p:       Protocolo{Numero: "2026/000131", Tipo: TipoAdministrativo, Armario: "A1"},
			wantErr: true,
		},
		{
			name: "цифровые поля хранения",
			p:    Protocolo{Numero: "2026/000132", Tipo: TipoAdministrativo, Armario: "3", Prateleira: "12", Caixa: "7"},
		},
		{
			name:    "недопустимое подразделение",
			p:       Protocolo{Numero: "2026/000133", Tipo: TipoAdministrativo, UnidadeCrea: "filial_sp"},
			wantErr: true,
		},
		{
			name: "валидное подразделение",
			p:    Protocolo{Numero: "2026/000134", Tipo: TipoAdministrativo, UnidadeCrea: "inspetoria_gurupi"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

func TestProtocoloValidate_SentinelErrors(t *testing.T) {
	p := Protocolo{Numero: "2026/1", Tipo: TipoFinalisticoPF}
	if err := p.Validate(); !errors.Is(err, ErrCPFCNPJObrigatorio) {
		t.Errorf("Validate() = %v, ожидается ErrCPFCNPJObrigatorio", err)
	}

	p = Protocolo{Numero: "2026/2", Tipo: TipoAdministrativo, CPFCNPJ: strPtr("06424593110")}
	if err := p.Validate(); !errors.Is(err, ErrCPFCNPJProibido) {
		t.Errorf("Validate() = %v, ожидается ErrCPFCNPJProibido", err)
	}
}

func TestLimparDigitos(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"064.245.931-10", "06424593110"},
		{"12.345.678/0001-95", "12345678000195"},
		{"06424593110", "06424593110"},
		{"", ""},
		{"abc", ""},
	}

	for _, tt := range tests {
		if got := LimparDigitos(tt.in); got != tt.want {
			t.Errorf("LimparDigitos(%q) = %q, ожидается %q", tt.in, got, tt.want)
		}
	}
}

func TestCPFCNPJLimpo(t *testing.T) {
	p := Protocolo{CPFCNPJ: strPtr("064.245.931-10")}
	if got := p.CPFCNPJLimpo(); got != "06424593110" {
		t.Errorf("CPFCNPJLimpo() = %q", got)
	}

	p = Protocolo{}
	if got := p.CPFCNPJLimpo(); got != "" {
		t.Errorf("CPFCNPJLimpo() без CPF/CNPJ = %q, ожидается пустая строка", got)
	}
}

func TestIsFinalistico(t *testing.T) {
	for tipo, want := range map[string]bool{
		TipoFinalisticoPF:  true,
		TipoFinalisticoPJ:  true,
		TipoAdministrativo: false,
	} {
		p := Protocolo{Tipo: tipo}
		if got := p.IsFinalistico(); got != want {
			t.Errorf("IsFinalistico(%s) = %v, ожидается %v", tipo, got, want)
		}
	}
}
