// Пакет model — доменные модели Protocolo Module.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Типы процесса (поле tipo таблицы protocolos).
const (
	// TipoFinalisticoPF — финалистический процесс, физическое лицо (CPF, 11 цифр).
	TipoFinalisticoPF = "finalistico_pf"
	// TipoFinalisticoPJ — финалистический процесс, юридическое лицо (CNPJ, 14 цифр).
	TipoFinalisticoPJ = "finalistico_pj"
	// TipoAdministrativo — внутренний административный процесс, без CPF/CNPJ.
	// Никогда не отправляется в SITAC.
	TipoAdministrativo = "administrativo"
)

// Подразделения CREA-TO (поле unidade_crea).
const (
	UnidadeSedePalmas = "sede_palmas"
)

// Unidades — допустимые значения unidade_crea.
var Unidades = []string{
	"sede_palmas",
	"inspetoria_araguaina",
	"inspetoria_augustinopolis",
	"inspetoria_dianopolis",
	"inspetoria_guarai",
	"inspetoria_gurupi",
	"inspetoria_paraiso_tocantins",
	"inspetoria_porto_nacional",
}

// Ошибки валидации Protocolo.
var (
	// ErrCPFCNPJObrigatorio — CPF/CNPJ обязателен для финалистических процессов.
	ErrCPFCNPJObrigatorio = errors.New("CPF/CNPJ обязателен для финалистических процессов")
	// ErrCPFCNPJProibido — CPF/CNPJ не указывается для административных процессов.
	ErrCPFCNPJProibido = errors.New("CPF/CNPJ не указывается для административных процессов")
)

// Protocolo — зарегистрированный физический протокол.
// Хранится в таблице protocolos.
type Protocolo struct {
	// ID — UUID записи
	ID string
	// Numero — уникальный человекочитаемый номер протокола
	Numero string
	// Tipo — тип процесса (finalistico_pf, finalistico_pj, administrativo)
	Tipo string
	// CPFCNPJ — CPF (11 цифр) или CNPJ (14 цифр); может содержать пунктуацию.
	// Обязателен для финалистических процессов, запрещён для административных.
	CPFCNPJ *string
	// Armario — номер шкафа (только цифры, может быть пустым)
	Armario string
	// Prateleira — номер полки (только цифры, может быть пустым)
	Prateleira string
	// Caixa — номер коробки (только цифры, может быть пустым)
	Caixa string
	// UnidadeCrea — подразделение CREA-TO, владеющее протоколом
	UnidadeCrea string
	// Observacoes — свободный текст
	Observacoes string
	// DataEmissao — дата выпуска, устанавливается при создании и не меняется
	DataEmissao time.Time
	// ProtocoloSITAC — номер, присвоенный SITAC (nil до успешной синхронизации)
	ProtocoloSITAC *string
	// CriadoPor — идентификатор создателя (sub из JWT)
	CriadoPor string
	// CriadoEm — время создания записи
	CriadoEm time.Time
	// AtualizadoEm — время последнего обновления
	AtualizadoEm time.Time
}

// IsFinalistico возвращает true для финалистических процессов
// (только они синхронизируются с SITAC).
func (p *Protocolo) IsFinalistico() bool {
	return p.Tipo == TipoFinalisticoPF || p.Tipo == TipoFinalisticoPJ
}

// CPFCNPJLimpo возвращает CPF/CNPJ без пунктуации (только цифры).
// Пустая строка, если CPF/CNPJ не задан.
func (p *Protocolo) CPFCNPJLimpo() string {
	if p.CPFCNPJ == nil {
		return ""
	}
	return LimparDigitos(*p.CPFCNPJ)
}

// Validate проверяет инварианты протокола:
// CPF/CNPJ по типу процесса, только цифры в полях хранения.
func (p *Protocolo) Validate() error {
	if p.Numero == "" {
		return errors.New("номер протокола обязателен")
	}

	switch p.Tipo {
	case TipoFinalisticoPF, TipoFinalisticoPJ:
		limpo := p.CPFCNPJLimpo()
		if limpo == "" {
			return ErrCPFCNPJObrigatorio
		}
		if p.Tipo == TipoFinalisticoPF && len(limpo) != 11 {
			return fmt.Errorf("CPF должен содержать 11 цифр, получено %d", len(limpo))
		}
		if p.Tipo == TipoFinalisticoPJ && len(limpo) != 14 {
			return fmt.Errorf("CNPJ должен содержать 14 цифр, получено %d", len(limpo))
		}
	case TipoAdministrativo:
		if p.CPFCNPJ != nil && *p.CPFCNPJ != "" {
			return ErrCPFCNPJProibido
		}
	default:
		return fmt.Errorf("недопустимый тип процесса %q", p.Tipo)
	}

	for _, campo := range []struct{ nome, valor string }{
		{"armario", p.Armario},
		{"prateleira", p.Prateleira},
		{"caixa", p.Caixa},
	} {
		if campo.valor != "" && !isDigits(campo.valor) {
			return fmt.Errorf("поле %s должно содержать только цифры", campo.nome)
		}
	}

	if p.UnidadeCrea != "" && !IsValidUnidade(p.UnidadeCrea) {
		return fmt.Errorf("недопустимое подразделение %q", p.UnidadeCrea)
	}

	return nil
}

// IsValidTipo проверяет допустимость типа процесса.
func IsValidTipo(tipo string) bool {
	return tipo == TipoFinalisticoPF || tipo == TipoFinalisticoPJ || tipo == TipoAdministrativo
}

// IsValidUnidade проверяет допустимость подразделения.
func IsValidUnidade(unidade string) bool {
	for _, u := range Unidades {
		if u == unidade {
			return true
		}
	}
	return false
}

// LimparDigitos убирает из строки все символы, кроме цифр.
// Используется для нормализации CPF/CNPJ перед отправкой в SITAC.
func LimparDigitos(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// isDigits проверяет, что строка состоит только из цифр.
func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
