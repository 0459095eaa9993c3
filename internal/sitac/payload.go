package sitac

import (
	"fmt"
	"strings"

	"github.com/crea-to/protocolo-module/internal/domain/model"
)

// Константы контракта saveProtocolo.
const (
	// assuntoCadastro — код предмета обращения "регистрация физического процесса"
	assuntoCadastro = "COD04"
	// setorArquivo — код сектора архива (и отправитель, и получатель)
	setorArquivo = "3383"
)

// BuildProtocoloData строит payload saveProtocolo из протокола и его документов.
// Чистая функция без I/O: одинаковый вход всегда даёт одинаковый payload.
// Вызывается только для финалистических протоколов.
func BuildProtocoloData(p *model.Protocolo, documentos []*model.Documento) *ProtocoloPayload {
	tipoPessoa := "profissional"
	if p.Tipo == model.TipoFinalisticoPJ {
		tipoPessoa = "empresa"
	}

	descricao := fmt.Sprintf(
		"Processo: n° %s. Cadastro de processo físico: ARMÁRIO-%s, PRATELEIRA-%s, CAIXA %s",
		p.Numero, p.Armario, p.Prateleira, p.Caixa,
	)
	if docs := formatDocumentos(documentos); docs != "" {
		descricao += ". " + docs
	}

	despacho := fmt.Sprintf(
		"Processo %s. ARMÁRIO-%s, PRATELEIRA-%s, CAIXA %s.",
		p.Numero, p.Armario, p.Prateleira, p.Caixa,
	)

	return &ProtocoloPayload{
		Interessados: []Interessado{
			{
				TipoPessoa: tipoPessoa,
				CPFCNPJ:    p.CPFCNPJLimpo(),
			},
		},
		Assunto:               assuntoCadastro,
		SetorOrigem:           setorArquivo,
		SetorDestino:          setorArquivo,
		UsuarioDestino:        "",
		DataEmissao:           p.DataEmissao.Format("02/01/2006"),
		Descricao:             descricao,
		EnviarEmailGrupoSetor: false,
		Despachos: []Despacho{
			{
				Descricao:                 despacho,
				ImprimeNovaPagina:         false,
				DisponivelAmbientePublico: true,
			},
		},
	}
}

// formatDocumentos сводит документы в строку "Tipo: observações, Tipo2: obs2".
// Наблюдения обрезаются по пробелам с обеих сторон; при пустом наблюдении
// название типа сохраняет замыкающее двоеточие ("Tipo:").
func formatDocumentos(documentos []*model.Documento) string {
	if len(documentos) == 0 {
		return ""
	}

	parts := make([]string, 0, len(documentos))
	for _, d := range documentos {
		obs := strings.TrimSpace(d.Observacoes)
		part := fmt.Sprintf("%s: %s", d.TipoDocumentoNome, obs)
		parts = append(parts, strings.TrimRight(part, " "))
	}
	return strings.Join(parts, ", ")
}
