package sitac

// TokenData — токены, выданные SITAC при логине или обновлении.
// Живут только в кэше процесса, никогда не сохраняются в БД.
type TokenData struct {
	// AccessToken — токен доступа для Bearer-авторизации
	AccessToken string `json:"access_token"`
	// RefreshToken — токен обновления (может отсутствовать)
	RefreshToken string `json:"refresh_token,omitempty"`
	// ExpiresIn — срок жизни access token в секундах
	ExpiresIn int `json:"expires_in"`
}

// Interessado — заинтересованное лицо протокола SITAC.
type Interessado struct {
	// TipoPessoa — "profissional" (физлицо) или "empresa" (юрлицо)
	TipoPessoa string `json:"tipo_pessoa"`
	// CPFCNPJ — CPF или CNPJ, только цифры
	CPFCNPJ string `json:"cpfcnpj"`
}

// Despacho — распоряжение, прикладываемое к протоколу SITAC.
type Despacho struct {
	Descricao                 string `json:"descricao"`
	ImprimeNovaPagina         bool   `json:"imprime_nova_pagina"`
	DisponivelAmbientePublico bool   `json:"disponivel_ambiente_publico"`
}

// ProtocoloPayload — тело запроса POST protocolo/saveProtocolo.
// Имена и вложенность полей — контракт SITAC, менять нельзя.
type ProtocoloPayload struct {
	Interessados          []Interessado `json:"interessados"`
	Assunto               string        `json:"assunto"`
	SetorOrigem           string        `json:"setor_origem"`
	SetorDestino          string        `json:"setor_destino"`
	UsuarioDestino        string        `json:"usuario_destino"`
	DataEmissao           string        `json:"data_emissao"`
	Descricao             string        `json:"descricao"`
	EnviarEmailGrupoSetor bool          `json:"enviar_email_grupo_setor"`
	Despachos             []Despacho    `json:"despachos"`
}

// SaveProtocoloResponse — декодированный JSON-ответ saveProtocolo.
// Карта, а не структура: отсутствие поля "protocolo" должно быть
// отличимо от пустого значения.
type SaveProtocoloResponse map[string]any

// NumeroProtocolo возвращает номер протокола, присвоенный SITAC,
// и признак присутствия поля в ответе.
func (r SaveProtocoloResponse) NumeroProtocolo() (string, bool) {
	if r == nil {
		return "", false
	}
	v, ok := r["protocolo"]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
