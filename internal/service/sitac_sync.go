// sitac_sync.go — оркестратор синхронизации протоколов с SITAC.
//
// SubmitOnCreate вызывается сервисом протоколов ровно один раз после
// успешного создания записи (при редактировании не вызывается). Любой сбой
// SITAC оставляет протокол валидным и несинхронизированным: создание никогда
// не блокируется и пользователь ошибки не видит, диагностика уходит в логи.
//
// Prometheus-метрики:
//   - pm_sitac_submissions_total — отправки по исходам (success, failed, skipped)
//   - pm_sitac_submission_duration_seconds — длительность отправки
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/crea-to/protocolo-module/internal/domain/model"
	"github.com/crea-to/protocolo-module/internal/sitac"
)

// Prometheus-метрики отправки протоколов в SITAC.
var (
	sitacSubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pm_sitac_submissions_total",
		Help: "Количество отправок протоколов в SITAC по исходам",
	}, []string{"outcome"}) // outcome: success, failed, skipped

	sitacSubmissionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pm_sitac_submission_duration_seconds",
		Help:    "Длительность отправки протокола в SITAC",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms … ~25s
	})
)

// sitacSubmitter — узкий интерфейс клиента SITAC (для подмены в тестах).
type sitacSubmitter interface {
	Configured() bool
	SubmitProtocolo(ctx context.Context, payload *sitac.ProtocoloPayload) (bool, sitac.SaveProtocoloResponse)
}

// protocoloSITACStore — узкий интерфейс репозитория для точечного обновления.
type protocoloSITACStore interface {
	SetProtocoloSITAC(ctx context.Context, id, protocoloSITAC string) error
}

// documentoLister — чтение документов протокола для payload.
type documentoLister interface {
	ListByProtocolo(ctx context.Context, protocoloID string) ([]*model.Documento, error)
}

// SITACSyncService — оркестратор синхронизации протоколов с SITAC.
type SITACSyncService struct {
	client     sitacSubmitter
	protocolos protocoloSITACStore
	documentos documentoLister
	logger     *slog.Logger
}

// NewSITACSyncService создаёт оркестратор синхронизации.
func NewSITACSyncService(
	client sitacSubmitter,
	protocolos protocoloSITACStore,
	documentos documentoLister,
	logger *slog.Logger,
) *SITACSyncService {
	return &SITACSyncService{
		client:     client,
		protocolos: protocolos,
		documentos: documentos,
		logger:     logger.With(slog.String("component", "sitac_sync")),
	}
}

// SubmitOnCreate отправляет только что созданный протокол в SITAC.
// Административные протоколы и работа без credentials — корректный пропуск.
// Результат возвращается вызывающему для логирования и нигде не
// превращается в ошибку создания.
func (s *SITACSyncService) SubmitOnCreate(ctx context.Context, p *model.Protocolo) *model.SyncResult {
	result := &model.SyncResult{
		ProtocoloID: p.ID,
		StartedAt:   time.Now(),
	}
	defer func() { result.CompletedAt = time.Now() }()

	if !p.IsFinalistico() {
		result.Skipped = model.SkipAdministrativo
		sitacSubmissionsTotal.WithLabelValues("skipped").Inc()
		s.logger.Debug("Протокол не отправляется в SITAC: административный тип",
			slog.String("protocolo_id", p.ID),
		)
		return result
	}

	if !s.client.Configured() {
		result.Skipped = model.SkipSemCredenciais
		sitacSubmissionsTotal.WithLabelValues("skipped").Inc()
		s.logger.Warn("Протокол не отправлен в SITAC: credentials не сконфигурированы",
			slog.String("protocolo_id", p.ID),
			slog.String("numero", p.Numero),
		)
		return result
	}

	s.submit(ctx, p, result)
	return result
}

// Resubmit — ручная повторная отправка протокола (корректирующее действие
// publisher). В отличие от SubmitOnCreate возвращает ошибку для ответа API.
func (s *SITACSyncService) Resubmit(ctx context.Context, p *model.Protocolo) (*model.SyncResult, error) {
	if !p.IsFinalistico() {
		return nil, ErrNaoFinalistico
	}
	if !s.client.Configured() {
		return nil, ErrSITACNaoConfigurado
	}

	result := &model.SyncResult{
		ProtocoloID: p.ID,
		StartedAt:   time.Now(),
	}
	s.submit(ctx, p, result)
	result.CompletedAt = time.Now()
	return result, nil
}

// submit строит payload, отправляет его и сохраняет присвоенный номер.
func (s *SITACSyncService) submit(ctx context.Context, p *model.Protocolo, result *model.SyncResult) {
	documentos, err := s.documentos.ListByProtocolo(ctx, p.ID)
	if err != nil {
		// Payload без перечня документов всё равно валиден
		s.logger.Warn("Не удалось прочитать документы протокола для payload",
			slog.String("protocolo_id", p.ID),
			slog.String("error", err.Error()),
		)
	}

	payload := sitac.BuildProtocoloData(p, documentos)

	result.Submitted = true
	start := time.Now()
	ok, resp := s.client.SubmitProtocolo(ctx, payload)
	sitacSubmissionDuration.Observe(time.Since(start).Seconds())

	if !ok {
		sitacSubmissionsTotal.WithLabelValues("failed").Inc()
		s.logger.Error("Протокол не принят SITAC, запись остаётся несинхронизированной",
			slog.String("protocolo_id", p.ID),
			slog.String("numero", p.Numero),
		)
		return
	}

	result.Success = true
	sitacSubmissionsTotal.WithLabelValues("success").Inc()

	numero, present := resp.NumeroProtocolo()
	if !present {
		// Транспортный успех без номера: аномалия, локальная запись не меняется
		s.logger.Warn("Ответ SITAC без поля protocolo, локальная запись не обновлена",
			slog.String("protocolo_id", p.ID),
			slog.String("numero", p.Numero),
		)
		return
	}

	if err := s.protocolos.SetProtocoloSITAC(ctx, p.ID, numero); err != nil {
		s.logger.Error("Не удалось сохранить номер SITAC",
			slog.String("protocolo_id", p.ID),
			slog.String("protocolo_sitac", numero),
			slog.String("error", err.Error()),
		)
		return
	}

	result.ProtocoloSITAC = numero
	s.logger.Info("Протокол синхронизирован с SITAC",
		slog.String("protocolo_id", p.ID),
		slog.String("numero", p.Numero),
		slog.String("protocolo_sitac", numero),
	)
}
