package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/qs3c/contract_critic/internal/analyzer"
	"github.com/qs3c/contract_critic/internal/model"
	"github.com/qs3c/contract_critic/internal/pkg/logger"
	"github.com/qs3c/contract_critic/internal/pkg/storage"
	"github.com/qs3c/contract_critic/internal/repository"
)

// 流水线阶段
const (
	StageExtracting = "extracting"
	StageAnalyzing  = "analyzing"
	StageParsing    = "parsing"
	StageSaving     = "saving"
)

var ErrEmptyDocument = fmt.Errorf("%w: 未提取到任何文本", analyzer.ErrExtraction)

// StageError 流水线某一阶段的失败
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Task 一次分析请求
type Task struct {
	Contract     *model.Contract
	AnalysisType string
	Clause       string
}

// Processor 在请求内同步执行 提取 -> 组装提示词 -> 调用模型 -> 解析评分 -> 保存
type Processor struct {
	contractRepo *repository.ContractRepository
	analysisRepo *repository.AnalysisRepository
	failureRepo  *repository.FailureRepository
	store        storage.Storage
	llm          analyzer.Completer
}

// NewProcessor 创建流水线处理器
func NewProcessor(
	contractRepo *repository.ContractRepository,
	analysisRepo *repository.AnalysisRepository,
	failureRepo *repository.FailureRepository,
	store storage.Storage,
	llm analyzer.Completer,
) *Processor {
	return &Processor{
		contractRepo: contractRepo,
		analysisRepo: analysisRepo,
		failureRepo:  failureRepo,
		store:        store,
		llm:          llm,
	}
}

// Process 执行一次分析，成功时返回新写入的 Analysis
func (p *Processor) Process(ctx context.Context, task *Task) (*model.Analysis, error) {
	if !analyzer.ValidAnalysisType(task.AnalysisType) {
		return nil, fmt.Errorf("%w: %q", analyzer.ErrUnknownAnalysisType, task.AnalysisType)
	}

	contract := task.Contract
	start := time.Now()
	log := logger.WithFields(logrus.Fields{
		"contract_id":   contract.ID,
		"user_id":       contract.UserID,
		"analysis_type": task.AnalysisType,
	})

	if err := p.contractRepo.UpdateStatus(contract.ID, model.ContractStatusProcessing, ""); err != nil {
		return nil, fmt.Errorf("failed to update contract status: %w", err)
	}

	var (
		modelUsed string
		raw       string
	)
	fail := func(stage string, err error) error {
		p.recordFailure(contract.ID, stage, err, modelUsed, raw)
		log.WithFields(logrus.Fields{
			"stage": stage,
			"kind":  analyzer.Kind(err),
		}).WithError(err).Warn("contract analysis failed")
		return &StageError{Stage: stage, Err: err}
	}

	// Step 1: 提取文本
	log.Info("extracting contract text")
	doc, err := p.extract(ctx, contract.StorageKey)
	if err != nil {
		return nil, fail(StageExtracting, err)
	}

	// Step 2: 组装提示词并调用模型
	var prompt string
	if task.Clause != "" {
		prompt = analyzer.FormatClausePrompt(doc.CleanedText, task.Clause)
	} else if prompt, err = analyzer.FormatPrompt(doc.CleanedText, task.AnalysisType); err != nil {
		return nil, fail(StageAnalyzing, err)
	}

	modelUsed = p.llm.SelectModel(utf8.RuneCountInString(doc.CleanedText), task.AnalysisType)
	log.WithFields(logrus.Fields{
		"model": modelUsed,
		"pages": doc.PageCount,
		"words": doc.WordCount,
	}).Info("calling language model")

	completion, err := p.llm.Complete(ctx, modelUsed, prompt)
	if err != nil {
		return nil, fail(StageAnalyzing, err)
	}
	raw = completion.Content
	if completion.Model != "" {
		modelUsed = completion.Model
	}

	// Step 3: 解析与评分
	result, err := analyzer.ParseResponse(completion.Content)
	if err != nil {
		return nil, fail(StageParsing, err)
	}
	score, level, categoryScores := analyzer.Score(result)

	// Step 4: 保存
	analysis, err := buildAnalysis(contract.ID, task.AnalysisType, modelUsed, completion, result, score, level, categoryScores)
	if err != nil {
		return nil, fail(StageSaving, err)
	}
	analysis.ProcessingTimeMs = time.Since(start).Milliseconds()

	if err := p.analysisRepo.Create(analysis, analyzer.ExtractRiskFactors(result), contractUpdates(result)); err != nil {
		return nil, fail(StageSaving, err)
	}

	log.WithFields(logrus.Fields{
		"analysis_id":  analysis.ID,
		"model":        modelUsed,
		"risk_score":   score,
		"risk_level":   level,
		"total_tokens": completion.TotalTokens,
		"elapsed_ms":   analysis.ProcessingTimeMs,
	}).Info("contract analysis completed")

	return analysis, nil
}

func (p *Processor) extract(ctx context.Context, key string) (*analyzer.Document, error) {
	format, err := analyzer.NormalizeFormat(filepath.Ext(key))
	if err != nil {
		return nil, err
	}

	path, cleanup, err := storage.FetchToTemp(ctx, p.store, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", analyzer.ErrExtraction, err)
	}
	defer cleanup()

	doc, err := analyzer.Extract(path, format)
	if err != nil {
		return nil, err
	}
	if doc.CleanedText == "" {
		return nil, ErrEmptyDocument
	}
	return doc, nil
}

// recordFailure 合同置为 error 并写入失败记录，自身的错误只记日志
func (p *Processor) recordFailure(contractID int64, stage string, cause error, modelUsed, raw string) {
	if err := p.contractRepo.UpdateStatus(contractID, model.ContractStatusError, cause.Error()); err != nil {
		logger.LogError("worker", "recordFailure", contractID, err)
	}

	failure := &model.AnalysisFailure{
		ContractID: contractID,
		Stage:      stage,
		Kind:       analyzer.Kind(cause),
		Message:    cause.Error(),
		ModelUsed:  modelUsed,
	}
	if errors.Is(cause, analyzer.ErrMalformedResponse) {
		failure.RawResponse = raw
	}
	if err := p.failureRepo.Create(failure); err != nil {
		logger.LogError("worker", "recordFailure", contractID, err)
	}
}

func buildAnalysis(
	contractID int64,
	analysisType, modelUsed string,
	completion *analyzer.Completion,
	result *analyzer.Result,
	score float64,
	level string,
	categoryScores map[string]float64,
) (*model.Analysis, error) {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	scoresJSON, err := json.Marshal(categoryScores)
	if err != nil {
		return nil, err
	}

	return &model.Analysis{
		ContractID:       contractID,
		ModelUsed:        modelUsed,
		AnalysisType:     analysisType,
		RiskScore:        score,
		RiskLevel:        level,
		CategoryScores:   datatypes.JSON(scoresJSON),
		Result:           datatypes.JSON(resultJSON),
		PromptTokens:     completion.PromptTokens,
		CompletionTokens: completion.CompletionTokens,
		TotalTokens:      completion.TotalTokens,
	}, nil
}

// contractUpdates 分析成功后回写合同类型和日期
func contractUpdates(result *analyzer.Result) map[string]interface{} {
	fields := map[string]interface{}{
		"status":        model.ContractStatusAnalyzed,
		"error_message": "",
		"contract_type": result.ContractType,
	}
	if result.Dates == nil {
		return fields
	}

	dates := map[string]string{
		"execution_date":   result.Dates.ExecutionDate,
		"effective_date":   result.Dates.EffectiveDate,
		"expiration_date":  result.Dates.ExpirationDate,
		"termination_date": result.Dates.TerminationDate,
	}
	for column, value := range dates {
		if t := analyzer.ParseDate(value); t != nil {
			fields[column] = *t
		}
	}
	return fields
}
