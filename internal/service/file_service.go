package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"sort"
	"strings"
	"study_buddy_backend/internal/model"
	"study_buddy_backend/internal/repository"
	"study_buddy_backend/internal/store"
	"study_buddy_backend/internal/util"
	"study_buddy_backend/pkg/logger"
	"study_buddy_backend/pkg/monitoring"
	"time"

	"go.uber.org/zap"
)

const (
	// 提交给 AI 分析的提取文本截断长度
	analysisPromptLimit = 3000

	analysisSummaryLimit = 200

	fileAnalysisSystemPrompt = "You are a study assistant that analyzes learning materials. Identify the subject, summarize the key concepts, and suggest how a student should study this material."
)

// FileAnalysisView 文件分析视图
type FileAnalysisView struct {
	ID            string    `json:"id"`
	FileName      string    `json:"fileName"`
	OriginalName  string    `json:"originalName"`
	FileSize      int64     `json:"fileSize"`
	MimeType      string    `json:"mimeType"`
	Analysis      string    `json:"analysis"`
	Summary       string    `json:"summary"`
	IsAIGenerated bool      `json:"isAIGenerated"`
	CreatedAt     time.Time `json:"createdAt"`
}

type FileService struct {
	AI           AIClient
	Storage      *StorageService
	AnalysisRepo *repository.FileAnalysisRepository
	ActivityRepo *repository.ActivityRepository
	Guests       *store.GuestStore
	MaxSizeBytes int64
}

func NewFileService(ai AIClient, storage *StorageService, analysisRepo *repository.FileAnalysisRepository, activityRepo *repository.ActivityRepository, guests *store.GuestStore, maxSizeMB int64) *FileService {
	return &FileService{
		AI:           ai,
		Storage:      storage,
		AnalysisRepo: analysisRepo,
		ActivityRepo: activityRepo,
		Guests:       guests,
		MaxSizeBytes: maxSizeMB * 1024 * 1024,
	}
}

// AnalyzeUpload 校验、落盘并分析上传的学习资料。
// AI 不可用时生成基于文本特征的启发式分析
func (s *FileService) AnalyzeUpload(ctx context.Context, userID uint, header *multipart.FileHeader) (*FileAnalysisView, error) {
	if header.Size > s.MaxSizeBytes {
		return nil, fmt.Errorf("file too large: %d bytes (limit %d)", header.Size, s.MaxSizeBytes)
	}
	if !util.IsAllowedExtension(header.Filename) {
		return nil, fmt.Errorf("file type not supported: %s", filepath.Ext(header.Filename))
	}

	src, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(src); err != nil {
		return nil, err
	}
	content := buf.Bytes()

	mimeType := header.Header.Get("Content-Type")
	if _, err := util.ValidateMimeType(bytes.NewReader(content), util.AllowedUploadMimeTypes); err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	storedName := model.GenerateUUID() + ext
	if _, err := s.Storage.Upload(ctx, storedName, bytes.NewReader(content), header.Size, mimeType); err != nil {
		return nil, err
	}

	extracted := extractText(content, mimeType, header.Filename)
	analysis, isAI := s.analyzeContent(header.Filename, extracted)

	view := &FileAnalysisView{
		ID:            util.NewTimeID(),
		FileName:      storedName,
		OriginalName:  header.Filename,
		FileSize:      header.Size,
		MimeType:      mimeType,
		Analysis:      analysis,
		Summary:       deriveSummary(analysis),
		IsAIGenerated: isAI,
		CreatedAt:     time.Now(),
	}

	s.saveAnalysis(userID, view, extracted)

	if userID != 0 {
		s.recordActivity(userID, view.ID, header.Filename)
	}
	return view, nil
}

// extractText 文本类文件原样读取，其余类型用固定占位说明，
// 二进制格式的解析暂不支持
func extractText(content []byte, mimeType, filename string) string {
	if util.IsTextLike(mimeType, filename) {
		return string(content)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case mimeType == util.MimePDF || ext == ".pdf":
		return fmt.Sprintf("[PDF Document: %s] Text extraction from PDF files is not yet supported. Analysis is based on the file name and metadata.", filename)
	case ext == ".doc" || ext == ".docx":
		return fmt.Sprintf("[Word Document: %s] Text extraction from Word documents is not yet supported. Analysis is based on the file name and metadata.", filename)
	case ext == ".ppt" || ext == ".pptx":
		return fmt.Sprintf("[Presentation: %s] Text extraction from presentations is not yet supported. Analysis is based on the file name and metadata.", filename)
	case util.IsImage(mimeType):
		return fmt.Sprintf("[Image File: %s] Image content analysis is not yet supported. Analysis is based on the file name and metadata.", filename)
	default:
		return fmt.Sprintf("[File: %s] Content extraction for this file type is not supported.", filename)
	}
}

func (s *FileService) analyzeContent(filename, extracted string) (string, bool) {
	prompt := extracted
	if len(prompt) > analysisPromptLimit {
		prompt = prompt[:analysisPromptLimit]
	}
	prompt = fmt.Sprintf("Analyze this study material (file name: %s):\n\n%s", filename, prompt)

	analysis, err := s.AI.Complete(fileAnalysisSystemPrompt, prompt)
	if err != nil {
		logger.Log.Warn("AI file analysis failed, using heuristic analysis",
			zap.String("file", filename), zap.Error(err))
		monitoring.AIFallback("files")
		return heuristicAnalysis(filename, extracted), false
	}
	return analysis, true
}

// heuristicAnalysis 基于文本特征的本地分析
func heuristicAnalysis(filename, text string) string {
	words := len(strings.Fields(text))
	lines := len(strings.Split(text, "\n"))

	var traits []string
	if strings.ContainsAny(text, "=+") && strings.ContainsAny(text, "0123456789") {
		traits = append(traits, "contains formulas or calculations")
	}
	if strings.Contains(text, "- ") || strings.Contains(text, "1.") {
		traits = append(traits, "contains lists or enumerated points")
	}

	subject := "general studies"
	lower := strings.ToLower(text + " " + filename)
	switch {
	case strings.Contains(lower, "math") || strings.Contains(lower, "equation") || strings.Contains(lower, "algebra"):
		subject = "mathematics"
	case strings.Contains(lower, "science") || strings.Contains(lower, "physics") || strings.Contains(lower, "chemistry") || strings.Contains(lower, "biology"):
		subject = "science"
	case strings.Contains(lower, "history") || strings.Contains(lower, "century") || strings.Contains(lower, "war"):
		subject = "history"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "This document appears to be related to %s. ", subject)
	fmt.Fprintf(&b, "It contains approximately %d words across %d lines. ", words, lines)
	if len(traits) > 0 {
		fmt.Fprintf(&b, "The material %s. ", strings.Join(traits, " and "))
	}
	b.WriteString("Review the main points, take notes on unfamiliar terms, and test yourself on the key concepts to study this material effectively.")
	return b.String()
}

func deriveSummary(analysis string) string {
	runes := []rune(analysis)
	if len(runes) <= analysisSummaryLimit {
		return analysis
	}
	return string(runes[:analysisSummaryLimit]) + "..."
}

func (s *FileService) saveAnalysis(userID uint, view *FileAnalysisView, extracted string) {
	if userID != 0 && s.AnalysisRepo != nil {
		record := &model.FileAnalysis{
			ID:               view.ID,
			UserID:           userID,
			FileName:         view.FileName,
			OriginalName:     view.OriginalName,
			FilePath:         s.Storage.GetURL(view.FileName),
			FileSize:         view.FileSize,
			MimeType:         view.MimeType,
			ExtractedText:    extracted,
			Analysis:         view.Analysis,
			Summary:          view.Summary,
			ProcessingStatus: model.StatusCompleted,
			IsAIGenerated:    view.IsAIGenerated,
		}
		if err := s.AnalysisRepo.Create(record); err == nil {
			return
		} else {
			logger.Log.Warn("file analysis persistence degraded to in-memory store",
				zap.Uint("user_id", userID), zap.Error(err))
			monitoring.PersistenceDegraded("files")
		}
	}

	s.Guests.SaveAnalysis(&store.AnalysisRecord{
		ID:            view.ID,
		OwnerID:       userID,
		FileName:      view.FileName,
		OriginalName:  view.OriginalName,
		FilePath:      s.Storage.GetURL(view.FileName),
		FileSize:      view.FileSize,
		MimeType:      view.MimeType,
		ExtractedText: extracted,
		Analysis:      view.Analysis,
		Summary:       view.Summary,
		IsAIGenerated: view.IsAIGenerated,
		CreatedAt:     view.CreatedAt,
	})
}

// List 按上传时间倒序返回分析记录
func (s *FileService) List(userID uint) ([]FileAnalysisView, error) {
	views := []FileAnalysisView{}
	seen := make(map[string]bool)

	if userID != 0 && s.AnalysisRepo != nil {
		records, err := s.AnalysisRepo.FindByUser(userID)
		if err != nil {
			logger.Log.Warn("listing file analyses from database failed", zap.Error(err))
			monitoring.PersistenceDegraded("files")
		} else {
			for _, record := range records {
				seen[record.ID] = true
				views = append(views, analysisViewFromModel(&record))
			}
		}
	}

	for _, rec := range s.Guests.ListAnalyses(userID) {
		if seen[rec.ID] {
			continue
		}
		views = append(views, analysisViewFromRecord(rec))
	}

	sort.Slice(views, func(i, j int) bool {
		return views[i].CreatedAt.After(views[j].CreatedAt)
	})
	return views, nil
}

func (s *FileService) Get(userID uint, id string) (*FileAnalysisView, error) {
	if userID != 0 && s.AnalysisRepo != nil {
		record, err := s.AnalysisRepo.FindByID(id, userID)
		if err == nil {
			view := analysisViewFromModel(record)
			return &view, nil
		}
	}

	rec, ok := s.Guests.GetAnalysis(id, userID)
	if !ok {
		return nil, util.ErrAnalysisNotFound
	}
	view := analysisViewFromRecord(rec)
	return &view, nil
}

// Delete 删除记录与存储文件，文件已不存在不算错误
func (s *FileService) Delete(ctx context.Context, userID uint, id string) error {
	var storedName string

	if userID != 0 && s.AnalysisRepo != nil {
		if record, err := s.AnalysisRepo.FindByID(id, userID); err == nil {
			storedName = record.FileName
			if err := s.AnalysisRepo.Delete(id, userID); err != nil {
				return err
			}
		}
	}

	if rec, ok := s.Guests.DeleteAnalysis(id, userID); ok {
		storedName = rec.FileName
	}

	if storedName == "" {
		return util.ErrAnalysisNotFound
	}

	if err := s.Storage.Delete(ctx, storedName); err != nil {
		logger.Log.Warn("deleting stored file failed, record removed anyway",
			zap.String("file", storedName), zap.Error(err))
	}
	return nil
}

func analysisViewFromModel(record *model.FileAnalysis) FileAnalysisView {
	return FileAnalysisView{
		ID:            record.ID,
		FileName:      record.FileName,
		OriginalName:  record.OriginalName,
		FileSize:      record.FileSize,
		MimeType:      record.MimeType,
		Analysis:      record.Analysis,
		Summary:       record.Summary,
		IsAIGenerated: record.IsAIGenerated,
		CreatedAt:     record.CreatedAt,
	}
}

func analysisViewFromRecord(rec *store.AnalysisRecord) FileAnalysisView {
	return FileAnalysisView{
		ID:            rec.ID,
		FileName:      rec.FileName,
		OriginalName:  rec.OriginalName,
		FileSize:      rec.FileSize,
		MimeType:      rec.MimeType,
		Analysis:      rec.Analysis,
		Summary:       rec.Summary,
		IsAIGenerated: rec.IsAIGenerated,
		CreatedAt:     rec.CreatedAt,
	}
}

func (s *FileService) recordActivity(userID uint, analysisID, filename string) {
	if s.ActivityRepo == nil {
		return
	}
	details, _ := json.Marshal(map[string]string{"analysisId": analysisID, "fileName": filename})
	activity := &model.StudyActivity{
		UserID:  userID,
		Type:    model.ActivityFileUpload,
		Details: details,
		Points:  15,
	}
	if err := s.ActivityRepo.Create(activity); err != nil {
		logger.Log.Warn("recording study activity failed", zap.Error(err))
	}
}
