package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"gradebook/internal/model"
	"gradebook/pkg/logger"
	"gradebook/pkg/metrics"

	"gorm.io/gorm"
)

// Import statuses reported in ProgressInfo.Status.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

const (
	importBatchSize     = 1000
	progressEvery       = 100
	defaultChannelDepth = 1000
)

// rosterColumns are the CSV columns a roster file must carry, in any order.
var rosterColumns = []string{"first_name", "last_name", "email", "major", "enrollment_date", "gender", "age"}

type ProgressInfo struct {
	FileName     string    `json:"fileName"`
	TotalRecords int       `json:"totalRecords"`
	Processed    int       `json:"processed"`
	Imported     int       `json:"imported"`
	Skipped      int       `json:"skipped"`
	Status       string    `json:"status"`
	Error        string    `json:"error,omitempty"`
	StartTime    time.Time `json:"startTime"`
	EndTime      time.Time `json:"endTime"`
}

type UploadService struct {
	db                *gorm.DB
	logger            logger.Logger
	fileProgressMap   map[string]*ProgressInfo
	fileProgressLock  sync.RWMutex
	progressListeners map[chan *ProgressInfo]bool
	listenerLock      sync.RWMutex

	workerSemaphore chan struct{}
}

func NewUploadService(db *gorm.DB, log logger.Logger) *UploadService {
	if log == nil {
		log = logger.Nop()
	}
	return &UploadService{
		db:                db,
		logger:            log.Named("import"),
		fileProgressMap:   make(map[string]*ProgressInfo),
		progressListeners: make(map[chan *ProgressInfo]bool),
		workerSemaphore:   make(chan struct{}, runtime.NumCPU()*2),
	}
}

func (s *UploadService) RegisterProgressListener(ch chan *ProgressInfo) {
	s.listenerLock.Lock()
	defer s.listenerLock.Unlock()
	s.progressListeners[ch] = true
}

func (s *UploadService) UnregisterProgressListener(ch chan *ProgressInfo) {
	s.listenerLock.Lock()
	defer s.listenerLock.Unlock()
	delete(s.progressListeners, ch)
}

// BroadcastProgress sends a copy of progress to every listener that is ready
// to receive it. Slow listeners miss updates.
func (s *UploadService) BroadcastProgress(progress *ProgressInfo) {
	s.listenerLock.RLock()
	defer s.listenerLock.RUnlock()

	for listener := range s.progressListeners {
		snapshot := *progress
		select {
		case listener <- &snapshot:
		default:
		}
	}
}

// GetFileProgress returns a copy of the progress of fileName, or nil.
func (s *UploadService) GetFileProgress(fileName string) *ProgressInfo {
	s.fileProgressLock.RLock()
	defer s.fileProgressLock.RUnlock()

	if progress, exists := s.fileProgressMap[fileName]; exists {
		copyProgress := *progress
		return &copyProgress
	}
	return nil
}

// ReserveFile marks fileName as processing before its upload is written to
// disk. It fails while an earlier import of the same name is still running.
func (s *UploadService) ReserveFile(fileName string) error {
	s.fileProgressLock.Lock()
	defer s.fileProgressLock.Unlock()

	if progress, exists := s.fileProgressMap[fileName]; exists && progress.Status == StatusProcessing {
		return fmt.Errorf("%s: %w", fileName, ErrImportInProgress)
	}
	s.fileProgressMap[fileName] = &ProgressInfo{
		FileName:  fileName,
		Status:    StatusProcessing,
		StartTime: time.Now(),
	}
	return nil
}

// ReleaseFile ends a reservation whose upload never reached ProcessCSV.
func (s *UploadService) ReleaseFile(fileName string, cause error) {
	s.finishProgress(fileName, StatusError, cause.Error())
}

func (s *UploadService) GetAllFileProgress() []*ProgressInfo {
	s.fileProgressLock.RLock()
	defer s.fileProgressLock.RUnlock()

	result := make([]*ProgressInfo, 0, len(s.fileProgressMap))
	for _, progress := range s.fileProgressMap {
		copyProgress := *progress
		result = append(result, &copyProgress)
	}
	return result
}

// updateProgress adds the given deltas to the progress of fileName.
func (s *UploadService) updateProgress(fileName string, processed, imported, skipped int) {
	s.fileProgressLock.Lock()
	defer s.fileProgressLock.Unlock()

	if progress, exists := s.fileProgressMap[fileName]; exists {
		progress.Processed += processed
		progress.Imported += imported
		progress.Skipped += skipped
		if progress.Processed > progress.TotalRecords {
			progress.Processed = progress.TotalRecords
		}
		s.BroadcastProgress(progress)
	}
}

func (s *UploadService) finishProgress(fileName, status, errorMsg string) {
	s.fileProgressLock.Lock()
	defer s.fileProgressLock.Unlock()

	if progress, exists := s.fileProgressMap[fileName]; exists {
		progress.Status = status
		progress.Error = errorMsg
		progress.EndTime = time.Now()
		if status == StatusCompleted {
			progress.Processed = progress.TotalRecords
		}
		s.BroadcastProgress(progress)
	}
}

func (s *UploadService) fail(ctx context.Context, fileName string, err error) error {
	s.finishProgress(fileName, StatusError, err.Error())
	metrics.RecordImportFile(StatusError)
	s.logger.Error(ctx, "roster import failed", logger.String("file", fileName), logger.Error(err))
	return err
}

// rosterRow is one CSV record and its 1-based line in the file.
type rosterRow struct {
	line   int
	fields []string
}

// ProcessCSV imports the student roster at filePath. Invalid rows are skipped
// and counted; an email repeated within the file is imported once.
func (s *UploadService) ProcessCSV(ctx context.Context, filePath string) error {
	fileName := filepath.Base(filePath)
	startTime := time.Now()

	s.fileProgressLock.Lock()
	s.fileProgressMap[fileName] = &ProgressInfo{
		FileName:  fileName,
		Status:    StatusProcessing,
		StartTime: startTime,
	}
	s.fileProgressLock.Unlock()

	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return s.fail(ctx, fileName, fmt.Errorf("stat %s: %w", fileName, err))
	}

	totalRecords, err := countRecords(filePath)
	if err != nil {
		return s.fail(ctx, fileName, fmt.Errorf("count records in %s: %w", fileName, err))
	}
	s.fileProgressLock.Lock()
	s.fileProgressMap[fileName].TotalRecords = totalRecords
	s.fileProgressLock.Unlock()

	file, err := os.Open(filePath)
	if err != nil {
		return s.fail(ctx, fileName, fmt.Errorf("open %s: %w", fileName, err))
	}
	defer file.Close()

	reader := newRosterReader(file)
	headerRecord, err := reader.Read()
	if err != nil {
		return s.fail(ctx, fileName, fmt.Errorf("read header of %s: %w", fileName, err))
	}
	header, err := parseRosterHeader(headerRecord)
	if err != nil {
		return s.fail(ctx, fileName, err)
	}

	numWorkers := calculateWorkers(fileInfo.Size())
	s.logger.Info(ctx, "roster import started",
		logger.String("file", fileName),
		logger.Int64("bytes", fileInfo.Size()),
		logger.Int("records", totalRecords),
		logger.Int("workers", numWorkers))

	bufferSize := defaultChannelDepth
	if numWorkers > 10 {
		bufferSize = numWorkers * 100
	}
	rowCh := make(chan rosterRow, bufferSize)
	var (
		wg        sync.WaitGroup
		seen      sync.Map
		counterMu sync.Mutex
		imported  int
		skipped   int
	)
	tally := func(i, sk int) {
		counterMu.Lock()
		imported += i
		skipped += sk
		counterMu.Unlock()
	}

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go s.worker(ctx, fileName, header, rowCh, &seen, tally, &wg)
	}

	line := 1
	readErr := func() error {
		defer close(rowCh)
		for {
			record, err := reader.Read()
			if err == io.EOF {
				return nil
			}
			line++
			if err != nil {
				s.logger.Warn(ctx, "unreadable roster row",
					logger.String("file", fileName), logger.Int("line", line), logger.Error(err))
				tally(0, 1)
				s.updateProgress(fileName, 1, 0, 1)
				continue
			}
			select {
			case rowCh <- rosterRow{line: line, fields: record}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}()
	wg.Wait()

	metrics.RecordImportRows("imported", imported)
	metrics.RecordImportRows("skipped", skipped)
	if readErr != nil {
		return s.fail(ctx, fileName, fmt.Errorf("import %s: %w", fileName, readErr))
	}

	s.finishProgress(fileName, StatusCompleted, "")
	metrics.RecordImportFile(StatusCompleted)
	s.logger.Info(ctx, "roster import completed",
		logger.String("file", fileName),
		logger.Int("imported", imported),
		logger.Int("skipped", skipped),
		logger.Duration("elapsed", time.Since(startTime)))
	return nil
}

// calculateWorkers determines the number of workers based on file size.
func calculateWorkers(fileSize int64) int {
	cpus := runtime.NumCPU()

	switch {
	case fileSize < 1_000_000:
		return min(2, cpus)
	case fileSize < 10_000_000:
		return min(4, cpus)
	case fileSize < 100_000_000:
		return min(8, cpus)
	case fileSize < 1_000_000_000:
		return min(16, cpus)
	}
	return cpus
}

func (s *UploadService) worker(ctx context.Context, fileName string, header rosterHeader, rowCh <-chan rosterRow,
	seen *sync.Map, tally func(imported, skipped int), wg *sync.WaitGroup) {
	s.workerSemaphore <- struct{}{}
	defer func() {
		<-s.workerSemaphore
		wg.Done()
	}()

	var (
		batch               []model.Student
		processed, rejected int
	)
	reportProgress := func() {
		s.updateProgress(fileName, processed, 0, rejected)
		tally(0, rejected)
		processed, rejected = 0, 0
	}
	save := func() {
		saved, failed := s.saveBatch(ctx, fileName, batch)
		s.updateProgress(fileName, 0, saved, failed)
		tally(saved, failed)
		batch = batch[:0]
	}

	for row := range rowCh {
		processed++
		student, err := header.student(row.fields)
		if err != nil {
			s.logger.Debug(ctx, "skipping invalid roster row",
				logger.String("file", fileName), logger.Int("line", row.line), logger.Error(err))
			rejected++
		} else if _, dup := seen.LoadOrStore(strings.ToLower(student.Email), row.line); dup {
			s.logger.Debug(ctx, "skipping duplicate email",
				logger.String("file", fileName), logger.Int("line", row.line), logger.String("email", student.Email))
			rejected++
		} else {
			batch = append(batch, student)
		}

		if processed >= progressEvery {
			reportProgress()
		}
		if len(batch) >= importBatchSize {
			save()
		}
	}
	save()
	reportProgress()
}

// saveBatch inserts students and reports how many were saved and how many
// were lost to a failed insert.
func (s *UploadService) saveBatch(ctx context.Context, fileName string, students []model.Student) (int, int) {
	if len(students) == 0 {
		return 0, 0
	}
	if err := s.db.WithContext(ctx).CreateInBatches(students, importBatchSize).Error; err != nil {
		s.logger.Error(ctx, "roster batch insert failed",
			logger.String("file", fileName), logger.Int("rows", len(students)), logger.Error(err))
		return 0, len(students)
	}
	return len(students), 0
}

func newRosterReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return reader
}

// countRecords counts the data rows of a CSV file, readable or not.
func countRecords(filePath string) (int, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	reader := newRosterReader(file)
	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return 0, err
	}

	count := 0
	for {
		_, err := reader.Read()
		if err == io.EOF {
			break
		}
		var parseErr *csv.ParseError
		if err != nil && !errors.As(err, &parseErr) {
			return count, err
		}
		count++
	}
	return count, nil
}

// rosterHeader maps a roster column name to its index in a record.
type rosterHeader map[string]int

func parseRosterHeader(record []string) (rosterHeader, error) {
	header := make(rosterHeader, len(record))
	for i, name := range record {
		name = strings.TrimPrefix(name, "\ufeff")
		header[strings.ToLower(strings.TrimSpace(name))] = i
	}
	var missing []string
	for _, col := range rosterColumns {
		if _, ok := header[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: roster header is missing %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	return header, nil
}

func (h rosterHeader) field(record []string, col string) string {
	i := h[col]
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// student builds and validates the student described by record.
func (h rosterHeader) student(record []string) (model.Student, error) {
	student := model.Student{
		FirstName:      h.field(record, "first_name"),
		LastName:       h.field(record, "last_name"),
		Email:          h.field(record, "email"),
		Major:          h.field(record, "major"),
		EnrollmentDate: h.field(record, "enrollment_date"),
		Gender:         h.field(record, "gender"),
	}
	if age := h.field(record, "age"); age != "" {
		n, err := strconv.Atoi(age)
		if err != nil {
			return model.Student{}, fmt.Errorf("age %q is not a number", age)
		}
		student.Age = n
	}
	if err := student.Validate(); err != nil {
		return model.Student{}, err
	}
	return student, nil
}
