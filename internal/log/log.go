package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

type OperationType string

const (
	OpFetch   OperationType = "fetch"
	OpSelect  OperationType = "select"
	OpCopy    OperationType = "copy"
	OpHandOff OperationType = "handoff"
	OpReceive OperationType = "receive"
	OpPreview OperationType = "preview"
)

type OperationLog struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Type      OperationType `json:"type"`
	Provider  string        `json:"provider,omitempty"`
	Subject   string        `json:"subject,omitempty"`
	Detail    string        `json:"detail,omitempty"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

type SessionMetadata struct {
	CommandArgs   []string  `json:"command_args"`
	WorkingDir    string    `json:"working_dir"`
	Timestamp     time.Time `json:"timestamp"`
	SessionID     string    `json:"session_id"`
	TotalOps      int       `json:"total_operations"`
	SuccessfulOps int       `json:"successful_operations"`
	FailedOps     int       `json:"failed_operations"`
}

type HistorySession struct {
	Metadata   SessionMetadata `json:"metadata"`
	Operations []OperationLog  `json:"operations"`
}

// Global singleton session manager
var (
	currentSession *HistorySession
	sessionMutex   sync.Mutex
	historyEnabled = true
	historyFs      = afero.NewOsFs()
)

// SetFs replaces the filesystem history sessions are stored on. A nil fs
// restores the OS filesystem.
func SetFs(fs afero.Fs) {
	sessionMutex.Lock()
	defer sessionMutex.Unlock()

	if fs == nil {
		fs = afero.NewOsFs()
	}
	historyFs = fs
}

func storage() afero.Fs {
	sessionMutex.Lock()
	defer sessionMutex.Unlock()
	return historyFs
}

// StartSession initializes a new history session
func StartSession(command string, args []string) error {
	sessionMutex.Lock()
	defer sessionMutex.Unlock()

	if !historyEnabled {
		return nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	now := time.Now()
	sessionID := fmt.Sprintf("%s_%03d", now.Format("20060102_150405"), now.Nanosecond()/1000000)

	currentSession = &HistorySession{
		Metadata: SessionMetadata{
			CommandArgs: append([]string{command}, args...),
			WorkingDir:  wd,
			Timestamp:   now,
			SessionID:   sessionID,
		},
		Operations: []OperationLog{},
	}

	return nil
}

// EndSession saves the current session to disk. Sessions without operations
// are discarded.
func EndSession() error {
	sessionMutex.Lock()
	defer sessionMutex.Unlock()

	if !historyEnabled || currentSession == nil {
		return nil
	}

	session := currentSession
	currentSession = nil
	if len(session.Operations) == 0 {
		return nil
	}

	updateStats(session)
	return writeSession(historyFs, session)
}

// Record adds one operation to the current session.
func Record(opType OperationType, provider, subject, detail string, err error) {
	sessionMutex.Lock()
	defer sessionMutex.Unlock()

	if !historyEnabled || currentSession == nil {
		return
	}

	op := OperationLog{
		ID:        fmt.Sprintf("%s_%d", currentSession.Metadata.SessionID, len(currentSession.Operations)),
		Timestamp: time.Now(),
		Type:      opType,
		Provider:  provider,
		Subject:   subject,
		Detail:    detail,
		Success:   err == nil,
	}
	if err != nil {
		op.Error = err.Error()
	}

	currentSession.Operations = append(currentSession.Operations, op)
}

// Recorder adapts the package level session to callers that take a recorder.
type Recorder struct{}

// Record forwards to the package level Record.
func (Recorder) Record(opType OperationType, provider, subject, detail string, err error) {
	Record(opType, provider, subject, detail, err)
}

func updateStats(session *HistorySession) {
	successful := 0
	for _, op := range session.Operations {
		if op.Success {
			successful++
		}
	}

	session.Metadata.TotalOps = len(session.Operations)
	session.Metadata.SuccessfulOps = successful
	session.Metadata.FailedOps = len(session.Operations) - successful
}

// Initialize sets up the history system with the given configuration
func Initialize(enabled bool, retentionDays int) {
	sessionMutex.Lock()
	defer sessionMutex.Unlock()

	historyEnabled = enabled

	if enabled {
		if err := cleanupOldSessionsUnsafe(retentionDays); err != nil {
			logrus.WithError(err).Warn("failed to clean up old history")
		}
	}
}

// HistoryDir returns ~/.title-fetch/history.
func HistoryDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".title-fetch", "history"), nil
}

func GetHistoryPath() (string, error) {
	return historyPath(storage())
}

func historyPath(fs afero.Fs) (string, error) {
	dir, err := HistoryDir()
	if err != nil {
		return "", err
	}
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create history directory: %w", err)
	}

	now := time.Now()
	filename := fmt.Sprintf("%s.%03d.json", now.Format("2006-01-02_150405"), now.Nanosecond()/1000000)
	return filepath.Join(dir, filename), nil
}

func WriteSession(session *HistorySession) error {
	return writeSession(storage(), session)
}

func writeSession(fs afero.Fs, session *HistorySession) error {
	if session == nil {
		return nil
	}

	path, err := historyPath(fs)
	if err != nil {
		return fmt.Errorf("failed to get history path: %w", err)
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := afero.WriteFile(fs, path, data, 0644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	return nil
}

func ReadSession(path string) (*HistorySession, error) {
	return readSession(storage(), path)
}

func readSession(fs afero.Fs, path string) (*HistorySession, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	var session HistorySession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

// ReadSessions returns up to limit sessions, newest first. A limit of zero or
// less returns every session.
func ReadSessions(limit int) ([]*HistorySession, error) {
	fs := storage()
	dir, err := HistoryDir()
	if err != nil {
		return nil, err
	}
	if exists, _ := afero.DirExists(fs, dir); !exists {
		return []*HistorySession{}, nil
	}

	files, err := afero.Glob(fs, filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list history files: %w", err)
	}

	// File names start with a timestamp.
	sort.Sort(sort.Reverse(sort.StringSlice(files)))
	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}

	sessions := make([]*HistorySession, 0, len(files))
	for _, file := range files {
		session, err := readSession(fs, file)
		if err != nil {
			logrus.WithError(err).WithField("file", file).Debug("skipping unreadable history file")
			continue
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// cleanupOldSessionsUnsafe assumes the caller holds sessionMutex.
func cleanupOldSessionsUnsafe(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	dir, err := HistoryDir()
	if err != nil {
		return err
	}
	if exists, _ := afero.DirExists(historyFs, dir); !exists {
		return nil
	}

	files, err := afero.Glob(historyFs, filepath.Join(dir, "*.json"))
	if err != nil {
		return fmt.Errorf("failed to list history files: %w", err)
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	for _, file := range files {
		info, err := historyFs.Stat(file)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := historyFs.Remove(file); err != nil {
				logrus.WithError(err).WithField("file", file).Warn("failed to remove old history file")
			}
		}
	}
	return nil
}
