package archive

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/feichai0017/onec-docsearch/internal/models"
	"github.com/feichai0017/onec-docsearch/pkg/logger"
)

// supportedExtensions is the allow-list applied to source archives.
var supportedExtensions = map[string]bool{
	".hbk": true,
	".zip": true,
	".7z":  true,
}

// Config tunes reader behavior.
type Config struct {
	MaxFileSize    int64 // bytes, source archive ceiling
	ListTimeout    time.Duration
	ExtractTimeout time.Duration // single member
	BatchTimeout   time.Duration // one batch invocation
	TempDir        string        // base for scratch dirs, "" = system default
}

// DefaultConfig returns the reader defaults.
func DefaultConfig() Config {
	return Config{
		MaxFileSize:    500 * 1024 * 1024,
		ListTimeout:    60 * time.Second,
		ExtractTimeout: 30 * time.Second,
		BatchTimeout:   120 * time.Second,
	}
}

// Reader lists and extracts members of one help archive through an external
// 7-Zip invocation. A Reader is bound to a single archive by Open and must
// not be shared across concurrent ingestion runs.
type Reader struct {
	log logger.Logger
	cfg Config

	command     string
	archivePath string
}

// NewReader creates a reader. The archive tool is located lazily on the
// first Open call.
func NewReader(log logger.Logger, cfg Config) *Reader {
	return &Reader{log: log, cfg: cfg}
}

// ValidateSource checks the input-file contract: the path must exist,
// resolve cleanly, be a regular file with an allow-listed extension and not
// exceed the size ceiling. It runs before any extraction work.
func (r *Reader) ValidateSource(filePath string) (models.ArchiveInfo, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return models.ArchiveInfo{}, &ValidationError{Path: filePath, Reason: "file not found"}
		}
		return models.ArchiveInfo{}, &ValidationError{Path: filePath, Reason: err.Error()}
	}
	if !info.Mode().IsRegular() {
		return models.ArchiveInfo{}, &ValidationError{Path: filePath, Reason: "not a regular file"}
	}
	if _, err := filepath.EvalSymlinks(filePath); err != nil {
		return models.ArchiveInfo{}, &ValidationError{Path: filePath, Reason: "path does not resolve"}
	}
	ext := strings.ToLower(filepath.Ext(filePath))
	if !supportedExtensions[ext] {
		return models.ArchiveInfo{}, &ValidationError{Path: filePath, Reason: fmt.Sprintf("unsupported extension %s", ext)}
	}
	if r.cfg.MaxFileSize > 0 && info.Size() > r.cfg.MaxFileSize {
		return models.ArchiveInfo{}, &ValidationError{
			Path:   filePath,
			Reason: fmt.Sprintf("file too large: %d bytes (limit %d)", info.Size(), r.cfg.MaxFileSize),
		}
	}
	return models.ArchiveInfo{
		Path:     filePath,
		Size:     info.Size(),
		Modified: info.ModTime(),
	}, nil
}

// Open validates the archive, locates the tool if needed and returns the
// member listing without extracting any content. The reader stays bound to
// the archive for subsequent extraction calls.
func (r *Reader) Open(ctx context.Context, filePath string) ([]models.ArchiveEntry, error) {
	if _, err := r.ValidateSource(filePath); err != nil {
		return nil, err
	}

	if r.command == "" {
		command, err := FindTool(ctx, r.log)
		if err != nil {
			return nil, err
		}
		r.command = command
	}

	res, err := runTool(ctx, r.command, []string{"l", filePath}, r.cfg.ListTimeout)
	if err != nil {
		return nil, &ReadError{Op: "list", Err: err}
	}
	if res.ExitCode != 0 {
		return nil, &ReadError{Op: "list", Stderr: strings.TrimSpace(res.Stderr), Err: fmt.Errorf("exit code %d", res.ExitCode)}
	}

	entries, err := parseListing(res.Stdout)
	if err != nil {
		return nil, &ReadError{Op: "list", Err: err}
	}

	r.archivePath = filePath
	r.log.Info("archive listed",
		logger.String("path", filePath),
		logger.Int("entries", len(entries)),
	)
	return entries, nil
}

// parseListing extracts entries from the tool's tabular output. The data
// section sits between two separator lines; each data line is
// "date time attributes size compressed name", where the name may itself
// contain spaces.
func parseListing(out string) ([]models.ArchiveEntry, error) {
	var entries []models.ArchiveEntry
	inSection := false
	sawSection := false
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "---------------") {
			inSection = !inSection
			sawSection = true
			continue
		}
		if !inSection || strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 6 {
			continue
		}
		name := strings.Join(parts[5:], " ")
		if name == "" || strings.HasPrefix(name, "Date") {
			continue
		}
		size, _ := strconv.ParseInt(parts[3], 10, 64)
		entries = append(entries, models.ArchiveEntry{
			Path:  name,
			Size:  size,
			IsDir: strings.HasPrefix(parts[2], "D"),
		})
	}
	if !sawSection {
		return nil, fmt.Errorf("no listing section found in tool output")
	}
	return entries, nil
}

// ExtractFile extracts exactly one member into a fresh scratch directory,
// reads it back and removes the directory on every exit path.
func (r *Reader) ExtractFile(ctx context.Context, memberPath string) ([]byte, error) {
	if r.command == "" || r.archivePath == "" {
		return nil, ErrNotInitialized
	}

	tempDir, err := os.MkdirTemp(r.cfg.TempDir, "hbk-extract-")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	args := []string{"e", r.archivePath, memberPath, "-o" + tempDir, "-y"}
	res, err := runTool(ctx, r.command, args, r.cfg.ExtractTimeout)
	if err != nil {
		return nil, &ReadError{Op: "extract", Err: err}
	}
	if res.ExitCode != 0 {
		return nil, &ReadError{Op: "extract", Stderr: strings.TrimSpace(res.Stderr), Err: fmt.Errorf("exit code %d", res.ExitCode)}
	}

	var content []byte
	err = filepath.WalkDir(tempDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || content != nil || d.IsDir() {
			return err
		}
		content, err = os.ReadFile(p)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read extracted member: %w", err)
	}
	if content == nil {
		return nil, &ReadError{Op: "extract", Err: fmt.Errorf("member %s produced no file", memberPath)}
	}
	return content, nil
}

// ExtractBatch extracts many members in one tool invocation and maps each
// produced file back to its requested archive path. One invocation per
// batch is what makes full-archive ingestion tractable: archives carry
// thousands of members and the tool's startup cost dominates per-file
// extraction.
func (r *Reader) ExtractBatch(ctx context.Context, memberPaths []string) (map[string][]byte, error) {
	if r.command == "" || r.archivePath == "" {
		return nil, ErrNotInitialized
	}
	if len(memberPaths) == 0 {
		return map[string][]byte{}, nil
	}

	tempDir, err := os.MkdirTemp(r.cfg.TempDir, "hbk-batch-")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	listFile, err := writeListFile(r.cfg.TempDir, memberPaths)
	if err != nil {
		return nil, err
	}
	defer os.Remove(listFile)

	// "x" keeps member directory structure so produced files can be matched
	// back by relative path.
	args := []string{"x", r.archivePath, "-i@" + listFile, "-o" + tempDir, "-y"}
	res, err := runTool(ctx, r.command, args, r.cfg.BatchTimeout)
	if err != nil {
		return nil, &ReadError{Op: "batch extract", Err: err}
	}
	if res.ExitCode != 0 {
		return nil, &ReadError{Op: "batch extract", Stderr: strings.TrimSpace(res.Stderr), Err: fmt.Errorf("exit code %d", res.ExitCode)}
	}

	produced := make(map[string]string) // normalized relative path -> file path
	err = filepath.WalkDir(tempDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(tempDir, p)
		if err != nil {
			return err
		}
		produced[normalizePath(rel)] = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk scratch dir: %w", err)
	}

	matched := matchExtracted(memberPaths, produced)
	for _, member := range memberPaths {
		if _, ok := matched[member]; !ok {
			r.log.Warn("batch extraction produced no file for member",
				logger.String("member", member),
			)
		}
	}

	contents := make(map[string][]byte, len(matched))
	for member, filePath := range matched {
		data, err := os.ReadFile(filePath)
		if err != nil {
			r.log.Warn("failed to read extracted member",
				logger.String("member", member),
				logger.Error(err),
			)
			continue
		}
		contents[member] = data
	}
	return contents, nil
}

// matchExtracted maps each requested member to a produced file by comparing
// normalized relative paths; archive listings and tool output disagree on
// separator style, so both sides are normalized first. The tool may also
// flatten or re-root paths, in which case the base name is the fallback key.
func matchExtracted(memberPaths []string, produced map[string]string) map[string]string {
	byName := make(map[string]string, len(produced))
	for norm, p := range produced {
		byName[path.Base(norm)] = p
	}

	matched := make(map[string]string, len(memberPaths))
	for _, member := range memberPaths {
		norm := normalizePath(member)
		if p, ok := produced[norm]; ok {
			matched[member] = p
			continue
		}
		if p, ok := byName[path.Base(norm)]; ok {
			matched[member] = p
		}
	}
	return matched
}

// writeListFile writes one member path per line for the tool's @listfile
// include syntax.
func writeListFile(dir string, memberPaths []string) (string, error) {
	f, err := os.CreateTemp(dir, "hbk-list-*.txt")
	if err != nil {
		return "", fmt.Errorf("create list file: %w", err)
	}
	for _, p := range memberPaths {
		if _, err := fmt.Fprintln(f, p); err != nil {
			f.Close()
			os.Remove(f.Name())
			return "", fmt.Errorf("write list file: %w", err)
		}
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close list file: %w", err)
	}
	return f.Name(), nil
}

// normalizePath maps both archive-internal separator styles onto "/".
func normalizePath(p string) string {
	return strings.ReplaceAll(filepath.ToSlash(p), `\`, "/")
}
