package diffproc

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/codecritics/codecritics/internal/adapter/llm"
	"github.com/codecritics/codecritics/internal/domain"
)

// filePatchHeader matches the start of a per-file section in a
// unified diff produced by a compare/diff endpoint.
const filePatchHeader = "diff --git "

// Result is the outcome of processing a raw unified diff into a
// prompt-ready payload.
type Result struct {
	Files          []domain.FileDiff
	OriginalBytes  int
	IncludedBytes  int
	EstimatedTokens int
	DroppedFiles   []string // files excluded by extension or per-file size
	Skip           bool
	SkipReason     domain.SkipReason
}

// Process splits a raw unified diff into per-file chunks, applies the
// extension allow-list, and decides whether the result is small enough
// to send to the model. maxBytes and largeDiffMultiplier come from
// Config.MaxDiffSize/LargeDiffMultiplier; extensions from
// Config.Extensions().
func Process(raw string, maxBytes int, largeDiffMultiplier float64, extensions []string) Result {
	original := len(raw)
	files := splitByFile(raw)

	var kept []domain.FileDiff
	var dropped []string
	includedBytes := 0

	if original > maxBytes {
		// The extension allow-list only engages once the diff itself is
		// over budget. A diff under the threshold is sent through
		// untouched, extension included, since the allow-list exists to
		// trim an oversized diff down rather than to police file types
		// in general. Filtering never drops a file for its own size —
		// only for its extension — so the post-filter total below is
		// the only place a diff can still be judged too large.
		allowed := extensionSet(extensions)
		for _, f := range files {
			if !allowed[strings.ToLower(filepath.Ext(f.Path))] {
				dropped = append(dropped, f.Path)
				continue
			}
			kept = append(kept, f)
			includedBytes += len(f.Patch)
		}
	} else {
		kept = files
		includedBytes = original
	}

	if len(kept) == 0 {
		return Result{
			OriginalBytes: original,
			DroppedFiles:  dropped,
			Skip:          true,
			SkipReason:    domain.SkipNoSupportedFiles,
		}
	}

	if float64(includedBytes) > float64(maxBytes)*largeDiffMultiplier {
		return Result{
			OriginalBytes: original,
			DroppedFiles:  dropped,
			Skip:          true,
			SkipReason:    domain.SkipDiffTooLarge,
		}
	}

	combined := combinedText(kept)
	return Result{
		Files:           kept,
		OriginalBytes:   original,
		IncludedBytes:   includedBytes,
		EstimatedTokens: llm.EstimateTokens(combined),
		DroppedFiles:    dropped,
	}
}

// splitByFile breaks a multi-file unified diff into one FileDiff per
// "diff --git" section, deriving the path from the "+++ b/..." header
// and the status from the presence of "new file mode"/"deleted file
// mode" markers.
func splitByFile(raw string) []domain.FileDiff {
	if raw == "" {
		return nil
	}

	sections := strings.Split(raw, filePatchHeader)
	var files []domain.FileDiff
	for i, section := range sections {
		if i == 0 {
			// Leading preamble before the first "diff --git", if any.
			continue
		}
		path, ok := extractPath(section)
		if !ok {
			continue
		}
		status := domain.FileStatusModified
		switch {
		case strings.Contains(section, "\nnew file mode"):
			status = domain.FileStatusAdded
		case strings.Contains(section, "\ndeleted file mode"):
			status = domain.FileStatusDeleted
		}
		files = append(files, domain.FileDiff{
			Path:   path,
			Status: status,
			Patch:  filePatchHeader + section,
		})
	}
	return files
}

// extractPath reads the "a/path b/path" pair off a per-file section's
// own header line — this works for binary diffs too, which carry no
// "+++"/"---" lines at all. The new-side path is preferred; the
// old-side path is used for deletions where the new side is /dev/null.
func extractPath(section string) (string, bool) {
	headerLine, _, _ := strings.Cut(section, "\n")
	parts := strings.Fields(headerLine)
	if len(parts) < 2 {
		return "", false
	}
	oldPath := strings.TrimPrefix(parts[0], "a/")
	newPath := strings.TrimPrefix(parts[1], "b/")

	if newPath != "" && newPath != "/dev/null" {
		return newPath, true
	}
	if oldPath != "" && oldPath != "/dev/null" {
		return oldPath, true
	}
	return "", false
}

func extensionSet(extensions []string) map[string]bool {
	set := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		set[strings.ToLower(ext)] = true
	}
	return set
}

func combinedText(files []domain.FileDiff) string {
	var sb strings.Builder
	for _, f := range files {
		fmt.Fprintf(&sb, "%s\n", f.Patch)
	}
	return sb.String()
}
