package report

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"brandwatch/pkg/pipeline"
)

var columns = []string{
	"folder", "url", "phish_category", "target_brand", "has_logo",
	"brand_in_targetlist", "found_knowledge", "discovery_branch",
	"runtime_breakdown", "interaction_flags",
}

// Writer appends one tab-separated record per evaluated page. Records are
// flushed per append so a crashed batch loses at most the in-flight page.
type Writer struct {
	f *os.File
}

// NewWriter opens (or creates) the result file and writes the header when
// the file is empty.
func NewWriter(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open result file: %w", err)
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat result file: %w", err)
	}
	if fi.Size() == 0 {
		if _, err := f.WriteString(strings.Join(columns, "\t") + "\n"); err != nil {
			f.Close()
			return nil, fmt.Errorf("write result header: %w", err)
		}
	}

	return &Writer{f: f}, nil
}

// Append records one outcome under the given folder id.
func (w *Writer) Append(folder string, out *pipeline.Outcome) error {
	runtime := fmt.Sprintf("%.4f|%.4f|%.4f|%.4f",
		out.Runtime.Detector.Seconds(),
		out.Runtime.Discovery.Seconds(),
		out.Runtime.InteractionAlgo.Seconds(),
		out.Runtime.InteractionTotal.Seconds(),
	)
	flags := strings.Join([]string{
		strconv.FormatBool(out.Interaction.Success),
		strconv.FormatBool(out.Interaction.RedirectionEvasion),
		strconv.FormatBool(out.Interaction.NoVerification),
	}, "|")

	fields := []string{
		folder,
		out.URL,
		strconv.Itoa(out.Category),
		out.Target,
		strconv.FormatBool(out.HasLogo),
		strconv.FormatBool(out.BrandInTargetList),
		strconv.FormatBool(out.FoundKnowledge),
		out.DiscoveryBranch,
		runtime,
		flags,
	}

	if _, err := w.f.WriteString(strings.Join(fields, "\t") + "\n"); err != nil {
		return fmt.Errorf("append result for %s: %w", folder, err)
	}
	return w.f.Sync()
}

func (w *Writer) Close() error {
	return w.f.Close()
}

// ProcessedFolders reads an existing result file and returns the folder ids
// already evaluated, so an interrupted batch can resume where it stopped. A
// missing file means nothing was processed.
func ProcessedFolders(path string) (map[string]bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]bool{}, nil
		}
		return nil, fmt.Errorf("open result file: %w", err)
	}
	defer f.Close()

	done := make(map[string]bool)
	scanner := bufio.NewScanner(f)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			first = false
			if strings.HasPrefix(line, columns[0]+"\t") {
				continue
			}
		}
		folder, _, ok := strings.Cut(line, "\t")
		if ok && folder != "" {
			done[folder] = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan result file: %w", err)
	}
	return done, nil
}
