// Package export writes an analysis package: the dashboard, the Markdown
// report, the JSON results and a README, zipped next to the directory.
package export

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/KaramelBytes/surveyloom/internal/report"
	"github.com/KaramelBytes/surveyloom/internal/utils"
)

// Artifact kinds, as used by download routes.
const (
	KindDashboard = "dashboard"
	KindReport    = "report"
	KindJSON      = "json"
	KindReadme    = "readme"
	KindPackage   = "package"
)

var fileNames = map[string]string{
	KindDashboard: "dashboard.html",
	KindReport:    "report.md",
	KindJSON:      "analysis_results.json",
	KindReadme:    "README.md",
}

// Kinds lists the exported artifact kinds in write order.
var Kinds = []string{KindDashboard, KindReport, KindJSON, KindReadme, KindPackage}

// File is one exported artifact.
type File struct {
	Kind string `json:"kind"`
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// Manifest lists what Write produced.
type Manifest struct {
	Dir   string `json:"dir"`
	Zip   string `json:"zip"`
	Files []File `json:"files"`
}

// Path returns the file of the given kind, or "" when it was not written.
func (m *Manifest) Path(kind string) string {
	if m == nil {
		return ""
	}
	for _, f := range m.Files {
		if f.Kind == kind {
			return f.Path
		}
	}
	return ""
}

// Write exports d into dir and zips dir into dir + ".zip".
func Write(dir string, d *report.Data) (*Manifest, error) {
	dir = filepath.Clean(dir)
	if err := utils.EnsureDir(dir); err != nil {
		return nil, err
	}
	dashboard, err := report.Dashboard(d)
	if err != nil {
		return nil, err
	}
	results, err := utils.PrettyJSON(d)
	if err != nil {
		return nil, err
	}
	contents := map[string][]byte{
		KindDashboard: dashboard,
		KindReport:    []byte(report.Markdown(d)),
		KindJSON:      results,
		KindReadme:    []byte(readme(d)),
	}
	m := &Manifest{Dir: dir, Zip: dir + ".zip"}
	for _, kind := range Kinds[:4] {
		path := filepath.Join(dir, fileNames[kind])
		if err := utils.SafeWriteFile(path, contents[kind]); err != nil {
			return nil, fmt.Errorf("write %s: %w", fileNames[kind], err)
		}
		m.Files = append(m.Files, File{Kind: kind, Path: path, Size: int64(len(contents[kind]))})
	}
	size, err := zipFiles(m.Zip, m.Files)
	if err != nil {
		return nil, err
	}
	m.Files = append(m.Files, File{Kind: KindPackage, Path: m.Zip, Size: size})
	return m, nil
}

func zipFiles(target string, files []File) (int64, error) {
	tmp := target + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("create zip: %w", err)
	}
	zw := zip.NewWriter(f)
	for _, file := range files {
		if err := addFile(zw, file.Path); err != nil {
			zw.Close()
			f.Close()
			_ = os.Remove(tmp)
			return 0, err
		}
	}
	if err := zw.Close(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("finish zip: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("close zip: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("atomic rename: %w", err)
	}
	info, err := os.Stat(target)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func addFile(zw *zip.Writer, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer src.Close()
	info, err := src.Stat()
	if err != nil {
		return err
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = filepath.Base(path)
	hdr.Method = zip.Deflate
	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("zip %s: %w", hdr.Name, err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("zip %s: %w", hdr.Name, err)
	}
	return nil
}

func readme(d *report.Data) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", d.Title())
	if !d.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "Generated %s.\n\n", d.GeneratedAt.UTC().Format(time.RFC1123))
	}
	fmt.Fprintf(&b, "%d responses, %d questions analyzed, %d charts.\n\n", d.Rows, d.Classification.TotalColumns, len(d.Charts))
	b.WriteString("## Contents\n\n")
	b.WriteString("- `dashboard.html`: interactive dashboard; open in any browser.\n")
	b.WriteString("- `report.md`: plain-text report with classifications, findings and recommendations.\n")
	b.WriteString("- `analysis_results.json`: full machine-readable results.\n")
	return b.String()
}
