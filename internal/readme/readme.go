package readme

import (
	"bytes"
	_ "embed"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"text/template"
	"time"
)

//go:embed readme.md.tmpl
var readmeTemplate string

var tmpl = template.Must(template.New("readme").Parse(readmeTemplate))

// Section describes one report type's block in the README.
type Section struct {
	Key      string
	Title    string
	Heading  string
	English  string
	Subtitle string
}

// Sections lists the README blocks in display order.
var Sections = []Section{
	{Key: "pre_market", Title: "Pre-Market Report", Heading: "🌅 장시작 전 리포트", English: "Pre-Market Analysis", Subtitle: "전일 활동 분석 및 새벽 시간대 감정 변화"},
	{Key: "post_market", Title: "Post-Market Report", Heading: "🌆 장마감 후 리포트", English: "Post-Market Analysis", Subtitle: "당일 장시간 활동 분석 및 감정 트렌드"},
	{Key: "weekly", Title: "Weekly Report", Heading: "📅 주간 리포트", English: "Weekly Analysis", Subtitle: "지난 7일 종합 분석 및 요일별 패턴"},
	{Key: "monthly", Title: "Monthly Report", Heading: "📆 월간 리포트", English: "Monthly Analysis", Subtitle: "월간 종합 분석 및 트렌드"},
}

type sectionView struct {
	Section
	Date  string
	Image string
}

// Render builds the README for the date folder (YYYYMMDD). Sections with a
// file in newFiles point at it. Other sections keep the image and date found
// in old, falling back to the folder's default file name.
func Render(folder string, newFiles []string, old string, now time.Time) (string, error) {
	date := folderDate(folder)
	views := make([]sectionView, 0, len(Sections))
	for _, s := range Sections {
		v := sectionView{
			Section: s,
			Date:    date,
			Image:   fmt.Sprintf("./generate/%s/%s_report_%s.png", folder, s.Key, folder),
		}
		if f, ok := fileFor(s.Key, newFiles); ok {
			v.Image = fmt.Sprintf("./generate/%s/%s", folder, f)
		} else if old != "" {
			if img, ok := findImage(old, s.Title); ok {
				v.Image = img
			}
			if d, ok := findDate(old, s.Heading); ok {
				v.Date = d
			}
		}
		views = append(views, v)
	}

	var buf bytes.Buffer
	err := tmpl.Execute(&buf, map[string]any{
		"Updated":  now.Format("2006-01-02 15:04"),
		"Sections": views,
	})
	if err != nil {
		return "", fmt.Errorf("rendering README: %w", err)
	}
	return buf.String(), nil
}

// Update rewrites the README at path, preserving sections of report types
// not in newFiles.
func Update(path, folder string, newFiles []string, now time.Time) error {
	var old string
	if data, err := os.ReadFile(path); err == nil {
		old = string(data)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("reading README: %w", err)
	}

	content, err := Render(folder, newFiles, old, now)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating README directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing README: %w", err)
	}
	if len(newFiles) > 0 {
		log.Printf("README updated with %s", strings.Join(newFiles, ", "))
	} else {
		log.Printf("README regenerated for %s", folder)
	}
	return nil
}

// LatestFolder returns the newest YYYYMMDD folder under generateDir.
func LatestFolder(generateDir string) (string, bool) {
	entries, err := os.ReadDir(generateDir)
	if err != nil {
		return "", false
	}
	var folders []string
	for _, e := range entries {
		if e.IsDir() && isDateFolder(e.Name()) {
			folders = append(folders, e.Name())
		}
	}
	if len(folders) == 0 {
		return "", false
	}
	sort.Strings(folders)
	return folders[len(folders)-1], true
}

func isDateFolder(name string) bool {
	if len(name) != 8 {
		return false
	}
	for _, r := range name {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func folderDate(folder string) string {
	if !isDateFolder(folder) {
		return folder
	}
	return folder[:4] + "-" + folder[4:6] + "-" + folder[6:]
}

func fileFor(key string, files []string) (string, bool) {
	for _, f := range files {
		if strings.Contains(f, key) {
			return f, true
		}
	}
	return "", false
}

func findImage(content, title string) (string, bool) {
	re := regexp.MustCompile(`!\[` + regexp.QuoteMeta(title) + `\]\(([^)]+)\)`)
	m := re.FindStringSubmatch(content)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func findDate(content, heading string) (string, bool) {
	re := regexp.MustCompile(`\| ` + regexp.QuoteMeta(heading) + ` \| ([^|]+?) \|`)
	m := re.FindStringSubmatch(content)
	if m == nil {
		return "", false
	}
	return m[1], true
}
