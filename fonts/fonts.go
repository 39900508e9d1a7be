// Package fonts generates the font catalog consumed by the settings panel: a
// JSON list of font files plus a stylesheet with one font-face per file.
package fonts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"smartmirror/util"
)

const (
	CatalogFile    = "fonts.json"
	StylesheetFile = "fonts.css"
)

// GenerateCatalog scans publicDir/fonts for .ttf and .otf files and writes
// fonts.json and fonts.css into publicDir. The font-family name is the file
// name minus its extension. Returns the files included in the catalog.
func GenerateCatalog(publicDir string) ([]string, error) {
	fontsDir := filepath.Join(publicDir, "fonts")
	entries, err := os.ReadDir(fontsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read fonts directory: %w", err)
	}

	files := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !util.SupportedFontExt.Contains(filepath.Ext(name)) {
			continue
		}
		files = append(files, name)
	}

	data, err := json.MarshalIndent(files, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal font list: %w", err)
	}
	if err := os.WriteFile(filepath.Join(publicDir, CatalogFile), data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", CatalogFile, err)
	}

	css := buildStylesheet(files)
	if err := os.WriteFile(filepath.Join(publicDir, StylesheetFile), []byte(css), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", StylesheetFile, err)
	}

	return files, nil
}

func buildStylesheet(files []string) string {
	var b strings.Builder
	for _, file := range files {
		ext := filepath.Ext(file)
		family := strings.TrimSuffix(file, ext)

		format := "truetype"
		if strings.EqualFold(ext, ".otf") {
			format = "opentype"
		}

		fmt.Fprintf(&b, `@font-face {
  font-family: "%s";
  src: url("/fonts/%s") format("%s");
  font-weight: normal;
  font-style: normal;
}
`, family, file, format)
	}
	return b.String()
}
