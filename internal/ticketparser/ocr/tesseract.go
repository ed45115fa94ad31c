package ocr

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

const (
	FormatText = "text"
	FormatHOCR = "hocr"
)

// TesseractConfig configures the local tesseract backend.
type TesseractConfig struct {
	Binary      string
	TessdataDir string
	Format      string
	Timeout     time.Duration
	Runner      Runner
}

// TesseractTranscriber shells out to the tesseract CLI.
type TesseractTranscriber struct {
	binary      string
	tessdataDir string
	format      string
	timeout     time.Duration
	runner      Runner
	logger      *slog.Logger
}

func NewTesseractTranscriber(cfg TesseractConfig, logger *slog.Logger) *TesseractTranscriber {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Binary == "" {
		cfg.Binary = "tesseract"
	}
	if cfg.Format == "" {
		cfg.Format = FormatText
	}
	if cfg.Runner == nil {
		cfg.Runner = execRunner{}
	}
	return &TesseractTranscriber{
		binary:      cfg.Binary,
		tessdataDir: cfg.TessdataDir,
		format:      cfg.Format,
		timeout:     cfg.Timeout,
		runner:      cfg.Runner,
		logger:      logger,
	}
}

func (t *TesseractTranscriber) Transcribe(ctx context.Context, image []byte, hints []string) (string, error) {
	if len(image) == 0 {
		return "", fmt.Errorf("tesseract: empty image")
	}
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	tmp, err := os.CreateTemp("", "ticketscan-*.img")
	if err != nil {
		return "", fmt.Errorf("tesseract: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(image); err != nil {
		tmp.Close()
		return "", fmt.Errorf("tesseract: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("tesseract: close temp file: %w", err)
	}

	args := []string{tmp.Name(), "stdout", "-l", tesseractLanguages(hints)}
	if t.tessdataDir != "" {
		args = append(args, "--tessdata-dir", t.tessdataDir)
	}
	if t.format == FormatHOCR {
		args = append(args, FormatHOCR)
	}

	stdout, stderr, err := t.runner.Run(ctx, t.binary, t.logger, args...)
	if err != nil {
		msg := strings.TrimSpace(string(stderr))
		if msg == "" {
			return "", fmt.Errorf("tesseract: %w", err)
		}
		return "", fmt.Errorf("tesseract: %w: %s", err, truncate(msg, 512))
	}
	if t.format == FormatHOCR {
		return linesFromHOCR(stdout)
	}
	return strings.TrimSpace(string(stdout)), nil
}

var tesseractLangs = map[string]string{
	"ja":      "jpn",
	"ja-jp":   "jpn",
	"zh-hant": "chi_tra",
	"zh-tw":   "chi_tra",
	"zh-hk":   "chi_tra",
	"zh-hans": "chi_sim",
	"zh-cn":   "chi_sim",
	"zh":      "chi_sim",
	"en":      "eng",
	"en-us":   "eng",
	"ko":      "kor",
}

// tesseractLanguages maps BCP-47 style hints to a tesseract -l argument. Hints that already
// look like traineddata names (jpn, jpn_vert) pass through; anything else is dropped.
func tesseractLanguages(hints []string) string {
	seen := make(map[string]struct{}, len(hints))
	var langs []string
	for _, hint := range hints {
		key := strings.ToLower(strings.TrimSpace(hint))
		lang, ok := tesseractLangs[key]
		if !ok && isTraineddataName(key) {
			lang, ok = key, true
		}
		if !ok {
			continue
		}
		if _, dup := seen[lang]; dup {
			continue
		}
		seen[lang] = struct{}{}
		langs = append(langs, lang)
	}
	if len(langs) == 0 {
		return "eng"
	}
	return strings.Join(langs, "+")
}

func isTraineddataName(s string) bool {
	if len(s) < 3 {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && r != '_' {
			return false
		}
	}
	return true
}

// linesFromHOCR flattens tesseract hOCR into one text line per ocr_line element.
func linesFromHOCR(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("tesseract: parse hocr: %w", err)
	}
	var lines []string
	doc.Find(".ocr_line, .ocr_textfloat, .ocr_caption, .ocr_header").Each(func(_ int, line *goquery.Selection) {
		var words []string
		line.Find(".ocrx_word").Each(func(_ int, word *goquery.Selection) {
			if w := strings.TrimSpace(word.Text()); w != "" {
				words = append(words, w)
			}
		})
		if joined := joinWords(words); joined != "" {
			lines = append(lines, joined)
		}
	})
	return strings.Join(lines, "\n"), nil
}

// joinWords separates words with a space except between two CJK words, which tesseract
// splits per glyph run.
func joinWords(words []string) string {
	var b strings.Builder
	var prev rune
	for i, w := range words {
		first := []rune(w)[0]
		if i > 0 && !(isCJK(prev) && isCJK(first)) {
			b.WriteByte(' ')
		}
		b.WriteString(w)
		runes := []rune(w)
		prev = runes[len(runes)-1]
	}
	return b.String()
}

func isCJK(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul) ||
		r == 'ー' || (r >= 0x3000 && r <= 0x303F) || (r >= 0xFF00 && r <= 0xFFEF)
}
