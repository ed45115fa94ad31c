package core_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketscan/backend/internal/ticketparser/core"
)

type fakeTranscriber struct {
	text  string
	err   error
	hints []string
	calls int
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ []byte, hints []string) (string, error) {
	f.calls++
	f.hints = hints
	return f.text, f.err
}

type fakeArchive struct {
	names []string
	body  []byte
	err   error
}

func (f *fakeArchive) UploadObject(_ context.Context, fileName, _ string, body io.Reader, _ int64) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.names = append(f.names, fileName)
	f.body, _ = io.ReadAll(body)
	return "https://cdn.example.com/" + fileName, nil
}

type fakeStore struct {
	scans []core.ScanResult
	err   error
}

func (f *fakeStore) InsertScan(_ context.Context, scan core.ScanResult) error {
	if f.err != nil {
		return f.err
	}
	f.scans = append(f.scans, scan)
	return nil
}

func newTestScanner(cfg core.ScannerConfig) *core.Scanner {
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg.Now = func() time.Time { return time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC) }
	cfg.NewID = func() string { return "scan-1" }
	return core.NewScanner(cfg)
}

const ticketText = `チケットぴあ
レ・ミゼラブル WORLD TOUR
『LES MISERABLES』
主催：東宝
2025年8月10日(日) 18:00開演
東急シアターオーブ
発券日 2025/07/01`

func TestScanExtractsFieldsAndPersists(t *testing.T) {
	tr := &fakeTranscriber{text: ticketText}
	archive := &fakeArchive{}
	store := &fakeStore{}
	s := newTestScanner(core.ScannerConfig{
		Transcriber: tr,
		Archive:     archive,
		Store:       store,
		Hints:       []string{"ja", "en"},
	})

	res, err := s.Scan(context.Background(), core.ScanInput{Image: []byte("jpeg"), ContentType: "image/jpeg", FileName: "IMG_01.JPG"})
	require.NoError(t, err)

	assert.Equal(t, "scan-1", res.ID)
	assert.Equal(t, ticketText, res.RawText)
	require.NotNil(t, res.Fields.EventDate)
	assert.Equal(t, "2025-08-10", res.Fields.EventDate.String())
	require.NotNil(t, res.Fields.Venue)
	assert.Equal(t, "東急シアターオーブ", *res.Fields.Venue)
	require.NotNil(t, res.Fields.Title)
	assert.Equal(t, "レ・ミゼラブル WORLD TOUR 『LES MISERABLES』", *res.Fields.Title)
	assert.Equal(t, "https://cdn.example.com/scan-1.jpg", res.ImageURL)
	assert.Equal(t, []string{"ja", "en"}, tr.hints)
	assert.Equal(t, []byte("jpeg"), archive.body)
	require.Len(t, store.scans, 1)
	assert.Equal(t, res.ImageURL, store.scans[0].ImageURL)
}

func TestScanWithoutImage(t *testing.T) {
	tr := &fakeTranscriber{text: "x"}
	s := newTestScanner(core.ScannerConfig{Transcriber: tr})
	_, err := s.Scan(context.Background(), core.ScanInput{})
	assert.ErrorIs(t, err, core.ErrNoImage)
	assert.Zero(t, tr.calls)

	optional := newTestScanner(core.ScannerConfig{Transcriber: tr, ImageOptional: true})
	assert.True(t, optional.ImageOptional())
	res, err := optional.Scan(context.Background(), core.ScanInput{})
	require.NoError(t, err)
	assert.Equal(t, "x", res.RawText)
}

func TestScanUpstreamFailure(t *testing.T) {
	boom := errors.New("vision unavailable")
	s := newTestScanner(core.ScannerConfig{Transcriber: &fakeTranscriber{err: boom}})

	_, err := s.Scan(context.Background(), core.ScanInput{Image: []byte("png")})
	require.Error(t, err)
	var upstream *core.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "ocr", upstream.Stage)
	assert.ErrorIs(t, err, boom)
}

func TestScanEmptyTextUsesPlaceholder(t *testing.T) {
	s := newTestScanner(core.ScannerConfig{Transcriber: &fakeTranscriber{text: "  \n"}})

	res, err := s.Scan(context.Background(), core.ScanInput{Image: []byte("png")})
	require.NoError(t, err)
	assert.Equal(t, core.NoTextPlaceholder, res.RawText)
	assert.True(t, res.Fields.Empty())
}

func TestScanSideEffectFailuresAreNotFatal(t *testing.T) {
	s := newTestScanner(core.ScannerConfig{
		Transcriber: &fakeTranscriber{text: "日本武道館"},
		Archive:     &fakeArchive{err: errors.New("s3 down")},
		Store:       &fakeStore{err: errors.New("db down")},
	})

	res, err := s.Scan(context.Background(), core.ScanInput{Image: []byte("png")})
	require.NoError(t, err)
	assert.Empty(t, res.ImageURL)
	require.NotNil(t, res.Fields.Venue)
	assert.Equal(t, "日本武道館", *res.Fields.Venue)
}

func TestExtractTextAllAbsent(t *testing.T) {
	s := newTestScanner(core.ScannerConfig{})
	res := s.ExtractText("hello\nworld")
	assert.True(t, res.Fields.Empty())
	assert.Nil(t, res.Fields.EventDate)
	assert.Nil(t, res.Fields.Venue)
	assert.Nil(t, res.Fields.Title)
	assert.Equal(t, "hello\nworld", res.RawText)
}

func TestErrorMessagesTolerateNil(t *testing.T) {
	var up *core.UpstreamError
	assert.Equal(t, "upstream failure", up.Error())
	assert.Nil(t, up.Unwrap())

	var inv *core.InvalidImageError
	assert.Equal(t, "invalid image", inv.Error())
	assert.Equal(t, "invalid image (text/plain): not an image", (&core.InvalidImageError{ContentType: "text/plain", Reason: "not an image"}).Error())
}

func TestExtractLogsCandidateDatesAtDebug(t *testing.T) {
	var buf bytes.Buffer
	scanner := core.NewScanner(core.ScannerConfig{
		Transcriber: &fakeTranscriber{},
		Logger:      slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})),
		NewID:       func() string { return "scan-1" },
	})

	scanner.ExtractText("公演日 2025年8月10日\n発券 2025/07/01")

	var candidates []string
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry struct {
			Msg        string   `json:"msg"`
			Candidates []string `json:"candidates"`
		}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if entry.Msg == "dates_found" {
			candidates = entry.Candidates
		}
	}
	assert.Contains(t, candidates, "2025-08-10")
	assert.Contains(t, candidates, "2025-07-01")
}

func TestExtractSkipsCandidateLogAboveDebug(t *testing.T) {
	var buf bytes.Buffer
	scanner := core.NewScanner(core.ScannerConfig{
		Transcriber: &fakeTranscriber{},
		Logger:      slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})),
	})

	scanner.ExtractText("2025年8月10日")
	assert.NotContains(t, buf.String(), "dates_found")
}
